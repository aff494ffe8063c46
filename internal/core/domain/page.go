package domain

import "time"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a validated zero-based page index and size.
type PageRequest struct {
	Page int
	Size int
}

func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one slice of a filtered, ordered result set. TotalElements and
// TotalPages describe the whole set, not just Content.
type Page[T any] struct {
	Content       []T
	TotalElements int64
	TotalPages    int
	Page          int
	Size          int
}

// NewPage assembles a page from the rows of one request and the full match count.
func NewPage[T any](content []T, total int64, req PageRequest) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Page:          req.Page,
		Size:          req.Size,
	}
}

// PaymentFilter narrows a payment listing. Nil or empty fields do not filter.
type PaymentFilter struct {
	Status  *PaymentStatus
	UserID  string
	OrderID string
}

// InvoiceFilter narrows an invoice listing. The date bounds are inclusive
// and compare against the issue date.
type InvoiceFilter struct {
	Status   *InvoiceStatus
	UserID   string
	FromDate *time.Time
	ToDate   *time.Time
}
