package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
)

const dateLayout = "2006-01-02"

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PaymentResponse struct {
	ID        string      `json:"id"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Method    string      `json:"method"`
	Status    string      `json:"status"`
	UserID    string      `json:"userId"`
	OrderID   *string     `json:"orderId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type InvoiceResponse struct {
	ID            string      `json:"id"`
	InvoiceNumber string      `json:"invoiceNumber"`
	PaymentID     string      `json:"paymentId"`
	UserID        string      `json:"userId"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	Status        string      `json:"status"`
	OrderID       *string     `json:"orderId"`
	IssueDate     string      `json:"issueDate"`
	DueDate       *string     `json:"dueDate"`
	SentAt        *string     `json:"sentAt"`
	PaidAt        *string     `json:"paidAt"`
	CancelledAt   *string     `json:"cancelledAt"`
}

type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		Amount:    json.Number(p.Amount.StringFixed(2)),
		Currency:  p.Currency,
		Method:    string(p.Method),
		Status:    string(p.Status),
		UserID:    p.UserID,
		OrderID:   p.OrderID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		PaymentID:     inv.PaymentID.String(),
		UserID:        inv.UserID,
		Amount:        json.Number(inv.Amount.StringFixed(2)),
		Currency:      inv.Currency,
		Status:        string(inv.Status),
		OrderID:       inv.OrderID,
		IssueDate:     inv.IssueDate.Format(dateLayout),
		DueDate:       formatDate(inv.DueDate),
		SentAt:        formatDate(inv.SentAt),
		PaidAt:        formatDate(inv.PaidAt),
		CancelledAt:   formatDate(inv.CancelledAt),
	}
}

func toPageResponse[E, T any](page domain.Page[E], convert func(E) T) PageResponse[T] {
	content := make([]T, 0, len(page.Content))
	for _, item := range page.Content {
		content = append(content, convert(item))
	}
	return PageResponse[T]{
		Content:       content,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		Page:          page.Page,
		Size:          page.Size,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func respondWithJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
	}

	if response.Success {
		response.Data = data
	} else {
		if apiErr, ok := data.(*APIError); ok {
			response.Error = apiErr
		}
	}

	_ = json.NewEncoder(w).Encode(response)
}

// respondWithError maps a DomainError's kind to an HTTP status. Anything
// else is a 500 whose detail only goes to the log.
func respondWithError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondWithJSON(w, http.StatusInternalServerError, &APIError{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindConflict:
		status = http.StatusConflict
	default:
		logger.Error("unclassified domain error", "code", domainErr.Code, "error", err)
	}

	respondWithJSON(w, status, &APIError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
	})
}

func badRequest(w http.ResponseWriter, code, message string) {
	respondWithJSON(w, http.StatusBadRequest, &APIError{Code: code, Message: message})
}
