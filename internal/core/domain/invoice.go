package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the current state of an invoice
type InvoiceStatus string

const (
	InvoiceCreated   InvoiceStatus = "CREATED"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

var invoiceStatuses = []InvoiceStatus{InvoiceCreated, InvoiceSent, InvoicePaid, InvoiceCancelled}

func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	s := InvoiceStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !slices.Contains(invoiceStatuses, s) {
		return "", fmt.Errorf("unknown invoice status %q", raw)
	}
	return s, nil
}

// Invoice is the billing document issued for an approved payment.
// Amount, currency, user and order are copied from the payment once and never resynced.
type Invoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	PaymentID     uuid.UUID
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	Status        InvoiceStatus
	OrderID       *string

	IssueDate   time.Time
	DueDate     *time.Time
	SentAt      *time.Time
	PaidAt      *time.Time
	CancelledAt *time.Time

	Version int64
}

// NewInvoiceFromPayment builds a CREATED invoice carrying the payment's billing fields.
func NewInvoiceFromPayment(p *Payment, number string, today time.Time) *Invoice {
	return &Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		PaymentID:     p.ID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        InvoiceCreated,
		OrderID:       p.OrderID,
		IssueDate:     Date(today),
	}
}

// CanTransitionTo validates an invoice status change.
//
// Valid transitions are:
//   - Created → Sent, Paid, Cancelled
//   - Sent → Paid
//
// Paid and Cancelled are terminal.
func (i *Invoice) CanTransitionTo(target InvoiceStatus) error {
	if target == "" {
		return NewInvalidStatusTransitionError("Target status cannot be null")
	}

	if i.Status == target {
		return NewInvalidStatusTransitionError(
			fmt.Sprintf("Cannot transition from %s to %s (same status)", i.Status, target))
	}

	if i.IsTerminal() {
		return NewInvalidStatusTransitionError(fmt.Sprintf(
			"Cannot transition from terminal state %s to %s. Invoices in %s status cannot be modified.",
			i.Status, target, i.Status))
	}

	switch i.Status {
	case InvoiceCreated:
		if target == InvoiceSent || target == InvoicePaid || target == InvoiceCancelled {
			return nil
		}
		return NewInvalidStatusTransitionError(fmt.Sprintf(
			"Invalid transition from CREATED to %s. CREATED invoices can only transition to SENT, PAID, or CANCELLED.",
			target))
	case InvoiceSent:
		if target == InvoicePaid {
			return nil
		}
		return NewInvalidStatusTransitionError(fmt.Sprintf(
			"Invalid transition from SENT to %s. SENT invoices can only transition to PAID.", target))
	}

	return NewInvalidStatusTransitionError(fmt.Sprintf("Cannot transition from %s to %s", i.Status, target))
}

// TransitionTo applies a validated status change. The date stamp matching the
// new status is written only the first time that status is reached.
func (i *Invoice) TransitionTo(target InvoiceStatus, today time.Time) error {
	if err := i.CanTransitionTo(target); err != nil {
		return err
	}
	i.Status = target

	day := Date(today)
	switch target {
	case InvoiceSent:
		if i.SentAt == nil {
			i.SentAt = &day
		}
	case InvoicePaid:
		if i.PaidAt == nil {
			i.PaidAt = &day
		}
	case InvoiceCancelled:
		if i.CancelledAt == nil {
			i.CancelledAt = &day
		}
	}
	return nil
}

func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoicePaid || i.Status == InvoiceCancelled
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
