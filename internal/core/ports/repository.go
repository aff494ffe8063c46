package ports

import (
	"context"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/google/uuid"
)

// PaymentRepository defines the storage contract for payments
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	// FindPendingByOrderAndUser returns nil, nil when no PENDING payment matches.
	FindPendingByOrderAndUser(ctx context.Context, orderID, userID string) (*domain.Payment, error)
	// UpdatePayment writes status and updated_at only if the stored version
	// still equals payment.Version, then bumps payment.Version.
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
	ListPayments(ctx context.Context, filter domain.PaymentFilter, page domain.PageRequest) ([]*domain.Payment, int64, error)
	// FindApprovedWithoutInvoice lists APPROVED payments that have no invoice yet, oldest first.
	FindApprovedWithoutInvoice(ctx context.Context, limit int) ([]*domain.Payment, error)

	// WithTx executes a function within a database transaction.
	WithTx(ctx context.Context, fn func(PaymentRepository) error) error
}

// InvoiceRepository defines the storage contract for invoices
type InvoiceRepository interface {
	// CreateInvoice reports a second invoice for the same payment as
	// ErrCodeInvalidInvoiceRequest and a reused number as ErrCodeDuplicateInvoiceNumber.
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	// FindByPaymentID returns nil, nil when the payment has no invoice.
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error)
	ExistsByPaymentID(ctx context.Context, paymentID uuid.UUID) (bool, error)
	UpdateInvoice(ctx context.Context, invoice *domain.Invoice) error
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter, page domain.PageRequest) ([]*domain.Invoice, int64, error)

	WithTx(ctx context.Context, fn func(InvoiceRepository) error) error
}

// SequenceSource hands out strictly increasing numbers for invoice numbering.
type SequenceSource interface {
	Next(ctx context.Context) (int64, error)
}
