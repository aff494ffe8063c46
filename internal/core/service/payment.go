package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceIssuer creates the invoice for a freshly approved payment.
type InvoiceIssuer interface {
	CreateInvoiceFromPayment(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error)
}

type CreatePaymentInput struct {
	Amount   decimal.Decimal
	Currency string
	Method   domain.PaymentMethod
	UserID   string
	OrderID  *string
}

type ListPaymentsInput struct {
	Status  string
	UserID  string
	OrderID string
	Page    *int
	Size    *int
}

type PaymentService struct {
	repo   ports.PaymentRepository
	issuer InvoiceIssuer
	logger *slog.Logger
	now    func() time.Time
}

func NewPaymentService(repo ports.PaymentRepository, issuer InvoiceIssuer, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:   repo,
		issuer: issuer,
		logger: logger,
		now:    time.Now,
	}
}

// CreatePayment stores a new PENDING payment. When an order id is given and
// the same user already has a PENDING payment for that order, the existing
// payment is returned untouched and nothing is written.
func (s *PaymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error) {
	// Stored amounts have two decimals, so sub-cent input must be judged rounded.
	in.Amount = in.Amount.Round(2)
	if err := s.validate(in); err != nil {
		return nil, err
	}

	orderID := normalizeOptional(in.OrderID)
	if orderID != nil {
		existing, err := s.repo.FindPendingByOrderAndUser(ctx, *orderID, in.UserID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("returning existing pending payment",
				"payment_id", existing.ID,
				"order_id", *orderID,
				"user_id", in.UserID)
			return existing, nil
		}
	}

	payment := domain.NewPayment(in.Amount, in.Currency, in.Method, in.UserID, orderID, s.timestamp())
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment created",
		"payment_id", payment.ID,
		"user_id", payment.UserID,
		"amount", payment.Amount.StringFixed(2),
		"currency", payment.Currency)
	return payment, nil
}

func (s *PaymentService) GetPaymentByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PaymentService) ListPayments(ctx context.Context, in ListPaymentsInput) (domain.Page[*domain.Payment], error) {
	req, err := resolvePage(in.Page, in.Size, domain.NewInvalidPaymentRequestError)
	if err != nil {
		return domain.Page[*domain.Payment]{}, err
	}

	filter := domain.PaymentFilter{
		UserID:  strings.TrimSpace(in.UserID),
		OrderID: strings.TrimSpace(in.OrderID),
	}
	if strings.TrimSpace(in.Status) != "" {
		status, err := domain.ParsePaymentStatus(in.Status)
		if err != nil {
			return domain.Page[*domain.Payment]{}, domain.NewInvalidPaymentRequestError(
				fmt.Sprintf("Invalid status value: %s", in.Status))
		}
		filter.Status = &status
	}

	items, total, err := s.repo.ListPayments(ctx, filter, req)
	if err != nil {
		return domain.Page[*domain.Payment]{}, err
	}
	return domain.NewPage(items, total, req), nil
}

// UpdatePaymentStatus moves a payment to target. An APPROVED outcome issues
// the payment's invoice after the status change is committed; a failure
// there is logged and never changes the result of this call.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, target domain.PaymentStatus) (*domain.Payment, error) {
	var updated *domain.Payment
	err := s.repo.WithTx(ctx, func(txRepo ports.PaymentRepository) error {
		p, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		from := p.Status
		if err := p.TransitionTo(target, s.timestamp()); err != nil {
			s.logger.Warn("payment status transition rejected",
				"payment_id", id,
				"from", from,
				"to", target,
				"reason", err.Error())
			return err
		}

		if err := txRepo.UpdatePayment(ctx, p); err != nil {
			return err
		}

		s.logger.Info("payment status updated", "payment_id", id, "from", from, "to", target)
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if target == domain.StatusApproved {
		s.issueInvoice(ctx, updated)
	}
	return updated, nil
}

func (s *PaymentService) issueInvoice(ctx context.Context, p *domain.Payment) {
	if s.issuer == nil {
		return
	}
	// The payment is already committed; a caller hanging up must not abort invoicing.
	ctx = context.WithoutCancel(ctx)
	if _, err := s.issuer.CreateInvoiceFromPayment(ctx, p); err != nil {
		s.logger.Error("failed to create invoice for approved payment",
			"payment_id", p.ID,
			"error", err)
	}
}

func (s *PaymentService) validate(in CreatePaymentInput) error {
	if !in.Amount.IsPositive() {
		return domain.NewInvalidPaymentRequestError("Amount must be greater than 0")
	}
	if strings.TrimSpace(in.Currency) == "" {
		return domain.NewInvalidPaymentRequestError("Currency must not be empty")
	}
	if in.Method == "" {
		return domain.NewInvalidPaymentRequestError("Payment method is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return domain.NewInvalidPaymentRequestError("UserId must not be empty")
	}
	return nil
}

// timestamp is truncated to what a timestamptz column keeps.
func (s *PaymentService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
