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
)

const maxInvoiceNumberAttempts = 3

type ListInvoicesInput struct {
	Status   string
	UserID   string
	FromDate *time.Time
	ToDate   *time.Time
	Page     *int
	Size     *int
}

type InvoiceService struct {
	repo     ports.InvoiceRepository
	payments ports.PaymentRepository
	numberer *InvoiceNumberer
	logger   *slog.Logger
	now      func() time.Time
}

func NewInvoiceService(repo ports.InvoiceRepository, payments ports.PaymentRepository, numberer *InvoiceNumberer, logger *slog.Logger) *InvoiceService {
	return &InvoiceService{
		repo:     repo,
		payments: payments,
		numberer: numberer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateInvoiceFromPayment issues the invoice for an approved payment. If the
// payment already has one, that invoice is returned and nothing is written.
func (s *InvoiceService) CreateInvoiceFromPayment(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error) {
	existing, err := s.repo.FindByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Warn("Invoice already exists for payment, returning existing invoice",
			"payment_id", payment.ID,
			"invoice_id", existing.ID)
		return existing, nil
	}

	inv, err := s.issue(ctx, payment)
	if domain.IsErrorCode(err, domain.ErrCodeInvalidInvoiceRequest) {
		// Lost a race with another issuer for the same payment.
		existing, findErr := s.repo.FindByPaymentID(ctx, payment.ID)
		if findErr == nil && existing != nil {
			return existing, nil
		}
	}
	return inv, err
}

// CreateInvoiceManually issues an invoice on request. Unlike the approval
// path, an existing invoice is reported as a conflict.
func (s *InvoiceService) CreateInvoiceManually(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.StatusApproved {
		return nil, domain.NewInvoiceConflictError(fmt.Sprintf(
			"Cannot create invoice for payment with status %s. Only APPROVED payments can have invoices.",
			payment.Status))
	}

	exists, err := s.repo.ExistsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewInvoiceAlreadyExistsError(paymentID.String())
	}

	return s.issue(ctx, payment)
}

func (s *InvoiceService) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *InvoiceService) GetInvoiceByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.repo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.NewInvoiceForPaymentNotFoundError(paymentID.String())
	}
	return inv, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, in ListInvoicesInput) (domain.Page[*domain.Invoice], error) {
	req, err := resolvePage(in.Page, in.Size, domain.NewInvalidInvoiceInputError)
	if err != nil {
		return domain.Page[*domain.Invoice]{}, err
	}

	filter := domain.InvoiceFilter{UserID: strings.TrimSpace(in.UserID)}

	if in.FromDate != nil {
		from := domain.Date(*in.FromDate)
		filter.FromDate = &from
	}
	if in.ToDate != nil {
		to := domain.Date(*in.ToDate)
		filter.ToDate = &to
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return domain.Page[*domain.Invoice]{}, domain.NewInvalidInvoiceInputError("fromDate must be <= toDate")
	}

	if strings.TrimSpace(in.Status) != "" {
		status, err := domain.ParseInvoiceStatus(in.Status)
		if err != nil {
			return domain.Page[*domain.Invoice]{}, domain.NewInvalidInvoiceInputError(
				fmt.Sprintf("Invalid status value: %s", in.Status))
		}
		filter.Status = &status
	}

	items, total, err := s.repo.ListInvoices(ctx, filter, req)
	if err != nil {
		return domain.Page[*domain.Invoice]{}, err
	}
	return domain.NewPage(items, total, req), nil
}

func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, target domain.InvoiceStatus) (*domain.Invoice, error) {
	var updated *domain.Invoice
	err := s.repo.WithTx(ctx, func(txRepo ports.InvoiceRepository) error {
		inv, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		from := inv.Status
		if err := inv.TransitionTo(target, s.now()); err != nil {
			s.logger.Warn("invoice status transition rejected",
				"invoice_id", id,
				"from", from,
				"to", target,
				"reason", err.Error())
			return err
		}

		if err := txRepo.UpdateInvoice(ctx, inv); err != nil {
			return err
		}

		s.logger.Info("invoice status updated", "invoice_id", id, "from", from, "to", target)
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// issue numbers and stores a new CREATED invoice, drawing a fresh number
// when the previous one was already taken.
func (s *InvoiceService) issue(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error) {
	var lastErr error
	for attempt := 1; attempt <= maxInvoiceNumberAttempts; attempt++ {
		number, err := s.numberer.Next(ctx)
		if err != nil {
			return nil, err
		}

		inv := domain.NewInvoiceFromPayment(payment, number, s.now())
		err = s.repo.CreateInvoice(ctx, inv)
		if err == nil {
			s.logger.Info("invoice created",
				"invoice_id", inv.ID,
				"invoice_number", inv.InvoiceNumber,
				"payment_id", payment.ID)
			return inv, nil
		}
		if !domain.IsErrorCode(err, domain.ErrCodeDuplicateInvoiceNumber) {
			return nil, err
		}

		s.logger.Warn("invoice number collision, retrying",
			"invoice_number", number,
			"attempt", attempt)
		lastErr = err
	}
	return nil, fmt.Errorf("issue invoice for payment %s: %w", payment.ID, lastErr)
}
