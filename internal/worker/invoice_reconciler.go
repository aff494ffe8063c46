package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/ports"
)

// InvoiceIssuer is satisfied by *service.InvoiceService.
type InvoiceIssuer interface {
	CreateInvoiceFromPayment(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error)
}

// InvoiceReconciler issues invoices for approved payments that were left
// without one, e.g. when the process died between approval and issuing.
type InvoiceReconciler struct {
	payments  ports.PaymentRepository
	issuer    InvoiceIssuer
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewInvoiceReconciler(
	payments ports.PaymentRepository,
	issuer InvoiceIssuer,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *InvoiceReconciler {
	return &InvoiceReconciler{
		payments:  payments,
		issuer:    issuer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (r *InvoiceReconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting invoice reconciler", "interval", r.interval, "batch_size", r.batchSize)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping invoice reconciler")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle and reports how many
// invoices it issued.
func (r *InvoiceReconciler) RunOnce(ctx context.Context) int {
	missing, err := r.payments.FindApprovedWithoutInvoice(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch approved payments without invoice", "error", err)
		return 0
	}

	if len(missing) == 0 {
		return 0
	}

	r.logger.Info("issuing missing invoices", "count", len(missing))

	issued := 0
	for _, p := range missing {
		if ctx.Err() != nil {
			break
		}
		inv, err := r.issuer.CreateInvoiceFromPayment(ctx, p)
		if err != nil {
			r.logger.Error("failed to issue invoice", "payment_id", p.ID, "error", err)
			continue
		}
		r.logger.Info("issued missing invoice", "payment_id", p.ID, "invoice_number", inv.InvoiceNumber)
		issued++
	}
	return issued
}
