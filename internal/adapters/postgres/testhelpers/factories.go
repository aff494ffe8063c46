package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/adapters/postgres"
	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreatePayment stores a payment for userID with the given status and creation time.
func CreatePayment(
	t *testing.T,
	ctx context.Context,
	repo *postgres.PaymentRepository,
	userID string,
	status domain.PaymentStatus,
	createdAt time.Time,
) *domain.Payment {
	t.Helper()

	order := "order-" + uuid.New().String()
	p := domain.NewPayment(decimal.RequireFromString("49.90"), "USD", domain.MethodDebitCard, userID, &order, createdAt.UTC().Truncate(time.Microsecond))
	p.Status = status

	require.NoError(t, repo.CreatePayment(ctx, p))
	return p
}

// CreateInvoice stores an invoice for p issued on issueDate.
func CreateInvoice(
	t *testing.T,
	ctx context.Context,
	repo *postgres.InvoiceRepository,
	p *domain.Payment,
	number string,
	issueDate time.Time,
) *domain.Invoice {
	t.Helper()

	inv := domain.NewInvoiceFromPayment(p, number, issueDate)
	require.NoError(t, repo.CreateInvoice(ctx, inv))
	return inv
}
