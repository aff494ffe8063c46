package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validPaymentInput() CreatePaymentInput {
	order := "o1"
	return CreatePaymentInput{
		Amount:   decimal.RequireFromString("99.99"),
		Currency: "USD",
		Method:   domain.MethodCreditCard,
		UserID:   "u1",
		OrderID:  &order,
	}
}

func intPtr(v int) *int { return &v }

func TestPaymentService_CreatePayment_Success(t *testing.T) {
	repo := NewMockPaymentRepository()
	svc := NewPaymentService(repo, nil, discardLogger())

	p, err := svc.CreatePayment(context.Background(), validPaymentInput())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.Equal(t, "99.99", p.Amount.StringFixed(2))
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, domain.MethodCreditCard, p.Method)
	require.NotNil(t, p.OrderID)
	assert.Equal(t, "o1", *p.OrderID)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.Equal(t, 1, repo.Count())
}

func TestPaymentService_CreatePayment_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreatePaymentInput)
		want   string
	}{
		{"zero amount", func(in *CreatePaymentInput) { in.Amount = decimal.Zero }, "Amount must be greater than 0"},
		{"negative amount", func(in *CreatePaymentInput) { in.Amount = decimal.NewFromInt(-10) }, "Amount must be greater than 0"},
		{"sub-cent amount", func(in *CreatePaymentInput) { in.Amount = decimal.RequireFromString("0.004") }, "Amount must be greater than 0"},
		{"blank currency", func(in *CreatePaymentInput) { in.Currency = "  " }, "Currency must not be empty"},
		{"missing method", func(in *CreatePaymentInput) { in.Method = "" }, "Payment method is required"},
		{"blank user", func(in *CreatePaymentInput) { in.UserID = "" }, "UserId must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockPaymentRepository()
			svc := NewPaymentService(repo, nil, discardLogger())
			in := validPaymentInput()
			tt.mutate(&in)

			_, err := svc.CreatePayment(context.Background(), in)

			require.Error(t, err)
			assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidPaymentRequest))
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Equal(t, tt.want, err.Error())
			assert.Zero(t, repo.Calls["CreatePayment"])
		})
	}
}

func TestPaymentService_CreatePayment_HalfCentRoundsUp(t *testing.T) {
	repo := NewMockPaymentRepository()
	svc := NewPaymentService(repo, nil, discardLogger())
	in := validPaymentInput()
	in.Amount = decimal.RequireFromString("0.005")

	p, err := svc.CreatePayment(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "0.01", p.Amount.StringFixed(2))
	assert.True(t, p.Amount.IsPositive())
}

func TestPaymentService_CreatePayment_IdempotentWhilePending(t *testing.T) {
	repo := NewMockPaymentRepository()
	svc := NewPaymentService(repo, nil, discardLogger())
	ctx := context.Background()

	first, err := svc.CreatePayment(ctx, validPaymentInput())
	require.NoError(t, err)

	second := validPaymentInput()
	second.Amount = decimal.NewFromInt(500)
	second.Currency = "EUR"
	second.Method = domain.MethodPayPal
	again, err := svc.CreatePayment(ctx, second)

	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "99.99", again.Amount.StringFixed(2))
	assert.Equal(t, "USD", again.Currency)
	assert.Equal(t, domain.MethodCreditCard, again.Method)
	assert.Equal(t, 1, repo.Count())
	assert.Equal(t, 1, repo.Calls["CreatePayment"])
}

func TestPaymentService_CreatePayment_NewPaymentOnceNotPending(t *testing.T) {
	repo := NewMockPaymentRepository()
	svc := NewPaymentService(repo, nil, discardLogger())
	ctx := context.Background()

	first, err := svc.CreatePayment(ctx, validPaymentInput())
	require.NoError(t, err)
	_, err = svc.UpdatePaymentStatus(ctx, first.ID, domain.StatusFailed)
	require.NoError(t, err)

	again, err := svc.CreatePayment(ctx, validPaymentInput())

	require.NoError(t, err)
	assert.NotEqual(t, first.ID, again.ID)
	assert.Equal(t, 2, repo.Count())
}

func TestPaymentService_CreatePayment_NoOrderSkipsIdempotency(t *testing.T) {
	repo := NewMockPaymentRepository()
	svc := NewPaymentService(repo, nil, discardLogger())
	ctx := context.Background()

	in := validPaymentInput()
	in.OrderID = nil

	a, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)
	b, err := svc.CreatePayment(ctx, in)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, repo.Count())
	assert.Zero(t, repo.Calls["FindPendingByOrderAndUser"])
}

func TestPaymentService_GetPaymentByID_NotFound(t *testing.T) {
	svc := NewPaymentService(NewMockPaymentRepository(), nil, discardLogger())

	_, err := svc.GetPaymentByID(context.Background(), uuid.New())

	assert.True(t, domain.IsErrorCode(err, domain.ErrCodePaymentNotFound))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestPaymentService_UpdatePaymentStatus_ApproveIssuesInvoice(t *testing.T) {
	repo := NewMockPaymentRepository()
	issuer := &MockInvoiceIssuer{}
	svc := NewPaymentService(repo, issuer, discardLogger())
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validPaymentInput())
	require.NoError(t, err)

	svc.now = func() time.Time { return p.CreatedAt.Add(time.Minute) }
	updated, err := svc.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	assert.True(t, updated.UpdatedAt.After(p.CreatedAt))
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, []uuid.UUID{p.ID}, issuer.Payments)
}

func TestPaymentService_UpdatePaymentStatus_InvoiceFailureIsSwallowed(t *testing.T) {
	repo := NewMockPaymentRepository()
	issuer := &MockInvoiceIssuer{Err: errors.New("invoice store down")}
	svc := NewPaymentService(repo, issuer, discardLogger())
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validPaymentInput())
	require.NoError(t, err)

	updated, err := svc.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	assert.Equal(t, 1, issuer.CallCount())

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
}

func TestPaymentService_UpdatePaymentStatus_OnlyApprovalIssuesInvoice(t *testing.T) {
	for _, target := range []domain.PaymentStatus{domain.StatusFailed, domain.StatusCanceled} {
		t.Run(string(target), func(t *testing.T) {
			repo := NewMockPaymentRepository()
			issuer := &MockInvoiceIssuer{}
			svc := NewPaymentService(repo, issuer, discardLogger())
			ctx := context.Background()

			p, err := svc.CreatePayment(ctx, validPaymentInput())
			require.NoError(t, err)

			_, err = svc.UpdatePaymentStatus(ctx, p.ID, target)

			require.NoError(t, err)
			assert.Zero(t, issuer.CallCount())
		})
	}
}

func TestPaymentService_UpdatePaymentStatus_RejectedLeavesStoredState(t *testing.T) {
	repo := NewMockPaymentRepository()
	issuer := &MockInvoiceIssuer{}
	svc := NewPaymentService(repo, issuer, discardLogger())
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validPaymentInput())
	require.NoError(t, err)
	_, err = svc.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)
	require.NoError(t, err)

	_, err = svc.UpdatePaymentStatus(ctx, p.ID, domain.StatusPending)

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidStatusTransition))
	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Equal(t, 1, repo.Calls["UpdatePayment"])
	assert.Equal(t, 1, issuer.CallCount())
}

func TestPaymentService_UpdatePaymentStatus_NotFound(t *testing.T) {
	issuer := &MockInvoiceIssuer{}
	svc := NewPaymentService(NewMockPaymentRepository(), issuer, discardLogger())

	_, err := svc.UpdatePaymentStatus(context.Background(), uuid.New(), domain.StatusApproved)

	assert.True(t, domain.IsErrorCode(err, domain.ErrCodePaymentNotFound))
	assert.Zero(t, issuer.CallCount())
}

func TestPaymentService_UpdatePaymentStatus_StaleVersion(t *testing.T) {
	repo := NewMockPaymentRepository()
	issuer := &MockInvoiceIssuer{}
	svc := NewPaymentService(repo, issuer, discardLogger())
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validPaymentInput())
	require.NoError(t, err)

	// Another writer bumps the version between our read and write.
	repo.UpdatePaymentFn = func(ctx context.Context, payment *domain.Payment) error {
		return domain.NewConcurrentModificationError("payment", payment.ID.String())
	}

	_, err = svc.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)

	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeConcurrentModification))
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Zero(t, issuer.CallCount())
}

func TestPaymentService_ListPayments(t *testing.T) {
	repo := NewMockPaymentRepository()
	svc := NewPaymentService(repo, nil, discardLogger())
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		in := validPaymentInput()
		in.OrderID = nil
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_, err := svc.CreatePayment(ctx, in)
		require.NoError(t, err)
	}
	approved := validPaymentInput()
	approved.OrderID = nil
	p, err := svc.CreatePayment(ctx, approved)
	require.NoError(t, err)
	_, err = svc.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)
	require.NoError(t, err)

	t.Run("filters by status and paginates", func(t *testing.T) {
		page, err := svc.ListPayments(ctx, ListPaymentsInput{Status: "PENDING", Page: intPtr(0), Size: intPtr(2)})

		require.NoError(t, err)
		assert.Len(t, page.Content, 2)
		assert.Equal(t, int64(5), page.TotalElements)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 0, page.Page)
		assert.Equal(t, 2, page.Size)
		assert.True(t, page.Content[0].CreatedAt.After(page.Content[1].CreatedAt))
	})

	t.Run("status is case insensitive", func(t *testing.T) {
		page, err := svc.ListPayments(ctx, ListPaymentsInput{Status: "approved"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalElements)
	})

	t.Run("applies defaults", func(t *testing.T) {
		page, err := svc.ListPayments(ctx, ListPaymentsInput{UserID: "u1"})

		require.NoError(t, err)
		assert.Equal(t, 0, page.Page)
		assert.Equal(t, 20, page.Size)
		assert.Equal(t, int64(6), page.TotalElements)
	})

	t.Run("blank filters are ignored", func(t *testing.T) {
		page, err := svc.ListPayments(ctx, ListPaymentsInput{UserID: "", OrderID: ""})

		require.NoError(t, err)
		assert.Equal(t, int64(6), page.TotalElements)
	})
}

func TestPaymentService_ListPayments_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   ListPaymentsInput
		want string
	}{
		{"negative page", ListPaymentsInput{Page: intPtr(-1)}, "Page number must be >= 0"},
		{"zero size", ListPaymentsInput{Size: intPtr(0)}, "Page size must be between 1 and 100"},
		{"oversized", ListPaymentsInput{Size: intPtr(101)}, "Page size must be between 1 and 100"},
		{"bad status", ListPaymentsInput{Status: "DONE"}, "Invalid status value: DONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockPaymentRepository()
			svc := NewPaymentService(repo, nil, discardLogger())

			_, err := svc.ListPayments(context.Background(), tt.in)

			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidPaymentRequest))
			assert.Zero(t, repo.Calls["ListPayments"])
		})
	}
}
