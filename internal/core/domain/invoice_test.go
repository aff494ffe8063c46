package domain_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoiceFromPayment(t *testing.T) {
	p := newPayment(domain.StatusApproved)
	today := time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)

	inv := domain.NewInvoiceFromPayment(p, "INV-20250614-235900-0001", today)

	assert.Equal(t, p.ID, inv.PaymentID)
	assert.Equal(t, p.UserID, inv.UserID)
	assert.True(t, p.Amount.Equal(inv.Amount))
	assert.Equal(t, p.Currency, inv.Currency)
	assert.Equal(t, p.OrderID, inv.OrderID)
	assert.Equal(t, domain.InvoiceCreated, inv.Status)
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Nil(t, inv.DueDate)
	assert.Nil(t, inv.SentAt)
	assert.Nil(t, inv.PaidAt)
	assert.Nil(t, inv.CancelledAt)
}

func TestInvoice_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.InvoiceStatus
		to      domain.InvoiceStatus
		wantErr string
	}{
		{"created to sent", domain.InvoiceCreated, domain.InvoiceSent, ""},
		{"created to paid", domain.InvoiceCreated, domain.InvoicePaid, ""},
		{"created to cancelled", domain.InvoiceCreated, domain.InvoiceCancelled, ""},
		{"sent to paid", domain.InvoiceSent, domain.InvoicePaid, ""},
		{"null target", domain.InvoiceCreated, "", "Target status cannot be null"},
		{"same status", domain.InvoiceSent, domain.InvoiceSent, "(same status)"},
		{"sent to cancelled", domain.InvoiceSent, domain.InvoiceCancelled, "SENT invoices can only transition to PAID."},
		{"sent back to created", domain.InvoiceSent, domain.InvoiceCreated, "Invalid transition from SENT to CREATED"},
		{"paid is terminal", domain.InvoicePaid, domain.InvoiceSent, "Invoices in PAID status cannot be modified."},
		{"cancelled is terminal", domain.InvoiceCancelled, domain.InvoicePaid, "terminal state CANCELLED"},
		{"unknown target from created", domain.InvoiceCreated, domain.InvoiceStatus("VOID"), "CREATED invoices can only transition to SENT, PAID, or CANCELLED."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &domain.Invoice{Status: tt.from}
			err := inv.CanTransitionTo(tt.to)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidStatusTransition))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvoice_TransitionTo(t *testing.T) {
	day1 := time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC)
	day2 := day1.Add(48 * time.Hour)

	t.Run("stamps the date of each reached status", func(t *testing.T) {
		inv := &domain.Invoice{Status: domain.InvoiceCreated}

		require.NoError(t, inv.TransitionTo(domain.InvoiceSent, day1))
		require.NoError(t, inv.TransitionTo(domain.InvoicePaid, day2))

		require.NotNil(t, inv.SentAt)
		require.NotNil(t, inv.PaidAt)
		assert.Equal(t, domain.Date(day1), *inv.SentAt)
		assert.Equal(t, domain.Date(day2), *inv.PaidAt)
		assert.Nil(t, inv.CancelledAt)
	})

	t.Run("keeps an existing stamp", func(t *testing.T) {
		earlier := domain.Date(day1)
		inv := &domain.Invoice{Status: domain.InvoiceCreated, CancelledAt: &earlier}

		require.NoError(t, inv.TransitionTo(domain.InvoiceCancelled, day2))

		assert.Equal(t, earlier, *inv.CancelledAt)
	})

	t.Run("rejection leaves invoice untouched", func(t *testing.T) {
		inv := &domain.Invoice{Status: domain.InvoicePaid}

		err := inv.TransitionTo(domain.InvoiceSent, day2)

		assert.Error(t, err)
		assert.Equal(t, domain.InvoicePaid, inv.Status)
		assert.Nil(t, inv.SentAt)
	})
}

func TestParseInvoiceStatus(t *testing.T) {
	s, err := domain.ParseInvoiceStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceCancelled, s)

	_, err = domain.ParseInvoiceStatus("CANCELED")
	assert.Error(t, err)
}

func TestNewPage(t *testing.T) {
	page := domain.NewPage([]int{1, 2}, 5, domain.PageRequest{Page: 0, Size: 2})

	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 2, page.Size)

	empty := domain.NewPage[int](nil, 0, domain.PageRequest{Page: 4, Size: 20})
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, domain.KindNotFound, domain.KindOf(domain.NewPaymentNotFoundError("x")))
	assert.Equal(t, domain.KindValidation, domain.KindOf(domain.NewInvalidInvoiceInputError("Page size must be between 1 and 100")))
	assert.Equal(t, domain.KindConflict, domain.KindOf(domain.NewInvoiceAlreadyExistsError("x")))
	assert.Equal(t, domain.KindUnknown, domain.KindOf(assert.AnError))
}

func TestDate_UsesUTCCalendarDay(t *testing.T) {
	lagos := time.FixedZone("UTC+1", 60*60)
	honolulu := time.FixedZone("UTC-10", -10*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"ahead of UTC just after local midnight", time.Date(2025, 3, 2, 0, 30, 0, 0, lagos), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"behind UTC late evening", time.Date(2025, 3, 1, 20, 0, 0, 0, honolulu), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"already UTC", time.Date(2025, 3, 1, 23, 59, 59, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.Date(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
