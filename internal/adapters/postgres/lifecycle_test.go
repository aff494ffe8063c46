package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/adapters/postgres"
	"github.com/DanielPopoola/ficmart-billing/internal/adapters/postgres/testhelpers"
	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// LifecycleTestSuite drives both services against a real database.
type LifecycleTestSuite struct {
	suite.Suite
	testDB   *testhelpers.TestDatabase
	payments *service.PaymentService
	invoices *service.InvoiceService
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}

func (suite *LifecycleTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	paymentRepo := postgres.NewPaymentRepository(suite.testDB.DB)
	invoiceRepo := postgres.NewInvoiceRepository(suite.testDB.DB)
	numberer := service.NewInvoiceNumberer(service.NewAtomicSequence())

	suite.invoices = service.NewInvoiceService(invoiceRepo, paymentRepo, numberer, logger)
	suite.payments = service.NewPaymentService(paymentRepo, suite.invoices, logger)
}

func (suite *LifecycleTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *LifecycleTestSuite) TearDownTest() {
	suite.testDB.CleanTables(suite.T())
}

func (suite *LifecycleTestSuite) createPayment(userID, orderID string) *domain.Payment {
	var order *string
	if orderID != "" {
		order = &orderID
	}
	p, err := suite.payments.CreatePayment(context.Background(), service.CreatePaymentInput{
		Amount:   decimal.RequireFromString("99.99"),
		Currency: "USD",
		Method:   domain.MethodCreditCard,
		UserID:   userID,
		OrderID:  order,
	})
	require.NoError(suite.T(), err)
	return p
}

func (suite *LifecycleTestSuite) Test_IdempotentCreate() {
	ctx := context.Background()
	t := suite.T()

	first := suite.createPayment("u1", "o1")
	second := suite.createPayment("u1", "o1")

	assert.Equal(t, first.ID, second.ID)
	page, err := suite.payments.ListPayments(ctx, service.ListPaymentsInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
}

func (suite *LifecycleTestSuite) Test_ApprovalIssuesInvoiceAndTerminalHolds() {
	ctx := context.Background()
	t := suite.T()

	p := suite.createPayment("u1", "o1")

	approved, err := suite.payments.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.False(t, approved.UpdatedAt.Before(p.UpdatedAt))

	inv, err := suite.invoices.GetInvoiceByPaymentID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceCreated, inv.Status)
	assert.True(t, domain.Date(time.Now()).Equal(inv.IssueDate))
	assert.Equal(t, "99.99", inv.Amount.StringFixed(2))

	_, err = suite.payments.UpdatePaymentStatus(ctx, p.ID, domain.StatusPending)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidStatusTransition))

	stored, err := suite.payments.GetPaymentByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)

	_, err = suite.invoices.CreateInvoiceManually(ctx, p.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func (suite *LifecycleTestSuite) Test_ManualInvoiceOnPendingPayment() {
	ctx := context.Background()
	t := suite.T()

	p := suite.createPayment("u1", "o1")

	_, err := suite.invoices.CreateInvoiceManually(ctx, p.ID)

	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	page, err := suite.invoices.ListInvoices(ctx, service.ListInvoicesInput{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements)
}

func (suite *LifecycleTestSuite) Test_InvoiceSentThenPaid() {
	ctx := context.Background()
	t := suite.T()

	p := suite.createPayment("u1", "o1")
	_, err := suite.payments.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)
	require.NoError(t, err)
	inv, err := suite.invoices.GetInvoiceByPaymentID(ctx, p.ID)
	require.NoError(t, err)

	_, err = suite.invoices.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoiceSent)
	require.NoError(t, err)
	paid, err := suite.invoices.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoicePaid)
	require.NoError(t, err)
	assert.NotNil(t, paid.SentAt)
	assert.NotNil(t, paid.PaidAt)

	_, err = suite.invoices.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoiceSent)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidStatusTransition))
}

func (suite *LifecycleTestSuite) Test_ListPendingPaginates() {
	ctx := context.Background()
	t := suite.T()

	for range 5 {
		suite.createPayment("u1", "")
	}
	size := 2

	page, err := suite.payments.ListPayments(ctx, service.ListPaymentsInput{Status: "PENDING", Size: &size})

	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
}

func (suite *LifecycleTestSuite) Test_ConcurrentApprovalsIssueOneInvoice() {
	ctx := context.Background()
	t := suite.T()

	p := suite.createPayment("u1", "o1")

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = suite.payments.UpdatePaymentStatus(ctx, p.ID, domain.StatusApproved)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	page, err := suite.invoices.ListInvoices(ctx, service.ListInvoicesInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
}
