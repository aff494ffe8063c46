package service

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/ports"
	"github.com/google/uuid"
)

// MockPaymentRepository keeps copies of payments in memory and enforces the
// same version check as the postgres repository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]domain.Payment
	// HasInvoice backs FindApprovedWithoutInvoice.
	HasInvoice func(paymentID uuid.UUID) bool

	CreatePaymentFn             func(ctx context.Context, payment *domain.Payment) error
	UpdatePaymentFn             func(ctx context.Context, payment *domain.Payment) error
	FindByIDFn                  func(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindPendingByOrderAndUserFn func(ctx context.Context, orderID, userID string) (*domain.Payment, error)
	ListPaymentsFn              func(ctx context.Context, filter domain.PaymentFilter, page domain.PageRequest) ([]*domain.Payment, int64, error)
	WithTxFn                    func(ctx context.Context, fn func(repo ports.PaymentRepository) error) error

	Calls map[string]int
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[uuid.UUID]domain.Payment),
		Calls:    make(map[string]int),
	}
}

func (m *MockPaymentRepository) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[method]++
}

// Put seeds a payment directly.
func (m *MockPaymentRepository) Put(p *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = *p
}

func (m *MockPaymentRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	m.record("CreatePayment")
	if m.CreatePaymentFn != nil {
		return m.CreatePaymentFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = *payment
	return nil
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	m.record("FindByID")
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, domain.NewPaymentNotFoundError(id.String())
}

func (m *MockPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return m.FindByID(ctx, id)
}

func (m *MockPaymentRepository) FindPendingByOrderAndUser(ctx context.Context, orderID, userID string) (*domain.Payment, error) {
	m.record("FindPendingByOrderAndUser")
	if m.FindPendingByOrderAndUserFn != nil {
		return m.FindPendingByOrderAndUserFn(ctx, orderID, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.Status == domain.StatusPending && p.UserID == userID && p.OrderID != nil && *p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	m.record("UpdatePayment")
	if m.UpdatePaymentFn != nil {
		return m.UpdatePaymentFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[payment.ID]
	if !ok {
		return domain.NewPaymentNotFoundError(payment.ID.String())
	}
	if stored.Version != payment.Version {
		return domain.NewConcurrentModificationError("payment", payment.ID.String())
	}
	payment.Version++
	m.payments[payment.ID] = *payment
	return nil
}

func (m *MockPaymentRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter, page domain.PageRequest) ([]*domain.Payment, int64, error) {
	m.record("ListPayments")
	if m.ListPaymentsFn != nil {
		return m.ListPaymentsFn(ctx, filter, page)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*domain.Payment
	for _, p := range m.payments {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.OrderID != "" && (p.OrderID == nil || *p.OrderID != filter.OrderID) {
			continue
		}
		matched = append(matched, &p)
	}
	slices.SortFunc(matched, func(a, b *domain.Payment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (m *MockPaymentRepository) FindApprovedWithoutInvoice(ctx context.Context, limit int) ([]*domain.Payment, error) {
	m.record("FindApprovedWithoutInvoice")
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Payment
	for _, p := range m.payments {
		if p.Status != domain.StatusApproved {
			continue
		}
		if m.HasInvoice != nil && m.HasInvoice(p.ID) {
			continue
		}
		out = append(out, &p)
	}
	slices.SortFunc(out, func(a, b *domain.Payment) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaymentRepository) WithTx(ctx context.Context, fn func(repo ports.PaymentRepository) error) error {
	if m.WithTxFn != nil {
		return m.WithTxFn(ctx, fn)
	}
	return fn(m)
}

// MockInvoiceRepository mirrors the unique constraints on payment_id and invoice_number.
type MockInvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]domain.Invoice

	CreateInvoiceFn   func(ctx context.Context, invoice *domain.Invoice) error
	FindByPaymentIDFn func(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error)
	UpdateInvoiceFn   func(ctx context.Context, invoice *domain.Invoice) error
	ListInvoicesFn    func(ctx context.Context, filter domain.InvoiceFilter, page domain.PageRequest) ([]*domain.Invoice, int64, error)

	Calls map[string]int
}

func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		invoices: make(map[uuid.UUID]domain.Invoice),
		Calls:    make(map[string]int),
	}
}

func (m *MockInvoiceRepository) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[method]++
}

func (m *MockInvoiceRepository) Put(inv *domain.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = *inv
}

func (m *MockInvoiceRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.invoices)
}

// HasInvoice reports whether an invoice is stored for paymentID.
func (m *MockInvoiceRepository) HasInvoice(paymentID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.invoices {
		if inv.PaymentID == paymentID {
			return true
		}
	}
	return false
}

func (m *MockInvoiceRepository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	m.record("CreateInvoice")
	if m.CreateInvoiceFn != nil {
		return m.CreateInvoiceFn(ctx, invoice)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.PaymentID == invoice.PaymentID {
			return domain.NewInvoiceAlreadyExistsError(invoice.PaymentID.String())
		}
		if inv.InvoiceNumber == invoice.InvoiceNumber {
			return domain.NewDuplicateInvoiceNumberError(invoice.InvoiceNumber)
		}
	}
	m.invoices[invoice.ID] = *invoice
	return nil
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	m.record("FindByID")
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inv, ok := m.invoices[id]; ok {
		return &inv, nil
	}
	return nil, domain.NewInvoiceNotFoundError(id.String())
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return m.FindByID(ctx, id)
}

func (m *MockInvoiceRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error) {
	m.record("FindByPaymentID")
	if m.FindByPaymentIDFn != nil {
		return m.FindByPaymentIDFn(ctx, paymentID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.invoices {
		if inv.PaymentID == paymentID {
			return &inv, nil
		}
	}
	return nil, nil
}

func (m *MockInvoiceRepository) ExistsByPaymentID(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	m.record("ExistsByPaymentID")
	return m.HasInvoice(paymentID), nil
}

func (m *MockInvoiceRepository) UpdateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	m.record("UpdateInvoice")
	if m.UpdateInvoiceFn != nil {
		return m.UpdateInvoiceFn(ctx, invoice)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invoices[invoice.ID]
	if !ok {
		return domain.NewInvoiceNotFoundError(invoice.ID.String())
	}
	if stored.Version != invoice.Version {
		return domain.NewConcurrentModificationError("invoice", invoice.ID.String())
	}
	invoice.Version++
	m.invoices[invoice.ID] = *invoice
	return nil
}

func (m *MockInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter, page domain.PageRequest) ([]*domain.Invoice, int64, error) {
	m.record("ListInvoices")
	if m.ListInvoicesFn != nil {
		return m.ListInvoicesFn(ctx, filter, page)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*domain.Invoice
	for _, inv := range m.invoices {
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.UserID != "" && inv.UserID != filter.UserID {
			continue
		}
		if filter.FromDate != nil && inv.IssueDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && inv.IssueDate.After(*filter.ToDate) {
			continue
		}
		matched = append(matched, &inv)
	}
	slices.SortFunc(matched, func(a, b *domain.Invoice) int {
		if c := b.IssueDate.Compare(a.IssueDate); c != 0 {
			return c
		}
		return cmp.Compare(b.InvoiceNumber, a.InvoiceNumber)
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (m *MockInvoiceRepository) WithTx(ctx context.Context, fn func(repo ports.InvoiceRepository) error) error {
	return fn(m)
}

// MockInvoiceIssuer records the payments it was asked to invoice.
type MockInvoiceIssuer struct {
	mu       sync.Mutex
	Payments []uuid.UUID
	Err      error
}

func (m *MockInvoiceIssuer) CreateInvoiceFromPayment(_ context.Context, payment *domain.Payment) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payments = append(m.Payments, payment.ID)
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.Invoice{ID: uuid.New(), PaymentID: payment.ID, Status: domain.InvoiceCreated}, nil
}

func (m *MockInvoiceIssuer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Payments)
}

func paginate[T any](items []T, page domain.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Size, len(items))
	return items[start:end]
}
