package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	invoiceColumns = `id, invoice_number, payment_id, user_id, amount::text, currency, status, order_id,
				issue_date, due_date, sent_at, paid_at, cancelled_at, version`

	constraintInvoicePayment = "invoices_payment_id_key"
	constraintInvoiceNumber  = "invoices_invoice_number_key"
)

type InvoiceRepository struct {
	pool *pgxpool.Pool
	q    Executor
}

func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{
		pool: db.Pool,
		q:    db.Pool,
	}
}

// CreateInvoice inserts a new invoice. The unique constraints on payment_id
// and invoice_number surface as domain conflicts.
func (r *InvoiceRepository) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (
				id, invoice_number, payment_id, user_id, amount, currency, status, order_id,
				issue_date, due_date, sent_at, paid_at, cancelled_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.Exec(ctx, query,
		inv.ID,
		inv.InvoiceNumber,
		inv.PaymentID,
		inv.UserID,
		inv.Amount.StringFixed(2),
		inv.Currency,
		inv.Status,
		inv.OrderID,
		inv.IssueDate,
		inv.DueDate,
		inv.SentAt,
		inv.PaidAt,
		inv.CancelledAt,
		inv.Version,
	)
	if err != nil {
		switch violatedConstraint(err) {
		case constraintInvoicePayment:
			return domain.NewInvoiceAlreadyExistsError(inv.PaymentID.String())
		case constraintInvoiceNumber:
			return domain.NewDuplicateInvoiceNumberError(inv.InvoiceNumber)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewInvoiceNotFoundError(id.String())
	}
	return inv, err
}

// FindByIDForUpdate retrieves an invoice and locks the row
func (r *InvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`

	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewInvoiceNotFoundError(id.String())
	}
	return inv, err
}

func (r *InvoiceRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE payment_id = $1`

	inv, err := scanInvoice(r.q.QueryRow(ctx, query, paymentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

func (r *InvoiceRepository) ExistsByPaymentID(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE payment_id = $1)`, paymentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice for payment: %w", err)
	}
	return exists, nil
}

// UpdateInvoice persists status and the status dates, guarded by version.
func (r *InvoiceRepository) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	query := `
			UPDATE invoices SET status = $1, due_date = $2, sent_at = $3, paid_at = $4, cancelled_at = $5,
				version = version + 1
			WHERE id = $6 AND version = $7
	`

	cmdTag, err := r.q.Exec(ctx, query,
		inv.Status,
		inv.DueDate,
		inv.SentAt,
		inv.PaidAt,
		inv.CancelledAt,
		inv.ID,
		inv.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice record: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, inv.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check invoice existence: %w", err)
		}
		if !exists {
			return domain.NewInvoiceNotFoundError(inv.ID.String())
		}
		return domain.NewConcurrentModificationError("invoice", inv.ID.String())
	}

	inv.Version++
	return nil
}

func (r *InvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter, page domain.PageRequest) ([]*domain.Invoice, int64, error) {
	var w where
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.FromDate != nil {
		w.add("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		w.add("issue_date <= ?", *filter.ToDate)
	}

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	if total == 0 {
		return []*domain.Invoice{}, 0, nil
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + w.sql() +
		` ORDER BY issue_date DESC, invoice_number DESC` + w.limitOffset(page)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query invoices: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Invoice, error) {
		return scanInvoice(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, total, nil
}

func (r *InvoiceRepository) WithTx(ctx context.Context, fn func(ports.InvoiceRepository) error) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&InvoiceRepository{pool: r.pool, q: tx})
	})
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		inv    domain.Invoice
		amount string
	)
	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.PaymentID,
		&inv.UserID,
		&amount,
		&inv.Currency,
		&inv.Status,
		&inv.OrderID,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.SentAt,
		&inv.PaidAt,
		&inv.CancelledAt,
		&inv.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse invoice amount %q: %w", amount, err)
	}
	return &inv, nil
}
