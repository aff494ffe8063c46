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

const paymentColumns = `id, amount::text, currency, method, status, user_id, order_id, created_at, updated_at, version`

type PaymentRepository struct {
	pool *pgxpool.Pool
	q    Executor
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{
		pool: db.Pool,
		q:    db.Pool,
	}
}

// CreatePayment saves a new payment to the database
func (r *PaymentRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (
				id, amount, currency, method, status, user_id, order_id, created_at, updated_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.Exec(ctx, query,
		p.ID,
		p.Amount.StringFixed(2),
		p.Currency,
		p.Method,
		p.Status,
		p.UserID,
		p.OrderID,
		p.CreatedAt,
		p.UpdatedAt,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FindByID retrieves a payment by its unique system ID
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewPaymentNotFoundError(id.String())
	}
	return p, err
}

// FindByIDForUpdate retrieves a payment by its unique system ID and locks the row
func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`

	p, err := scanPayment(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewPaymentNotFoundError(id.String())
	}
	return p, err
}

func (r *PaymentRepository) FindPendingByOrderAndUser(ctx context.Context, orderID, userID string) (*domain.Payment, error) {
	query := `
			SELECT ` + paymentColumns + `
			FROM payments
			WHERE order_id = $1 AND user_id = $2 AND status = $3
			ORDER BY created_at ASC
			LIMIT 1
			`

	p, err := scanPayment(r.q.QueryRow(ctx, query, orderID, userID, domain.StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// UpdatePayment persists status and updated_at, guarded by the version the
// payment was read at.
func (r *PaymentRepository) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	query := `
			UPDATE payments SET status = $1, updated_at = $2, version = version + 1
			WHERE id = $3 AND version = $4
	`

	cmdTag, err := r.q.Exec(ctx, query, p.Status, p.UpdatedAt, p.ID, p.Version)
	if err != nil {
		return fmt.Errorf("failed to update payment record: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check payment existence: %w", err)
		}
		if !exists {
			return domain.NewPaymentNotFoundError(p.ID.String())
		}
		return domain.NewConcurrentModificationError("payment", p.ID.String())
	}

	p.Version++
	return nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter, page domain.PageRequest) ([]*domain.Payment, int64, error) {
	var w where
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.OrderID != "" {
		w.add("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	if total == 0 {
		return []*domain.Payment{}, 0, nil
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + w.sql() +
		` ORDER BY created_at DESC, id DESC` + w.limitOffset(page)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query payments: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payment, error) {
		return scanPayment(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, total, nil
}

func (r *PaymentRepository) FindApprovedWithoutInvoice(ctx context.Context, limit int) ([]*domain.Payment, error) {
	query := `
        SELECT ` + paymentColumns + `
        FROM payments p
        WHERE p.status = $1
            AND NOT EXISTS (SELECT 1 FROM invoices i WHERE i.payment_id = p.id)
        ORDER BY p.updated_at ASC
        LIMIT $2
    `

	rows, err := r.q.Query(ctx, query, domain.StatusApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("query approved payments without invoice: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payment, error) {
		return scanPayment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan approved payments: %w", err)
	}
	return results, nil
}

// WithTx executes a function within a database transaction
func (r *PaymentRepository) WithTx(ctx context.Context, fn func(ports.PaymentRepository) error) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&PaymentRepository{
			pool: r.pool,
			q:    tx, // Switch the executor to the transaction
		})
	})
}

// scanPayment scans a pgx.Row into a domain.Payment. pgx.ErrNoRows is returned as is.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		amount string
	)
	err := row.Scan(
		&p.ID,
		&amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&p.UserID,
		&p.OrderID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse payment amount %q: %w", amount, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
