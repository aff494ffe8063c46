// Package domain defines the payment and invoice models and their lifecycles.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "PENDING"
	StatusApproved PaymentStatus = "APPROVED"
	StatusFailed   PaymentStatus = "FAILED"
	StatusCanceled PaymentStatus = "CANCELED"
)

var paymentStatuses = []PaymentStatus{StatusPending, StatusApproved, StatusFailed, StatusCanceled}

// ParsePaymentStatus accepts a status name in any letter case.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !slices.Contains(paymentStatuses, s) {
		return "", fmt.Errorf("unknown payment status %q", raw)
	}
	return s, nil
}

// PaymentMethod is the instrument the funds are drawn from.
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodDebitCard    PaymentMethod = "DEBIT_CARD"
	MethodPayPal       PaymentMethod = "PAYPAL"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

var paymentMethods = []PaymentMethod{MethodCreditCard, MethodDebitCard, MethodPayPal, MethodBankTransfer}

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	if !slices.Contains(paymentMethods, m) {
		return "", fmt.Errorf("unknown payment method %q", raw)
	}
	return m, nil
}

// Payment represents a request to move funds for a user, optionally tied to an order
type Payment struct {
	ID       uuid.UUID
	Amount   decimal.Decimal
	Currency string
	Method   PaymentMethod
	Status   PaymentStatus
	UserID   string
	OrderID  *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is bumped on every persisted update and guards against lost updates.
	Version int64
}

// NewPayment builds a PENDING payment from already validated input.
func NewPayment(amount decimal.Decimal, currency string, method PaymentMethod, userID string, orderID *string, now time.Time) *Payment {
	return &Payment{
		ID:        uuid.New(),
		Amount:    amount.Round(2),
		Currency:  strings.TrimSpace(currency),
		Method:    method,
		Status:    StatusPending,
		UserID:    userID,
		OrderID:   orderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo validates whether a payment can move from its current status to target.
//
// PENDING is the only state with outgoing transitions:
//   - Pending → Approved, Failed, Canceled
//
// Approved, Failed and Canceled are terminal.
func (p *Payment) CanTransitionTo(target PaymentStatus) error {
	if target == "" {
		return NewInvalidStatusTransitionError("Target status cannot be null")
	}

	if p.Status == target {
		return NewInvalidStatusTransitionError(
			fmt.Sprintf("Cannot transition from %s to %s (same status)", p.Status, target))
	}

	if p.IsTerminal() {
		return NewInvalidStatusTransitionError(fmt.Sprintf(
			"Cannot transition from terminal state %s to %s. Payments in %s status cannot be modified.",
			p.Status, target, p.Status))
	}

	if p.Status == StatusPending {
		switch target {
		case StatusApproved, StatusFailed, StatusCanceled:
			return nil
		}
		return NewInvalidStatusTransitionError(fmt.Sprintf(
			"Invalid transition from PENDING to %s. PENDING payments can only transition to APPROVED, FAILED, or CANCELED.",
			target))
	}

	return NewInvalidStatusTransitionError(fmt.Sprintf("Cannot transition from %s to %s", p.Status, target))
}

// TransitionTo applies a validated status change and refreshes UpdatedAt.
func (p *Payment) TransitionTo(target PaymentStatus, now time.Time) error {
	if err := p.CanTransitionTo(target); err != nil {
		return err
	}
	p.Status = target
	p.UpdatedAt = now
	return nil
}

func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusApproved, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}
