package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers that need to decide how to
// surface it (client mistake, missing record or business conflict).
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodePaymentNotFound         = "PAYMENT_NOT_FOUND"
	ErrCodeInvoiceNotFound         = "INVOICE_NOT_FOUND"
	ErrCodeInvalidPaymentRequest   = "INVALID_PAYMENT_REQUEST"
	ErrCodeInvalidInvoiceRequest   = "INVALID_INVOICE_REQUEST"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeConcurrentModification  = "CONCURRENT_MODIFICATION"
	ErrCodeDuplicateInvoiceNumber  = "DUPLICATE_INVOICE_NUMBER"
)

func NewPaymentNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Payment not found with ID: %s", id),
	}
}

func NewInvoiceNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvoiceNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Invoice not found with ID: %s", id),
	}
}

func NewInvoiceForPaymentNotFoundError(paymentID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvoiceNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Invoice not found for payment ID: %s", paymentID),
	}
}

// NewInvalidPaymentRequestError reports malformed payment input.
func NewInvalidPaymentRequestError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidPaymentRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewInvalidInvoiceInputError reports malformed invoice listing input.
func NewInvalidInvoiceInputError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidInvoiceRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewInvoiceConflictError reports an invoice request that clashes with the
// current state of the payment or its existing invoice.
func NewInvoiceConflictError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidInvoiceRequest,
		Kind:    KindConflict,
		Message: message,
	}
}

func NewInvoiceAlreadyExistsError(paymentID string) *DomainError {
	return NewInvoiceConflictError(fmt.Sprintf("Invoice already exists for payment ID: %s", paymentID))
}

func NewInvalidStatusTransitionError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidStatusTransition,
		Kind:    KindConflict,
		Message: message,
	}
}

func NewConcurrentModificationError(entity, id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConcurrentModification,
		Kind:    KindConflict,
		Message: fmt.Sprintf("%s %s was modified concurrently, reload and retry", entity, id),
	}
}

func NewDuplicateInvoiceNumberError(number string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateInvoiceNumber,
		Kind:    KindConflict,
		Message: fmt.Sprintf("invoice number %s already in use", number),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindUnknown
}
