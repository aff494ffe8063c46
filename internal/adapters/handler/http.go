package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/service"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, in service.CreatePaymentInput) (*domain.Payment, error)
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	ListPayments(ctx context.Context, in service.ListPaymentsInput) (domain.Page[*domain.Payment], error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, target domain.PaymentStatus) (*domain.Payment, error)
}

type InvoiceService interface {
	CreateInvoiceManually(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error)
	GetInvoiceByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetInvoiceByPaymentID(ctx context.Context, paymentID uuid.UUID) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, in service.ListInvoicesInput) (domain.Page[*domain.Invoice], error)
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, target domain.InvoiceStatus) (*domain.Invoice, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PaymentHandler struct {
	payments PaymentService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPaymentHandler(payments PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments", h.HandleCreatePayment)
	mux.HandleFunc("GET /payments", h.HandleListPayments)
	mux.HandleFunc("GET /payments/{id}", h.HandleGetPayment)
	mux.HandleFunc("PATCH /payments/{id}", h.HandleUpdatePaymentStatus)
}

type InvoiceHandler struct {
	invoices InvoiceService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewInvoiceHandler(invoices InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *InvoiceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /invoices", h.HandleCreateInvoice)
	mux.HandleFunc("GET /invoices", h.HandleListInvoices)
	mux.HandleFunc("GET /invoices/{id}", h.HandleGetInvoice)
	mux.HandleFunc("PATCH /invoices/{id}", h.HandleUpdateInvoiceStatus)
}

// RegisterHealth mounts GET /healthz, answering 503 while db is unreachable.
func RegisterHealth(mux *http.ServeMux, db Pinger) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, &APIError{
				Code:    "UNAVAILABLE",
				Message: "database unreachable",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
