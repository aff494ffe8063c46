package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/service"
	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	Amount   decimal.Decimal `json:"amount" example:"99.99"`
	Currency string          `json:"currency" validate:"max=10" example:"USD"`
	Method   string          `json:"method" example:"CREDIT_CARD"`
	UserID   string          `json:"userId" validate:"max=255" example:"user-123"`
	OrderID  *string         `json:"orderId" validate:"omitempty,max=255" example:"order-456"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required" example:"APPROVED"`
}

// HandleCreatePayment creates a payment, or returns the caller's pending
// payment for the same order.
// @Summary      Create a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      CreatePaymentRequest  true  "Payment details"
// @Success      201      {object}  APIResponse
// @Failure      400      {object}  APIResponse
// @Router       /payments [post]
func (h *PaymentHandler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, err.Error())
		return
	}

	if err := h.validate.Struct(req); err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, err.Error())
		return
	}

	var method domain.PaymentMethod
	if strings.TrimSpace(req.Method) != "" {
		m, err := domain.ParsePaymentMethod(req.Method)
		if err != nil {
			badRequest(w, domain.ErrCodeInvalidPaymentRequest, fmt.Sprintf("Invalid payment method: %s", req.Method))
			return
		}
		method = m
	}

	payment, err := h.payments.CreatePayment(r.Context(), service.CreatePaymentInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Method:   method,
		UserID:   req.UserID,
		OrderID:  req.OrderID,
	})
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

// HandleGetPayment
// @Summary      Get a payment by ID
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /payments/{id} [get]
func (h *PaymentHandler) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"), "payment")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, err.Error())
		return
	}

	payment, err := h.payments.GetPaymentByID(r.Context(), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPaymentResponse(payment))
}

// HandleListPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        status   query     string  false  "PENDING, APPROVED, FAILED or CANCELED"
// @Param        userId   query     string  false  "User ID"
// @Param        orderId  query     string  false  "Order ID"
// @Param        page     query     int     false  "Zero-based page index"  default(0)
// @Param        size     query     int     false  "Page size, 1 to 100"    default(20)
// @Success      200      {object}  APIResponse
// @Failure      400      {object}  APIResponse
// @Router       /payments [get]
func (h *PaymentHandler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(q, "page")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, err.Error())
		return
	}
	size, err := queryInt(q, "size")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, err.Error())
		return
	}

	result, err := h.payments.ListPayments(r.Context(), service.ListPaymentsInput{
		Status:  q.Get("status"),
		UserID:  q.Get("userId"),
		OrderID: q.Get("orderId"),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPageResponse(result, toPaymentResponse))
}

// HandleUpdatePaymentStatus moves a payment through its lifecycle.
// Approving a payment also issues its invoice.
// @Summary      Update payment status
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Payment ID"
// @Param        request  body      UpdateStatusRequest  true  "Target status"
// @Success      200      {object}  APIResponse
// @Failure      400      {object}  APIResponse
// @Failure      404      {object}  APIResponse
// @Failure      409      {object}  APIResponse
// @Router       /payments/{id} [patch]
func (h *PaymentHandler) HandleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"), "payment")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, err.Error())
		return
	}

	var req UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, "Status is required")
		return
	}

	target, err := domain.ParsePaymentStatus(req.Status)
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidPaymentRequest, fmt.Sprintf("Invalid status value: %s", req.Status))
		return
	}

	payment, err := h.payments.UpdatePaymentStatus(r.Context(), id, target)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPaymentResponse(payment))
}
