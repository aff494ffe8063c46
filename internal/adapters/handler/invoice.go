package handler

import (
	"fmt"
	"net/http"

	"github.com/DanielPopoola/ficmart-billing/internal/core/domain"
	"github.com/DanielPopoola/ficmart-billing/internal/core/service"
)

type CreateInvoiceRequest struct {
	PaymentID string `json:"paymentId" validate:"required,uuid" example:"0b6f9c8e-3c1f-4f8e-9b1a-2f6d9c1e7a55"`
}

// HandleCreateInvoice issues an invoice for an approved payment that has none.
// @Summary      Create an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request  body      CreateInvoiceRequest  true  "Payment to invoice"
// @Success      201      {object}  APIResponse
// @Failure      400      {object}  APIResponse
// @Failure      404      {object}  APIResponse
// @Failure      409      {object}  APIResponse  "Payment not approved or already invoiced"
// @Router       /invoices [post]
func (h *InvoiceHandler) HandleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, "paymentId must be a valid payment ID")
		return
	}

	paymentID, err := parseID(req.PaymentID, "payment")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}

	invoice, err := h.invoices.CreateInvoiceManually(r.Context(), paymentID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toInvoiceResponse(invoice))
}

// HandleGetInvoice
// @Summary      Get an invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  APIResponse
// @Failure      404  {object}  APIResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) HandleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"), "invoice")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}

	invoice, err := h.invoices.GetInvoiceByID(r.Context(), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

// HandleListInvoices lists invoices, or returns the single invoice of a
// payment when paymentId is given.
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        paymentId  query     string  false  "Return only the invoice of this payment"
// @Param        status     query     string  false  "CREATED, SENT, PAID or CANCELLED"
// @Param        userId     query     string  false  "User ID"
// @Param        fromDate   query     string  false  "Earliest issue date, YYYY-MM-DD"
// @Param        toDate     query     string  false  "Latest issue date, YYYY-MM-DD"
// @Param        page       query     int     false  "Zero-based page index"  default(0)
// @Param        size       query     int     false  "Page size, 1 to 100"    default(20)
// @Success      200        {object}  APIResponse
// @Failure      400        {object}  APIResponse
// @Failure      404        {object}  APIResponse
// @Router       /invoices [get]
func (h *InvoiceHandler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if raw := q.Get("paymentId"); raw != "" {
		h.getByPayment(w, r, raw)
		return
	}

	in := service.ListInvoicesInput{
		Status: q.Get("status"),
		UserID: q.Get("userId"),
	}

	var err error
	if in.Page, err = queryInt(q, "page"); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}
	if in.Size, err = queryInt(q, "size"); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}
	if in.FromDate, err = queryDate(q, "fromDate"); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}
	if in.ToDate, err = queryDate(q, "toDate"); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}

	result, err := h.invoices.ListInvoices(r.Context(), in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPageResponse(result, toInvoiceResponse))
}

func (h *InvoiceHandler) getByPayment(w http.ResponseWriter, r *http.Request, raw string) {
	paymentID, err := parseID(raw, "payment")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}

	invoice, err := h.invoices.GetInvoiceByPaymentID(r.Context(), paymentID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}

// HandleUpdateInvoiceStatus
// @Summary      Update invoice status
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Invoice ID"
// @Param        request  body      UpdateStatusRequest  true  "Target status"
// @Success      200      {object}  APIResponse
// @Failure      400      {object}  APIResponse
// @Failure      404      {object}  APIResponse
// @Failure      409      {object}  APIResponse
// @Router       /invoices/{id} [patch]
func (h *InvoiceHandler) HandleUpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"), "invoice")
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}

	var req UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, "Status is required")
		return
	}

	target, err := domain.ParseInvoiceStatus(req.Status)
	if err != nil {
		badRequest(w, domain.ErrCodeInvalidInvoiceRequest, fmt.Sprintf("Invalid status value: %s", req.Status))
		return
	}

	invoice, err := h.invoices.UpdateInvoiceStatus(r.Context(), id, target)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}
