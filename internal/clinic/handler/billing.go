package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/export"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// BillingHandler handles bill calculation and prescription completion
type BillingHandler struct {
	service *service.BillingService
	clinic  string
	logger  *logger.Logger
}

// NewBillingHandler creates a new billing handler. clinic heads printed bills.
func NewBillingHandler(svc *service.BillingService, clinic string, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		service: svc,
		clinic:  clinic,
		logger:  log,
	}
}

// Mount registers the billing routes
func (h *BillingHandler) Mount(r chi.Router) {
	r.Route("/prescriptions/{id}", func(r chi.Router) {
		r.Post("/bill", h.Calculate)
		r.Get("/bill", h.Get)
		r.Get("/bill/pdf", h.PDF)
		r.Post("/complete", h.Complete)
	})
}

// Calculate links the prescription's issues to batches and prices the bill
func (h *BillingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "prescription")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req domain.CalculateBillRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.PrescriptionID = id

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	bill, err := h.service.CalculateBill(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Bill calculated", bill)
}

// Get returns the stored bill of a prescription
func (h *BillingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "prescription")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	bill, err := h.service.GetBill(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bill)
}

// PDF serves the stored bill as a printable receipt
func (h *BillingHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "prescription")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	bill, err := h.service.GetBill(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	pdfBytes, err := export.BillPDF(bill, h.clinic, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Int64("prescription_id", id).Msg("failed to render bill PDF")
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("bill-%d.pdf", bill.BillID)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.Write(pdfBytes)
}

// Complete draws the billed quantities from stock and closes the prescription
func (h *BillingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "prescription")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.CompletePrescription(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Prescription completed", nil)
}
