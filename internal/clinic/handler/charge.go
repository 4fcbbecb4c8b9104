package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// ChargeHandler handles the fee table
type ChargeHandler struct {
	service *service.ChargeService
	logger  *logger.Logger
}

// NewChargeHandler creates a new charge handler
func NewChargeHandler(svc *service.ChargeService, log *logger.Logger) *ChargeHandler {
	return &ChargeHandler{
		service: svc,
		logger:  log,
	}
}

// Mount registers the charge routes
func (h *ChargeHandler) Mount(r chi.Router) {
	r.Route("/charges", func(r chi.Router) {
		r.Get("/", h.List)
		r.Put("/", h.BulkUpdate)
		r.Delete("/{id}", h.Delete)
	})
}

// List lists every charge
func (h *ChargeHandler) List(w http.ResponseWriter, r *http.Request) {
	charges, err := h.service.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, charges)
}

// BulkUpdate saves the whole fee form at once
func (h *ChargeHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var inputs []domain.ChargeInput
	if err := httputil.DecodeJSON(r, &inputs); err != nil {
		httputil.Error(w, err)
		return
	}

	charges, err := h.service.BulkUpdate(r.Context(), inputs)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Charges updated successfully", charges)
}

// Delete deletes a charge
func (h *ChargeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "charge")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Charge deleted", nil)
}
