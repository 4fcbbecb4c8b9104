package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// InventoryHandler handles batch intake, status changes and buffer levels
type InventoryHandler struct {
	inventory *service.InventoryService
	buffers   *service.BufferService
	logger    *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventory *service.InventoryService, buffers *service.BufferService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		buffers:   buffers,
		logger:    log,
	}
}

// Mount registers the inventory routes
func (h *InventoryHandler) Mount(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Post("/batches", h.ReceiveStock)
		r.Post("/batches/expire", h.ExpireBatches)
		r.Get("/batches/suggestions", h.SuggestBatches)
		r.Get("/batches/{id}", h.GetBatch)
		r.Get("/batches/{id}/patients", h.IssuedPatients)
		r.Put("/batches/{id}/status", h.ChangeStatus)

		r.Get("/buffers", h.ListBuffers)
		r.Put("/buffers", h.UpdateBuffer)
	})
}

// ReceiveStock records a delivered batch
func (h *InventoryHandler) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	var req domain.ReceiveStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.inventory.ReceiveStock(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, "Item added successfully", batch)
}

// ChangeStatus applies a status action to a batch
func (h *InventoryHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "batch")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req domain.ChangeStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.BatchID = id

	batch, err := h.inventory.ChangeBatchStatus(r.Context(), &req, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Batch status updated", batch)
}

// ExpireBatches marks every AVAILABLE batch past its expiry as EXPIRED
func (h *InventoryHandler) ExpireBatches(w http.ResponseWriter, r *http.Request) {
	n, err := h.inventory.ExpireBatches(r.Context(), time.Now())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int{"expired": n})
}

// GetBatch returns a batch with its catalog names
func (h *InventoryHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "batch")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.inventory.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// IssuedPatients lists who received medicine from a batch
func (h *InventoryHandler) IssuedPatients(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "batch")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	patients, err := h.inventory.IssuedPatients(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, patients)
}

// SuggestBatches lists batches to dispense for ?drug_id=&brand_id=
func (h *InventoryHandler) SuggestBatches(w http.ResponseWriter, r *http.Request) {
	drugID, brandID := httputil.QueryInt64(r, "drug_id"), httputil.QueryInt64(r, "brand_id")
	if drugID <= 0 || brandID <= 0 {
		httputil.Error(w, errors.BadRequest("drug_id and brand_id are required"))
		return
	}

	suggestions, err := h.inventory.SuggestBatches(r.Context(), drugID, brandID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, suggestions)
}

// ListBuffers ranks stock groups against their buffer levels
func (h *InventoryHandler) ListBuffers(w http.ResponseWriter, r *http.Request) {
	mode := domain.BufferMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.BufferModeBuffered
	}

	statuses, err := h.buffers.List(r.Context(), r.URL.Query().Get("q"), mode)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, statuses)
}

// UpdateBuffer sets the buffer level of a stock group
func (h *InventoryHandler) UpdateBuffer(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateBufferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	level, err := h.buffers.UpdateBufferLevel(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Buffer level updated", level)
}
