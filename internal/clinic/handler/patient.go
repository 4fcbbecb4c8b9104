package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// PatientHandler handles patient endpoints
type PatientHandler struct {
	service *service.PatientService
	logger  *logger.Logger
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(svc *service.PatientService, log *logger.Logger) *PatientHandler {
	return &PatientHandler{
		service: svc,
		logger:  log,
	}
}

// Mount registers the patient routes
func (h *PatientHandler) Mount(r chi.Router) {
	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.Search)
		r.Get("/pages", h.SearchPages)
		r.Post("/", h.Add)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
	})
}

// Add registers a patient
func (h *PatientHandler) Add(w http.ResponseWriter, r *http.Request) {
	var in domain.PatientInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.Error(w, err)
		return
	}

	patient, err := h.service.Add(r.Context(), in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, "Patient added successfully", patient)
}

// Update edits a patient
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patient")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var in domain.PatientInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.Error(w, err)
		return
	}

	patient, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Patient updated successfully", patient)
}

// Get gets a patient by ID
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patient")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	patient, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, patient)
}

// Search lists patients matching ?field=&q=&page=
func (h *PatientHandler) Search(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	patients, err := h.service.Search(r.Context(), values.Get("field"), values.Get("q"), httputil.QueryInt(r, "page", 1))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, patients)
}

// SearchPages counts the pages of Search
func (h *PatientHandler) SearchPages(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	n, err := h.service.SearchPages(r.Context(), values.Get("field"), values.Get("q"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pageCount{TotalPages: n})
}
