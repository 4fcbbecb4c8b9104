package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// StockHandler serves the stock views and catalog lookups
type StockHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  log,
	}
}

// Mount registers the stock routes
func (h *StockHandler) Mount(r chi.Router) {
	r.Route("/stock", func(r chi.Router) {
		r.Get("/available/models", listView(h.service.AvailableByModel))
		r.Get("/available/models/pages", pagesView(h.service.AvailableByModelPages))
		r.Get("/available/brands", listView(h.service.AvailableByBrand))
		r.Get("/available/brands/pages", pagesView(h.service.AvailableByBrandPages))
		r.Get("/available/batches", listView(h.service.AvailableByBatch))
		r.Get("/available/batches/pages", pagesView(h.service.AvailableByBatchPages))

		r.Get("/value/models", listView(h.service.StockByModel))
		r.Get("/value/brands", listView(h.service.StockByBrand))
		r.Get("/value/batches", listView(h.service.StockByBatch))
		r.Get("/value/pages", h.ValuePages)

		r.Get("/history/models", listView(h.service.HistoryByModel))
		r.Get("/history/models/pages", pagesView(h.service.HistoryByModelPages))
		r.Get("/history/brands", listView(h.service.HistoryByBrand))
		r.Get("/history/brands/pages", pagesView(h.service.HistoryByBrandPages))
		r.Get("/history/batches", listView(h.service.HistoryByBatch))
		r.Get("/history/batches/pages", pagesView(h.service.HistoryByBatchPages))

		r.Get("/analysis", h.Analysis)
		r.Get("/drugs/{id}/stats", h.DrugStats)
		r.Get("/drugs/{id}/suppliers", h.SupplierPricing)
	})

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/drugs", h.SuggestDrugs)
		r.Get("/brands", h.SuggestBrands)
		r.Get("/suppliers", h.SearchSuppliers)
		r.Get("/concentrations", h.Concentrations)
	})
}

func listView[T any](fn func(context.Context, service.StockQuery) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := stockQuery(r)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		items, err := fn(r.Context(), q)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		httputil.JSON(w, http.StatusOK, items)
	}
}

func pagesView(fn func(context.Context, service.StockQuery) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := stockQuery(r)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		n, err := fn(r.Context(), q)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		httputil.JSON(w, http.StatusOK, pageCount{TotalPages: n})
	}
}

// ValuePages counts the pages of the valuation view named by ?selection=
func (h *StockHandler) ValuePages(w http.ResponseWriter, r *http.Request) {
	q, err := stockQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	n, err := h.service.StockPages(r.Context(), q, r.URL.Query().Get("selection"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pageCount{TotalPages: n})
}

// Analysis tallies stock by status over an optional date range
func (h *StockHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	rng, err := dateRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	tally, err := h.service.StockAnalysis(r.Context(), rng)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tally)
}

// DrugStats tallies every batch of one drug
func (h *StockHandler) DrugStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "drug")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	tally, err := h.service.DrugModelStats(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tally)
}

// SupplierPricing lists one drug's batches grouped by supplier
func (h *StockHandler) SupplierPricing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "drug")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	pricing, err := h.service.SupplierWisePricing(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pricing)
}

// SuggestDrugs completes a drug name
func (h *StockHandler) SuggestDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.service.SuggestDrugs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, drugs)
}

// SuggestBrands completes a brand name
func (h *StockHandler) SuggestBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.SuggestBrands(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, brands)
}

// SearchSuppliers finds suppliers by name
func (h *StockHandler) SearchSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.SearchSuppliers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, suppliers)
}

// Concentrations lists the unit concentrations used by a drug and type
func (h *StockHandler) Concentrations(w http.ResponseWriter, r *http.Request) {
	drugID := httputil.QueryInt64(r, "drug_id")
	drugType := domain.DrugType(r.URL.Query().Get("type"))
	if drugID <= 0 || drugType == "" {
		httputil.Error(w, errors.BadRequest("drug_id and type are required"))
		return
	}

	concentrations, err := h.service.Concentrations(r.Context(), drugID, drugType)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, concentrations)
}
