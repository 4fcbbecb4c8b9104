package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/httputil"
)

const dateLayout = "2006-01-02"

// pageCount is the body of every TotalPages endpoint
type pageCount struct {
	TotalPages int `json:"total_pages"`
}

func pathID(r *http.Request, resource string) (int64, error) {
	return httputil.ParseID(chi.URLParam(r, "id"), resource)
}

func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errors.BadRequest("Invalid " + key + " date, expected YYYY-MM-DD")
	}
	return &t, nil
}

func dateRange(r *http.Request) (domain.DateRange, error) {
	start, err := queryDate(r, "from")
	if err != nil {
		return domain.DateRange{}, err
	}
	end, err := queryDate(r, "to")
	if err != nil {
		return domain.DateRange{}, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return domain.DateRange{}, errors.BadRequest("The end date is before the start date")
	}
	return domain.DateRange{Start: start, End: end}, nil
}

// stockQuery reads q, page, sort, drug_id, brand_id, status, from and to
func stockQuery(r *http.Request) (service.StockQuery, error) {
	rng, err := dateRange(r)
	if err != nil {
		return service.StockQuery{}, err
	}
	values := r.URL.Query()
	return service.StockQuery{
		Query:   values.Get("q"),
		Page:    httputil.QueryInt(r, "page", 1),
		Sort:    domain.SortOption(values.Get("sort")),
		DrugID:  httputil.QueryInt64(r, "drug_id"),
		BrandID: httputil.QueryInt64(r, "brand_id"),
		Status:  values.Get("status"),
		Range:   rng,
	}, nil
}
