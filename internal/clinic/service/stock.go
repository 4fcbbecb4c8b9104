package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// Suggestion limits of the intake form
const (
	MinSuggestionQuery = 2
	NameSuggestLimit   = 8
	SupplierLimit      = 5
)

// StockQuery is what a stock view is asked for. Status applies to the
// historical views only, where "" and "ALL" mean every status but AVAILABLE.
type StockQuery struct {
	Query   string
	Page    int
	Sort    domain.SortOption
	DrugID  int64
	BrandID int64
	Status  string
	Range   domain.DateRange
}

// StockService serves the read-only stock views
type StockService struct {
	batches *repository.BatchRepository
	catalog *repository.CatalogRepository
	buffers *repository.BufferRepository
	logger  *logger.Logger
}

// NewStockService creates a new stock service
func NewStockService(db *database.DB, log *logger.Logger) *StockService {
	return &StockService{
		batches: repository.NewBatchRepository(db),
		catalog: repository.NewCatalogRepository(db),
		buffers: repository.NewBufferRepository(db),
		logger:  log.WithComponent("stock"),
	}
}

func (s *StockService) rows(ctx context.Context, filter domain.StockFilter) ([]domain.StockRow, error) {
	rows, err := s.batches.StockRows(ctx, filter)
	if err != nil {
		return nil, surface(s.logger, "StockRows", err, "Failed to load stock")
	}
	return rows, nil
}

func available(q StockQuery, on domain.SearchField) domain.StockFilter {
	return domain.StockFilter{
		Query:    q.Query,
		SearchOn: on,
		Statuses: []domain.BatchStatus{domain.BatchAvailable},
		DrugID:   q.DrugID,
		BrandID:  q.BrandID,
		Range:    q.Range,
	}
}

func valuation(q StockQuery, on domain.SearchField) domain.StockFilter {
	return domain.StockFilter{Query: q.Query, SearchOn: on, Range: q.Range}
}

func historical(q StockQuery, on domain.SearchField) (domain.StockFilter, error) {
	f := domain.StockFilter{Query: q.Query, SearchOn: on, DrugID: q.DrugID, BrandID: q.BrandID, Range: q.Range}
	status := strings.ToUpper(strings.TrimSpace(q.Status))
	if status == "" || status == "ALL" {
		f.ExcludeAvailable = true
		return f, nil
	}
	if !domain.BatchStatus(status).Valid() {
		return f, errors.BadRequest(fmt.Sprintf("Unknown batch status %q", q.Status))
	}
	f.Statuses = []domain.BatchStatus{domain.BatchStatus(status)}
	return f, nil
}

// sortedModels returns every model summary for filter, sorted
func (s *StockService) sortedModels(ctx context.Context, filter domain.StockFilter, sortBy domain.SortOption) ([]domain.ModelSummary, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := domain.GroupByModel(rows)
	return items, domain.SortModels(items, sortBy)
}

func (s *StockService) sortedBrands(ctx context.Context, filter domain.StockFilter, sortBy domain.SortOption) ([]domain.BrandSummary, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := domain.GroupByBrand(rows)
	return items, domain.SortBrands(items, sortBy)
}

func (s *StockService) sortedBatches(ctx context.Context, filter domain.StockFilter, sortBy domain.SortOption) ([]domain.BatchSummary, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := domain.Batches(rows)
	return items, domain.SortBatches(items, sortBy)
}

func (s *StockService) sortedValues(ctx context.Context, filter domain.StockFilter, group func([]domain.StockRow) []domain.StockItem, sortBy domain.SortOption) ([]domain.StockItem, error) {
	rows, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := group(rows)
	return items, domain.SortStockItems(items, sortBy)
}

func pageOf[T any](items []T, err error, page, size int) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return domain.Paginate(items, page, size), nil
}

func pagesOf[T any](items []T, err error, size int) (int, error) {
	if err != nil {
		return 0, err
	}
	return domain.TotalPages(len(items), size), nil
}

// AvailableByModel lists drugs with AVAILABLE stock, 9 per page
func (s *StockService) AvailableByModel(ctx context.Context, q StockQuery) ([]domain.ModelSummary, error) {
	items, err := s.sortedModels(ctx, available(q, domain.SearchDrug), q.Sort)
	return pageOf(items, err, q.Page, domain.AvailableModelPageSize)
}

// AvailableByModelPages is the page count of AvailableByModel
func (s *StockService) AvailableByModelPages(ctx context.Context, q StockQuery) (int, error) {
	items, err := s.sortedModels(ctx, available(q, domain.SearchDrug), "")
	return pagesOf(items, err, domain.AvailableModelPageSize)
}

// AvailableByBrand lists brands with AVAILABLE stock, 9 per page
func (s *StockService) AvailableByBrand(ctx context.Context, q StockQuery) ([]domain.BrandSummary, error) {
	items, err := s.sortedBrands(ctx, available(q, domain.SearchBrand), q.Sort)
	return pageOf(items, err, q.Page, domain.AvailableBrandPageSize)
}

// AvailableByBrandPages is the page count of AvailableByBrand
func (s *StockService) AvailableByBrandPages(ctx context.Context, q StockQuery) (int, error) {
	items, err := s.sortedBrands(ctx, available(q, domain.SearchBrand), "")
	return pagesOf(items, err, domain.AvailableBrandPageSize)
}

// AvailableByBatch lists AVAILABLE batches, 6 per page. The default sort is expiryDate.
func (s *StockService) AvailableByBatch(ctx context.Context, q StockQuery) ([]domain.BatchSummary, error) {
	sortBy := q.Sort
	if sortBy == "" {
		sortBy = domain.SortExpiryDate
	}
	items, err := s.sortedBatches(ctx, available(q, domain.SearchBatch), sortBy)
	return pageOf(items, err, q.Page, domain.AvailableBatchPageSize)
}

// AvailableByBatchPages is the page count of AvailableByBatch
func (s *StockService) AvailableByBatchPages(ctx context.Context, q StockQuery) (int, error) {
	items, err := s.sortedBatches(ctx, available(q, domain.SearchBatch), "")
	return pagesOf(items, err, domain.AvailableBatchPageSize)
}

// StockByModel values stock per drug, 10 per page
func (s *StockService) StockByModel(ctx context.Context, q StockQuery) ([]domain.StockItem, error) {
	items, err := s.sortedValues(ctx, valuation(q, domain.SearchDrug), domain.ValueByModel, q.Sort)
	return pageOf(items, err, q.Page, domain.StockPageSize)
}

// StockByBrand values stock per brand, 10 per page
func (s *StockService) StockByBrand(ctx context.Context, q StockQuery) ([]domain.StockItem, error) {
	items, err := s.sortedValues(ctx, valuation(q, domain.SearchBrand), domain.ValueByBrand, q.Sort)
	return pageOf(items, err, q.Page, domain.StockPageSize)
}

// StockByBatch values each batch, 10 per page
func (s *StockService) StockByBatch(ctx context.Context, q StockQuery) ([]domain.StockItem, error) {
	items, err := s.sortedValues(ctx, valuation(q, domain.SearchAny), domain.ValueByBatch, q.Sort)
	return pageOf(items, err, q.Page, domain.StockPageSize)
}

// StockPages is the page count of the valuation view named by selection:
// model, brand or batch
func (s *StockService) StockPages(ctx context.Context, q StockQuery, selection string) (int, error) {
	var (
		items []domain.StockItem
		err   error
	)
	switch selection {
	case "model":
		items, err = s.sortedValues(ctx, valuation(q, domain.SearchDrug), domain.ValueByModel, "")
	case "brand":
		items, err = s.sortedValues(ctx, valuation(q, domain.SearchBrand), domain.ValueByBrand, "")
	case "batch":
		items, err = s.sortedValues(ctx, valuation(q, domain.SearchAny), domain.ValueByBatch, "")
	default:
		return 0, errors.BadRequest(fmt.Sprintf("Unknown stock selection %q", selection))
	}
	return pagesOf(items, err, domain.StockPageSize)
}

// HistoryByModel lists drugs with batches no longer AVAILABLE, 15 per page
func (s *StockService) HistoryByModel(ctx context.Context, q StockQuery) ([]domain.ModelSummary, error) {
	filter, err := historical(q, domain.SearchDrug)
	if err != nil {
		return nil, err
	}
	items, err := s.sortedModels(ctx, filter, q.Sort)
	return pageOf(items, err, q.Page, domain.HistoryPageSize)
}

// HistoryByModelPages is the page count of HistoryByModel
func (s *StockService) HistoryByModelPages(ctx context.Context, q StockQuery) (int, error) {
	filter, err := historical(q, domain.SearchDrug)
	if err != nil {
		return 0, err
	}
	items, err := s.sortedModels(ctx, filter, "")
	return pagesOf(items, err, domain.HistoryPageSize)
}

// HistoryByBrand lists brands with batches no longer AVAILABLE, 15 per page
func (s *StockService) HistoryByBrand(ctx context.Context, q StockQuery) ([]domain.BrandSummary, error) {
	filter, err := historical(q, domain.SearchBrand)
	if err != nil {
		return nil, err
	}
	items, err := s.sortedBrands(ctx, filter, q.Sort)
	return pageOf(items, err, q.Page, domain.HistoryPageSize)
}

// HistoryByBrandPages is the page count of HistoryByBrand
func (s *StockService) HistoryByBrandPages(ctx context.Context, q StockQuery) (int, error) {
	filter, err := historical(q, domain.SearchBrand)
	if err != nil {
		return 0, err
	}
	items, err := s.sortedBrands(ctx, filter, "")
	return pagesOf(items, err, domain.HistoryPageSize)
}

// HistoryByBatch lists batches no longer AVAILABLE, 15 per page. The
// default sort is expiryDate.
func (s *StockService) HistoryByBatch(ctx context.Context, q StockQuery) ([]domain.BatchSummary, error) {
	filter, err := historical(q, domain.SearchBatch)
	if err != nil {
		return nil, err
	}
	sortBy := q.Sort
	if sortBy == "" {
		sortBy = domain.SortExpiryDate
	}
	items, err := s.sortedBatches(ctx, filter, sortBy)
	return pageOf(items, err, q.Page, domain.HistoryPageSize)
}

// HistoryByBatchPages is the page count of HistoryByBatch
func (s *StockService) HistoryByBatchPages(ctx context.Context, q StockQuery) (int, error) {
	filter, err := historical(q, domain.SearchBatch)
	if err != nil {
		return 0, err
	}
	items, err := s.sortedBatches(ctx, filter, "")
	return pagesOf(items, err, domain.HistoryPageSize)
}

// StockAnalysis tallies every batch stocked within r by what became of it
func (s *StockService) StockAnalysis(ctx context.Context, r domain.DateRange) (*domain.Tally, error) {
	rows, err := s.rows(ctx, domain.StockFilter{Range: r})
	if err != nil {
		return nil, err
	}
	return domain.TallyRows(rows), nil
}

// DrugModelStats tallies every batch of one drug
func (s *StockService) DrugModelStats(ctx context.Context, drugID int64) (*domain.Tally, error) {
	if drugID <= 0 {
		return nil, errors.BadRequest("Invalid drug ID")
	}
	rows, err := s.rows(ctx, domain.StockFilter{DrugID: drugID})
	if err != nil {
		return nil, err
	}
	return domain.TallyRows(rows), nil
}

// SupplierWisePricing groups a drug's batches by supplier, cheapest retail first
func (s *StockService) SupplierWisePricing(ctx context.Context, drugID int64) ([]domain.SupplierPricing, error) {
	if drugID <= 0 {
		return nil, errors.BadRequest("Invalid drug ID")
	}
	rows, err := s.rows(ctx, domain.StockFilter{DrugID: drugID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RetailPrice.LessThan(rows[j].RetailPrice) })
	return domain.GroupBySupplier(rows), nil
}

// SuggestDrugs offers up to 8 drugs whose name starts with query, each with
// its configured buffer levels. Queries shorter than 2 characters match nothing.
func (s *StockService) SuggestDrugs(ctx context.Context, query string) ([]domain.DrugSuggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSuggestionQuery {
		return []domain.DrugSuggestion{}, nil
	}
	drugs, err := s.catalog.SearchDrugs(ctx, query, NameSuggestLimit)
	if err != nil {
		return nil, surface(s.logger, "SuggestDrugs", err, "Failed to search drugs")
	}
	if len(drugs) == 0 {
		return drugs, nil
	}

	ids := make([]int64, len(drugs))
	for i, d := range drugs {
		ids[i] = d.ID
	}
	levels, err := s.buffers.LevelsForDrugs(ctx, ids)
	if err != nil {
		return nil, surface(s.logger, "SuggestDrugs", err, "Failed to search drugs")
	}
	byDrug := make(map[int64][]domain.BufferLevel)
	for _, l := range levels {
		byDrug[l.DrugID] = append(byDrug[l.DrugID], l)
	}
	for i := range drugs {
		drugs[i].BufferLevels = byDrug[drugs[i].ID]
	}
	return drugs, nil
}

// SuggestBrands offers up to 8 brands whose name starts with query
func (s *StockService) SuggestBrands(ctx context.Context, query string) ([]domain.BrandSuggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSuggestionQuery {
		return []domain.BrandSuggestion{}, nil
	}
	brands, err := s.catalog.SearchBrands(ctx, query, NameSuggestLimit)
	if err != nil {
		return nil, surface(s.logger, "SuggestBrands", err, "Failed to search brands")
	}
	return brands, nil
}

// SearchSuppliers returns up to 5 suppliers whose name contains query
func (s *StockService) SearchSuppliers(ctx context.Context, query string) ([]domain.Supplier, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Supplier{}, nil
	}
	suppliers, err := s.catalog.SearchSuppliers(ctx, query, SupplierLimit)
	if err != nil {
		return nil, surface(s.logger, "SearchSuppliers", err, "Failed to search suppliers")
	}
	return suppliers, nil
}

// Concentrations lists the concentrations a drug has been stocked in for a type
func (s *StockService) Concentrations(ctx context.Context, drugID int64, drugType domain.DrugType) ([]domain.Concentration, error) {
	out, err := s.catalog.Concentrations(ctx, drugID, drugType)
	if err != nil {
		return nil, surface(s.logger, "Concentrations", err, "Failed to load concentrations")
	}
	return out, nil
}
