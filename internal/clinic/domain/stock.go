package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Page sizes of the stock views
const (
	AvailableModelPageSize = 9
	AvailableBrandPageSize = 9
	AvailableBatchPageSize = 6
	StockPageSize          = 10
	HistoryPageSize        = 15
	PatientPageSize        = 10
)

// SortOption is the stock view sort vocabulary
type SortOption string

const (
	SortAlphabetically SortOption = "alphabetically"
	SortHighest        SortOption = "highest"
	SortLowest         SortOption = "lowest"
	SortUnitHighest    SortOption = "unit-highest"
	SortUnitLowest     SortOption = "unit-lowest"
	SortExpiryDate     SortOption = "expiryDate"
	SortNewlyAdded     SortOption = "newlyAdded"
)

func unsupportedSort(sortBy SortOption) error {
	return errors.BadRequest(fmt.Sprintf("Unsupported sort %q for this view", sortBy))
}

// StockRow is one batch joined with the names of its drug, brand and supplier
type StockRow struct {
	BatchID        int64           `db:"id"`
	Number         string          `db:"number"`
	DrugID         int64           `db:"drug_id"`
	DrugName       string          `db:"drug_name"`
	BrandID        int64           `db:"drug_brand_id"`
	BrandName      string          `db:"brand_name"`
	SupplierID     int64           `db:"supplier_id"`
	SupplierName   string          `db:"supplier_name"`
	Concentration  float64         `db:"concentration"`
	Type           DrugType        `db:"type"`
	FullAmount     float64         `db:"full_amount"`
	Remaining      float64         `db:"remaining_quantity"`
	Expiry         time.Time       `db:"expiry"`
	StockDate      time.Time       `db:"stock_date"`
	RetailPrice    decimal.Decimal `db:"retail_price"`
	WholesalePrice decimal.Decimal `db:"wholesale_price"`
	Status         BatchStatus     `db:"status"`
}

// Value is remaining quantity at retail
func (r StockRow) Value() decimal.Decimal {
	return r.RetailPrice.Mul(decimal.NewFromFloat(r.Remaining))
}

// DateRange bounds stock_date by calendar day, both ends inclusive; a nil
// end means open-ended
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// EndBefore is the exclusive upper bound: midnight after End. stock_date
// carries a time of day, so comparing against End itself would drop the
// whole last day.
func (r DateRange) EndBefore() *time.Time {
	if r.End == nil {
		return nil
	}
	next := r.End.AddDate(0, 0, 1)
	return &next
}

// SearchField picks what a stock view's free-text query is matched against
type SearchField int

const (
	SearchAny SearchField = iota
	SearchDrug
	SearchBrand
	SearchBatch
)

// StockFilter narrows the rows a stock view reads. ExcludeAvailable selects
// every status except AVAILABLE and wins over Statuses. SearchAny matches
// drug, brand, batch number and supplier.
type StockFilter struct {
	Query            string
	SearchOn         SearchField
	Statuses         []BatchStatus
	ExcludeAvailable bool
	DrugID           int64
	BrandID          int64
	Range            DateRange
}

// Paginate returns the 1-based page of items. Pages below 1 are treated as 1.
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// TotalPages is ceil(n/size)
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ModelSummary is one drug in the available-stock view
type ModelSummary struct {
	ID                     int64   `json:"id"`
	Name                   string  `json:"name"`
	TotalRemainingQuantity float64 `json:"total_remaining_quantity"`
	BrandCount             int     `json:"brand_count"`
}

// BrandSummary is one brand in the available-stock view
type BrandSummary struct {
	ID                     int64   `json:"id"`
	Name                   string  `json:"name"`
	TotalRemainingQuantity float64 `json:"total_remaining_quantity"`
	ModelCount             int     `json:"model_count"`
}

// BatchSummary is one batch in the available or historical batch views
type BatchSummary struct {
	ID                int64           `json:"id"`
	Number            string          `json:"number"`
	DrugName          string          `json:"drug_name"`
	BrandName         string          `json:"brand_name"`
	Concentration     float64         `json:"concentration"`
	Type              DrugType        `json:"type"`
	RemainingQuantity float64         `json:"remaining_quantity"`
	FullAmount        float64         `json:"full_amount"`
	Expiry            time.Time       `json:"expiry"`
	StockDate         time.Time       `json:"stock_date"`
	RetailPrice       decimal.Decimal `json:"retail_price"`
	Status            BatchStatus     `json:"status"`
}

// GroupByModel folds rows into one summary per drug in first-seen order
func GroupByModel(rows []StockRow) []ModelSummary {
	index := make(map[int64]int)
	brands := make(map[int64]map[int64]struct{})
	var out []ModelSummary
	for _, r := range rows {
		i, ok := index[r.DrugID]
		if !ok {
			i = len(out)
			index[r.DrugID] = i
			brands[r.DrugID] = make(map[int64]struct{})
			out = append(out, ModelSummary{ID: r.DrugID, Name: r.DrugName})
		}
		out[i].TotalRemainingQuantity += r.Remaining
		brands[r.DrugID][r.BrandID] = struct{}{}
		out[i].BrandCount = len(brands[r.DrugID])
	}
	return out
}

// GroupByBrand folds rows into one summary per brand in first-seen order
func GroupByBrand(rows []StockRow) []BrandSummary {
	index := make(map[int64]int)
	models := make(map[int64]map[int64]struct{})
	var out []BrandSummary
	for _, r := range rows {
		i, ok := index[r.BrandID]
		if !ok {
			i = len(out)
			index[r.BrandID] = i
			models[r.BrandID] = make(map[int64]struct{})
			out = append(out, BrandSummary{ID: r.BrandID, Name: r.BrandName})
		}
		out[i].TotalRemainingQuantity += r.Remaining
		models[r.BrandID][r.DrugID] = struct{}{}
		out[i].ModelCount = len(models[r.BrandID])
	}
	return out
}

// Batches maps rows to batch summaries
func Batches(rows []StockRow) []BatchSummary {
	out := make([]BatchSummary, len(rows))
	for i, r := range rows {
		out[i] = BatchSummary{
			ID:                r.BatchID,
			Number:            r.Number,
			DrugName:          r.DrugName,
			BrandName:         r.BrandName,
			Concentration:     r.Concentration,
			Type:              r.Type,
			RemainingQuantity: r.Remaining,
			FullAmount:        r.FullAmount,
			Expiry:            r.Expiry,
			StockDate:         r.StockDate,
			RetailPrice:       r.RetailPrice,
			Status:            r.Status,
		}
	}
	return out
}

// SortModels orders model summaries: lowest, highest (remaining) or alphabetically
func SortModels(items []ModelSummary, sortBy SortOption) error {
	names := newNameOrder()
	switch sortBy {
	case "", SortAlphabetically:
		sort.SliceStable(items, func(i, j int) bool { return names.less(items[i].Name, items[j].Name) })
	case SortLowest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].TotalRemainingQuantity < items[j].TotalRemainingQuantity
		})
	case SortHighest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].TotalRemainingQuantity > items[j].TotalRemainingQuantity
		})
	default:
		return unsupportedSort(sortBy)
	}
	return nil
}

// SortBrands orders brand summaries: lowest, highest (remaining) or alphabetically
func SortBrands(items []BrandSummary, sortBy SortOption) error {
	names := newNameOrder()
	switch sortBy {
	case "", SortAlphabetically:
		sort.SliceStable(items, func(i, j int) bool { return names.less(items[i].Name, items[j].Name) })
	case SortLowest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].TotalRemainingQuantity < items[j].TotalRemainingQuantity
		})
	case SortHighest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].TotalRemainingQuantity > items[j].TotalRemainingQuantity
		})
	default:
		return unsupportedSort(sortBy)
	}
	return nil
}

// SortBatches orders batch summaries: expiryDate (soonest first), newlyAdded
// (latest stock date first) or alphabetically by drug name
func SortBatches(items []BatchSummary, sortBy SortOption) error {
	names := newNameOrder()
	switch sortBy {
	case SortExpiryDate:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Expiry.Before(items[j].Expiry) })
	case SortNewlyAdded:
		sort.SliceStable(items, func(i, j int) bool { return items[i].StockDate.After(items[j].StockDate) })
	case "", SortAlphabetically:
		sort.SliceStable(items, func(i, j int) bool { return names.less(items[i].DrugName, items[j].DrugName) })
	default:
		return unsupportedSort(sortBy)
	}
	return nil
}

// StockItem is one entry of the valuation views. The batch-only fields are
// empty for model and brand entries.
type StockItem struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	TotalPrice        decimal.Decimal  `json:"total_price"`
	DrugName          string           `json:"drug_name,omitempty"`
	BrandName         string           `json:"brand_name,omitempty"`
	RetailPrice       *decimal.Decimal `json:"retail_price,omitempty"`
	WholesalePrice    *decimal.Decimal `json:"wholesale_price,omitempty"`
	RemainingQuantity *float64         `json:"remaining_quantity,omitempty"`
	Supplier          string           `json:"supplier,omitempty"`
}

func (s StockItem) unitPrice() decimal.Decimal {
	if s.RetailPrice == nil {
		return decimal.Zero
	}
	return *s.RetailPrice
}

// ValueByModel sums remaining × retail per drug
func ValueByModel(rows []StockRow) []StockItem {
	return valueBy(rows, func(r StockRow) (int64, string) { return r.DrugID, r.DrugName })
}

// ValueByBrand sums remaining × retail per brand
func ValueByBrand(rows []StockRow) []StockItem {
	return valueBy(rows, func(r StockRow) (int64, string) { return r.BrandID, r.BrandName })
}

func valueBy(rows []StockRow, key func(StockRow) (int64, string)) []StockItem {
	index := make(map[int64]int)
	var out []StockItem
	for _, r := range rows {
		id, name := key(r)
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, StockItem{ID: id, Name: name, TotalPrice: decimal.Zero})
		}
		out[i].TotalPrice = out[i].TotalPrice.Add(r.Value())
	}
	return out
}

// ValueByBatch values each batch on its own
func ValueByBatch(rows []StockRow) []StockItem {
	out := make([]StockItem, len(rows))
	for i, r := range rows {
		retail, wholesale, remaining := r.RetailPrice, r.WholesalePrice, r.Remaining
		out[i] = StockItem{
			ID:                r.BatchID,
			Name:              fmt.Sprintf("(Batch %s)", r.Number),
			TotalPrice:        r.Value(),
			DrugName:          r.DrugName,
			BrandName:         r.BrandName,
			RetailPrice:       &retail,
			WholesalePrice:    &wholesale,
			RemainingQuantity: &remaining,
			Supplier:          r.SupplierName,
		}
	}
	return out
}

// SortStockItems applies the valuation sort vocabulary
func SortStockItems(items []StockItem, sortBy SortOption) error {
	names := newNameOrder()
	var less func(a, b StockItem) bool
	switch sortBy {
	case "", SortAlphabetically:
		less = func(a, b StockItem) bool { return names.less(a.Name, b.Name) }
	case SortHighest:
		less = func(a, b StockItem) bool { return a.TotalPrice.GreaterThan(b.TotalPrice) }
	case SortLowest:
		less = func(a, b StockItem) bool { return a.TotalPrice.LessThan(b.TotalPrice) }
	case SortUnitHighest:
		less = func(a, b StockItem) bool { return a.unitPrice().GreaterThan(b.unitPrice()) }
	case SortUnitLowest:
		less = func(a, b StockItem) bool { return a.unitPrice().LessThan(b.unitPrice()) }
	default:
		return unsupportedSort(sortBy)
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	return nil
}
