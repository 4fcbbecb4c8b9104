package domain

import (
	"github.com/shopspring/decimal"
)

// Bucket is a quantity and its retail value
type Bucket struct {
	Quantity float64         `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

func (b *Bucket) add(qty float64, price decimal.Decimal) {
	b.Quantity += qty
	b.Value = b.Value.Add(price.Mul(decimal.NewFromFloat(qty)))
}

// Tally splits batch quantities by what happened to them
type Tally struct {
	Available     Bucket `json:"available"`
	Sold          Bucket `json:"sold"`
	Expired       Bucket `json:"expired"`
	Disposed      Bucket `json:"disposed"`
	QualityFailed Bucket `json:"quality_failed"`
	Errors        Bucket `json:"errors"`
}

// NewTally returns a zeroed tally
func NewTally() *Tally {
	zero := Bucket{Value: decimal.Zero}
	return &Tally{
		Available: zero, Sold: zero, Expired: zero,
		Disposed: zero, QualityFailed: zero, Errors: zero,
	}
}

// Add books one batch into the tally by its status rule
func (t *Tally) Add(status BatchStatus, full, remaining float64, retail decimal.Decimal) {
	ruleFor(status).apply(t, full, remaining, retail)
}

// TallyRows books every row
func TallyRows(rows []StockRow) *Tally {
	t := NewTally()
	for _, r := range rows {
		t.Add(r.Status, r.FullAmount, r.Remaining, r.RetailPrice)
	}
	return t
}

// statusRule is how one batch status distributes a batch's quantities.
// The set of rules is closed: only this file implements it.
type statusRule interface {
	apply(t *Tally, full, remaining float64, retail decimal.Decimal)
}

type (
	availableRule     struct{}
	expiredRule       struct{}
	completedRule     struct{}
	disposedRule      struct{}
	qualityFailedRule struct{}
	errorRule         struct{}
)

func ruleFor(status BatchStatus) statusRule {
	switch status {
	case BatchAvailable:
		return availableRule{}
	case BatchExpired:
		return expiredRule{}
	case BatchCompleted:
		return completedRule{}
	case BatchDisposed:
		return disposedRule{}
	case BatchQualityFailed:
		return qualityFailedRule{}
	default:
		return errorRule{}
	}
}

// soldPart books what left a batch that still has a status of its own
func soldPart(t *Tally, full, remaining float64, retail decimal.Decimal) {
	if full > remaining {
		t.Sold.add(full-remaining, retail)
	}
}

func (availableRule) apply(t *Tally, full, remaining float64, retail decimal.Decimal) {
	t.Available.add(remaining, retail)
	soldPart(t, full, remaining, retail)
}

func (expiredRule) apply(t *Tally, full, remaining float64, retail decimal.Decimal) {
	t.Expired.add(remaining, retail)
	soldPart(t, full, remaining, retail)
}

func (disposedRule) apply(t *Tally, full, remaining float64, retail decimal.Decimal) {
	t.Disposed.add(remaining, retail)
	soldPart(t, full, remaining, retail)
}

func (qualityFailedRule) apply(t *Tally, full, remaining float64, retail decimal.Decimal) {
	t.QualityFailed.add(remaining, retail)
	soldPart(t, full, remaining, retail)
}

// A completed batch should be empty; anything left over is an error.
func (completedRule) apply(t *Tally, full, remaining float64, retail decimal.Decimal) {
	if remaining > 0 {
		t.Errors.add(remaining, retail)
	}
	t.Sold.add(full-remaining, retail)
}

func (errorRule) apply(t *Tally, full, _ float64, retail decimal.Decimal) {
	t.Errors.add(full, retail)
}

// SupplierBatch is one batch in the supplier pricing view
type SupplierBatch struct {
	BatchID           int64           `json:"batch_id"`
	Number            string          `json:"number"`
	BrandName         string          `json:"brand_name"`
	Concentration     float64         `json:"concentration"`
	RetailPrice       decimal.Decimal `json:"retail_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	RemainingQuantity float64         `json:"remaining_quantity"`
	Expiry            string          `json:"expiry"`
}

// SupplierPricing groups a drug's batches by supplier
type SupplierPricing struct {
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Batches      []SupplierBatch `json:"batches"`
}

// GroupBySupplier groups rows (already ordered by retail price) per supplier
// in first-seen order. TotalPrice is what the batch cost: full amount at wholesale.
func GroupBySupplier(rows []StockRow) []SupplierPricing {
	index := make(map[int64]int)
	var out []SupplierPricing
	for _, r := range rows {
		i, ok := index[r.SupplierID]
		if !ok {
			i = len(out)
			index[r.SupplierID] = i
			out = append(out, SupplierPricing{SupplierID: r.SupplierID, SupplierName: r.SupplierName})
		}
		out[i].Batches = append(out[i].Batches, SupplierBatch{
			BatchID:           r.BatchID,
			Number:            r.Number,
			BrandName:         r.BrandName,
			Concentration:     r.Concentration,
			RetailPrice:       r.RetailPrice,
			TotalPrice:        r.WholesalePrice.Mul(decimal.NewFromFloat(r.FullAmount)),
			RemainingQuantity: r.Remaining,
			Expiry:            r.Expiry.Format("2006-01-02"),
		})
	}
	return out
}
