package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTally_StatusRules(t *testing.T) {
	tests := []struct {
		name   string
		status BatchStatus
		full   float64
		remain float64
		check  func(t *testing.T, tally *Tally)
	}{
		{"available splits remaining and sold", BatchAvailable, 100, 60, func(t *testing.T, tally *Tally) {
			assert.Equal(t, 60.0, tally.Available.Quantity)
			assert.Equal(t, 40.0, tally.Sold.Quantity)
		}},
		{"expired keeps remaining as expired", BatchExpired, 100, 30, func(t *testing.T, tally *Tally) {
			assert.Equal(t, 30.0, tally.Expired.Quantity)
			assert.Equal(t, 70.0, tally.Sold.Quantity)
		}},
		{"disposed", BatchDisposed, 50, 50, func(t *testing.T, tally *Tally) {
			assert.Equal(t, 50.0, tally.Disposed.Quantity)
			assert.Equal(t, 0.0, tally.Sold.Quantity)
		}},
		{"quality failed", BatchQualityFailed, 50, 20, func(t *testing.T, tally *Tally) {
			assert.Equal(t, 20.0, tally.QualityFailed.Quantity)
			assert.Equal(t, 30.0, tally.Sold.Quantity)
		}},
		{"completed with leftovers is an error", BatchCompleted, 80, 5, func(t *testing.T, tally *Tally) {
			assert.Equal(t, 5.0, tally.Errors.Quantity)
			assert.Equal(t, 75.0, tally.Sold.Quantity)
		}},
		{"completed and empty", BatchCompleted, 80, 0, func(t *testing.T, tally *Tally) {
			assert.Equal(t, 0.0, tally.Errors.Quantity)
			assert.Equal(t, 80.0, tally.Sold.Quantity)
		}},
		{"unknown status books the full amount as error", BatchStatus("LOST"), 40, 10, func(t *testing.T, tally *Tally) {
			assert.Equal(t, 40.0, tally.Errors.Quantity)
			assert.Equal(t, 0.0, tally.Sold.Quantity)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := NewTally()
			tally.Add(tt.status, tt.full, tt.remain, d("2"))
			tt.check(t, tally)
		})
	}
}

func TestTallyRows_Values(t *testing.T) {
	rows := []StockRow{
		{Status: BatchAvailable, FullAmount: 10, Remaining: 4, RetailPrice: d("2.50")},
		{Status: BatchCompleted, FullAmount: 6, Remaining: 0, RetailPrice: d("10")},
	}

	tally := TallyRows(rows)

	assert.Equal(t, "10.00", tally.Available.Value.StringFixed(2))
	assert.Equal(t, "75.00", tally.Sold.Value.StringFixed(2))
	assert.True(t, tally.Errors.Value.IsZero())
}

func TestGroupBySupplier(t *testing.T) {
	expiry := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	rows := []StockRow{
		{BatchID: 1, SupplierID: 7, SupplierName: "Hemas", RetailPrice: d("4"), WholesalePrice: d("3"), FullAmount: 100, Expiry: expiry},
		{BatchID: 2, SupplierID: 9, SupplierName: "SPC", RetailPrice: d("5"), WholesalePrice: d("2"), FullAmount: 10, Expiry: expiry},
		{BatchID: 3, SupplierID: 7, SupplierName: "Hemas", RetailPrice: d("6"), WholesalePrice: d("5"), FullAmount: 1, Expiry: expiry},
	}

	got := GroupBySupplier(rows)

	require.Len(t, got, 2)
	assert.Equal(t, "Hemas", got[0].SupplierName)
	require.Len(t, got[0].Batches, 2)
	assert.Equal(t, int64(3), got[0].Batches[1].BatchID)
	assert.True(t, d("300").Equal(got[0].Batches[0].TotalPrice))
	assert.Equal(t, "2027-01-31", got[1].Batches[0].Expiry)
}
