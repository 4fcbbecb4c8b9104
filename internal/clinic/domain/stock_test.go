package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockRow(batchID, drugID, brandID int64, drug, brand string, remaining float64, retail string) StockRow {
	return StockRow{
		BatchID:     batchID,
		Number:      fmt.Sprintf("N%d", batchID),
		DrugID:      drugID,
		DrugName:    drug,
		BrandID:     brandID,
		BrandName:   brand,
		FullAmount:  remaining,
		Remaining:   remaining,
		RetailPrice: d(retail),
		Status:      BatchAvailable,
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i + 1
	}

	page2 := Paginate(items, 2, AvailableModelPageSize)
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18}, page2)

	assert.Equal(t, []int{19, 20}, Paginate(items, 3, AvailableModelPageSize))
	assert.Empty(t, Paginate(items, 4, AvailableModelPageSize))
	assert.Equal(t, Paginate(items, 1, 9), Paginate(items, 0, 9))
	assert.Equal(t, 3, TotalPages(len(items), AvailableModelPageSize))
	assert.Equal(t, 0, TotalPages(0, AvailableModelPageSize))
	assert.Equal(t, 2, TotalPages(20, StockPageSize))
}

func TestGroupByModel(t *testing.T) {
	rows := []StockRow{
		stockRow(1, 1, 1, "Paracetamol", "Panadol", 10, "5"),
		stockRow(2, 1, 2, "Paracetamol", "Calpol", 5, "6"),
		stockRow(3, 2, 1, "Amoxicillin", "Panadol", 7, "20"),
		stockRow(4, 1, 1, "Paracetamol", "Panadol", 3, "5"),
	}

	got := GroupByModel(rows)
	require.Len(t, got, 2)
	assert.Equal(t, ModelSummary{ID: 1, Name: "Paracetamol", TotalRemainingQuantity: 18, BrandCount: 2}, got[0])
	assert.Equal(t, ModelSummary{ID: 2, Name: "Amoxicillin", TotalRemainingQuantity: 7, BrandCount: 1}, got[1])

	brands := GroupByBrand(rows)
	require.Len(t, brands, 2)
	assert.Equal(t, BrandSummary{ID: 1, Name: "Panadol", TotalRemainingQuantity: 20, ModelCount: 2}, brands[0])

	require.NoError(t, SortModels(got, SortAlphabetically))
	assert.Equal(t, "Amoxicillin", got[0].Name)
	require.NoError(t, SortModels(got, SortHighest))
	assert.Equal(t, "Paracetamol", got[0].Name)
	require.NoError(t, SortModels(got, SortLowest))
	assert.Equal(t, "Amoxicillin", got[0].Name)
	assert.Error(t, SortModels(got, SortExpiryDate))
}

func TestModelPagination_TwentyDrugs(t *testing.T) {
	var rows []StockRow
	for i := 1; i <= 20; i++ {
		rows = append(rows, stockRow(int64(i), int64(i), 1, fmt.Sprintf("Drug %02d", i), "Brand", 1, "1"))
	}

	models := GroupByModel(rows)
	require.NoError(t, SortModels(models, SortAlphabetically))
	page := Paginate(models, 2, AvailableModelPageSize)

	require.Len(t, page, 9)
	assert.Equal(t, "Drug 10", page[0].Name)
	assert.Equal(t, "Drug 18", page[8].Name)
}

func TestSortBatches(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []BatchSummary{
		{ID: 1, DrugName: "zinc", Expiry: now.AddDate(0, 6, 0), StockDate: now.AddDate(0, -2, 0)},
		{ID: 2, DrugName: "Aspirin", Expiry: now.AddDate(0, 1, 0), StockDate: now.AddDate(0, -3, 0)},
		{ID: 3, DrugName: "ácido fólico", Expiry: now.AddDate(1, 0, 0), StockDate: now},
	}

	require.NoError(t, SortBatches(items, SortExpiryDate))
	assert.Equal(t, int64(2), items[0].ID)

	require.NoError(t, SortBatches(items, SortNewlyAdded))
	assert.Equal(t, int64(3), items[0].ID)

	require.NoError(t, SortBatches(items, SortAlphabetically))
	assert.Equal(t, []int64{3, 2, 1}, []int64{items[0].ID, items[1].ID, items[2].ID})

	assert.Error(t, SortBatches(items, SortHighest))
}

func TestValuationViews(t *testing.T) {
	rows := []StockRow{
		stockRow(1, 1, 1, "Paracetamol", "Panadol", 10, "5"),
		stockRow(2, 1, 2, "Paracetamol", "Calpol", 4, "12.5"),
		stockRow(3, 2, 1, "Amoxicillin", "Panadol", 2, "30"),
	}
	rows[1].SupplierName = "Hemas"
	rows[1].WholesalePrice = d("10")

	models := ValueByModel(rows)
	require.Len(t, models, 2)
	assert.True(t, d("100").Equal(models[0].TotalPrice))
	assert.True(t, d("60").Equal(models[1].TotalPrice))

	brands := ValueByBrand(rows)
	assert.True(t, d("110").Equal(brands[0].TotalPrice))

	batches := ValueByBatch(rows)
	assert.Equal(t, "(Batch N2)", batches[1].Name)
	assert.Equal(t, "Hemas", batches[1].Supplier)
	assert.True(t, d("50").Equal(batches[1].TotalPrice))
	require.NotNil(t, batches[1].RemainingQuantity)
	assert.Equal(t, 4.0, *batches[1].RemainingQuantity)

	require.NoError(t, SortStockItems(batches, SortUnitHighest))
	assert.Equal(t, int64(3), batches[0].ID)
	require.NoError(t, SortStockItems(batches, SortUnitLowest))
	assert.Equal(t, int64(1), batches[0].ID)
	require.NoError(t, SortStockItems(batches, SortHighest))
	assert.Equal(t, []int64{3, 1, 2}, []int64{batches[0].ID, batches[1].ID, batches[2].ID})
	require.NoError(t, SortStockItems(models, SortLowest))
	assert.Equal(t, "Amoxicillin", models[0].Name)

	// model entries carry no unit price, so unit sorts keep their order
	require.NoError(t, SortStockItems(models, SortUnitHighest))
	assert.Equal(t, "Amoxicillin", models[0].Name)

	assert.Error(t, SortStockItems(models, SortNewlyAdded))
}

func TestStockRowValue(t *testing.T) {
	r := StockRow{Remaining: 3, RetailPrice: decimal.RequireFromString("2.35")}
	assert.Equal(t, "7.05", r.Value().StringFixed(2))
}

func TestDateRange_EndBefore(t *testing.T) {
	assert.Nil(t, DateRange{}.EndBefore())

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := DateRange{Start: &day, End: &day}.EndBefore()
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), *end)

	receivedMidMorning := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	assert.True(t, receivedMidMorning.Before(*end))
}
