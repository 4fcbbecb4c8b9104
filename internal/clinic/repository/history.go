package repository

import (
	"context"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
)

// HistoryRepository stores the last batch dispensed per drug, brand, type and concentration
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Remember points the history row for h's key at h.BatchID, creating it on
// first use. It is a single upsert on batch_history_key, so two bills
// dispensing the same key concurrently both succeed and the later one wins.
func (r *HistoryRepository) Remember(ctx context.Context, h *domain.BatchHistory) error {
	query := `
		INSERT INTO batch_history (drug_id, drug_brand_id, type, unit_concentration_id, batch_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT batch_history_key
		DO UPDATE SET batch_id = EXCLUDED.batch_id
		RETURNING id
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		h.DrugID, h.BrandID, h.Type, h.ConcentrationID, h.BatchID,
	).Scan(&h.ID)
	return database.MapError(err)
}

// Preferred returns the remembered batches of a drug and brand, one per
// type and concentration, that are still AVAILABLE
func (r *HistoryRepository) Preferred(ctx context.Context, drugID, brandID int64) ([]int64, error) {
	ids := []int64{}
	query := `
		SELECT h.batch_id
		FROM batch_history h
		JOIN batches b ON b.id = h.batch_id
		WHERE h.drug_id = $1 AND h.drug_brand_id = $2 AND b.status = 'AVAILABLE'
		ORDER BY h.id
	`
	if err := r.db.Conn(ctx).SelectContext(ctx, &ids, query, drugID, brandID); err != nil {
		return nil, err
	}
	return ids, nil
}
