package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
)

// bufferGroups sums AVAILABLE batches per (drug, type, concentration) and
// attaches the configured buffer, NULL when none exists.
const bufferGroups = `
	SELECT b.drug_id, b.type, b.unit_concentration_id, d.name AS drug_name, uc.concentration,
		SUM(b.remaining_quantity) AS remaining_quantity, SUM(b.full_amount) AS full_amount,
		bl.buffer_amount
	FROM batches b
	JOIN drugs d ON d.id = b.drug_id
	JOIN unit_concentrations uc ON uc.id = b.unit_concentration_id
	LEFT JOIN buffer_levels bl ON bl.drug_id = b.drug_id AND bl.type = b.type
		AND bl.unit_concentration_id = b.unit_concentration_id
	WHERE b.status = 'AVAILABLE'
`

const bufferGroupBy = `
	GROUP BY b.drug_id, b.type, b.unit_concentration_id, d.name, uc.concentration, bl.buffer_amount
`

// BufferRepository handles buffer levels and the stock groups they apply to
type BufferRepository struct {
	db *database.DB
}

// NewBufferRepository creates a new buffer repository
func NewBufferRepository(db *database.DB) *BufferRepository {
	return &BufferRepository{db: db}
}

// Groups returns every stock group whose drug name contains query
func (r *BufferRepository) Groups(ctx context.Context, query string) ([]domain.BufferRow, error) {
	rows := []domain.BufferRow{}
	q := bufferGroups + ` AND d.name ILIKE $1` + bufferGroupBy
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, q, contains(query)); err != nil {
		return nil, err
	}
	return rows, nil
}

// Group returns the stock group for key. A group with no AVAILABLE batches
// is returned with zero quantities and the configured buffer, if any.
func (r *BufferRepository) Group(ctx context.Context, key domain.StockKey) (*domain.BufferRow, error) {
	var row domain.BufferRow
	q := bufferGroups + ` AND b.drug_id = $1 AND b.type = $2 AND b.unit_concentration_id = $3` + bufferGroupBy
	err := r.db.Conn(ctx).GetContext(ctx, &row, q, key.DrugID, key.Type, key.ConcentrationID)
	if err == nil {
		return &row, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// nothing on the shelf; fall back to the names and buffer alone
	q = `
		SELECT d.id AS drug_id, $2::varchar AS type, uc.id AS unit_concentration_id,
			d.name AS drug_name, uc.concentration, 0::float8 AS remaining_quantity,
			0::float8 AS full_amount, bl.buffer_amount
		FROM drugs d
		CROSS JOIN unit_concentrations uc
		LEFT JOIN buffer_levels bl ON bl.drug_id = d.id AND bl.type = $2
			AND bl.unit_concentration_id = uc.id
		WHERE d.id = $1 AND uc.id = $3
	`
	err = r.db.Conn(ctx).GetContext(ctx, &row, q, key.DrugID, key.Type, key.ConcentrationID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Stock group")
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindLevel returns nil when no buffer is configured for key
func (r *BufferRepository) FindLevel(ctx context.Context, key domain.StockKey) (*domain.BufferLevel, error) {
	var level domain.BufferLevel
	query := `
		SELECT id, drug_id, type, unit_concentration_id, buffer_amount
		FROM buffer_levels
		WHERE drug_id = $1 AND type = $2 AND unit_concentration_id = $3
	`
	err := r.db.Conn(ctx).GetContext(ctx, &level, query, key.DrugID, key.Type, key.ConcentrationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// InsertLevel creates a buffer level
func (r *BufferRepository) InsertLevel(ctx context.Context, level *domain.BufferLevel) error {
	query := `
		INSERT INTO buffer_levels (drug_id, type, unit_concentration_id, buffer_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		level.DrugID, level.Type, level.ConcentrationID, level.BufferAmount,
	).Scan(&level.ID)
	if err != nil {
		return database.MapError(err)
	}
	return nil
}

// UpdateLevel sets the amount of an existing buffer level
func (r *BufferRepository) UpdateLevel(ctx context.Context, id int64, amount float64) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE buffer_levels SET buffer_amount = $2 WHERE id = $1`, id, amount)
	return database.MapError(err)
}

// LevelsForDrugs returns the buffer levels of the listed drugs
func (r *BufferRepository) LevelsForDrugs(ctx context.Context, drugIDs []int64) ([]domain.BufferLevel, error) {
	levels := []domain.BufferLevel{}
	if len(drugIDs) == 0 {
		return levels, nil
	}
	query := `
		SELECT id, drug_id, type, unit_concentration_id, buffer_amount
		FROM buffer_levels
		WHERE drug_id = ANY($1)
		ORDER BY drug_id, id
	`
	if err := r.db.Conn(ctx).SelectContext(ctx, &levels, query, pq.Array(drugIDs)); err != nil {
		return nil, err
	}
	return levels, nil
}
