package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
)

const batchColumns = `id, number, drug_id, drug_brand_id, unit_concentration_id, supplier_id, type,
	full_amount, remaining_quantity, expiry, stock_date, retail_price, wholesale_price, status`

// detailSelect joins a batch with the names it references. Columns are
// qualified because the join repeats id and name.
const detailSelect = `
	SELECT b.id, b.number, b.drug_id, b.drug_brand_id, b.unit_concentration_id, b.supplier_id, b.type,
		b.full_amount, b.remaining_quantity, b.expiry, b.stock_date, b.retail_price, b.wholesale_price, b.status,
		d.name AS drug_name, db.name AS brand_name, s.name AS supplier_name, uc.concentration
	FROM batches b
	JOIN drugs d ON d.id = b.drug_id
	JOIN drug_brands db ON db.id = b.drug_brand_id
	JOIN suppliers s ON s.id = b.supplier_id
	JOIN unit_concentrations uc ON uc.id = b.unit_concentration_id
`

// stockSelect is detailSelect shaped as a domain.StockRow
const stockSelect = `
	SELECT b.id, b.number, b.drug_id, d.name AS drug_name, b.drug_brand_id, db.name AS brand_name,
		b.supplier_id, s.name AS supplier_name, uc.concentration, b.type, b.full_amount,
		b.remaining_quantity, b.expiry, b.stock_date, b.retail_price, b.wholesale_price, b.status
	FROM batches b
	JOIN drugs d ON d.id = b.drug_id
	JOIN drug_brands db ON db.id = b.drug_brand_id
	JOIN suppliers s ON s.id = b.supplier_id
	JOIN unit_concentrations uc ON uc.id = b.unit_concentration_id
`

// BatchRepository handles batch database operations
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a batch
func (r *BatchRepository) Create(ctx context.Context, b *domain.Batch) error {
	query := `
		INSERT INTO batches (number, drug_id, drug_brand_id, unit_concentration_id, supplier_id, type,
			full_amount, remaining_quantity, expiry, stock_date, retail_price, wholesale_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		b.Number, b.DrugID, b.BrandID, b.ConcentrationID, b.SupplierID, b.Type,
		b.FullAmount, b.RemainingQuantity, b.Expiry, b.StockDate, b.RetailPrice, b.WholesalePrice, b.Status,
	).Scan(&b.ID)
	if err != nil {
		return database.MapError(err)
	}
	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*domain.Batch, error) {
	var b domain.Batch
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`
	if err := r.db.Conn(ctx).GetContext(ctx, &b, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Batch")
		}
		return nil, err
	}
	return &b, nil
}

// GetDetail gets a batch with its drug, brand, supplier and concentration
func (r *BatchRepository) GetDetail(ctx context.Context, id int64) (*domain.BatchDetail, error) {
	var b domain.BatchDetail
	if err := r.db.Conn(ctx).GetContext(ctx, &b, detailSelect+` WHERE b.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Batch")
		}
		return nil, err
	}
	return &b, nil
}

// GetDetailsByIDs loads the listed batches. Missing ids are simply absent
// from the result.
func (r *BatchRepository) GetDetailsByIDs(ctx context.Context, ids []int64) ([]domain.BatchDetail, error) {
	batches := []domain.BatchDetail{}
	if len(ids) == 0 {
		return batches, nil
	}
	query := detailSelect + ` WHERE b.id = ANY($1)`
	if err := r.db.Conn(ctx).SelectContext(ctx, &batches, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return batches, nil
}

// GetForUpdate locks the batch row for the rest of the transaction
func (r *BatchRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Batch, error) {
	var b domain.Batch
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1 FOR UPDATE`
	if err := r.db.Conn(ctx).GetContext(ctx, &b, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Batch")
		}
		return nil, err
	}
	return &b, nil
}

// UpdateStatus writes a batch status
func (r *BatchRepository) UpdateStatus(ctx context.Context, id int64, status domain.BatchStatus) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE batches SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return database.MapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("Batch")
	}
	return nil
}

// ListExpiredAvailable locks every AVAILABLE batch whose expiry is before now
func (r *BatchRepository) ListExpiredAvailable(ctx context.Context, now time.Time) ([]domain.Batch, error) {
	batches := []domain.Batch{}
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE status = $1 AND expiry < $2
		ORDER BY id
		FOR UPDATE`
	if err := r.db.Conn(ctx).SelectContext(ctx, &batches, query, domain.BatchAvailable, now); err != nil {
		return nil, err
	}
	return batches, nil
}

// Decrement takes qty out of the batch and returns what remains. A batch
// without enough stock is left untouched and reported as a conflict.
func (r *BatchRepository) Decrement(ctx context.Context, id int64, qty float64) (float64, error) {
	query := `
		UPDATE batches SET remaining_quantity = remaining_quantity - $2
		WHERE id = $1 AND remaining_quantity >= $2
		RETURNING remaining_quantity
	`
	var remaining float64
	if err := r.db.Conn(ctx).QueryRowxContext(ctx, query, id, qty).Scan(&remaining); err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.Conflict(fmt.Sprintf("insufficient stock in batch %d", id))
		}
		return 0, database.MapError(err)
	}
	return remaining, nil
}

// StockRows returns the batches matching filter, joined with their names
func (r *BatchRepository) StockRows(ctx context.Context, filter domain.StockFilter) ([]domain.StockRow, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.ExcludeAvailable:
		where = append(where, "b.status <> "+arg(domain.BatchAvailable))
	case len(filter.Statuses) > 0:
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "b.status = ANY("+arg(pq.Array(statuses))+")")
	}
	if filter.Query != "" {
		p := arg(contains(filter.Query))
		switch filter.SearchOn {
		case domain.SearchDrug:
			where = append(where, "d.name ILIKE "+p)
		case domain.SearchBrand:
			where = append(where, "db.name ILIKE "+p)
		case domain.SearchBatch:
			where = append(where, "b.number ILIKE "+p)
		default:
			where = append(where, "(d.name ILIKE "+p+" OR db.name ILIKE "+p+" OR b.number ILIKE "+p+" OR s.name ILIKE "+p+")")
		}
	}
	if filter.DrugID > 0 {
		where = append(where, "b.drug_id = "+arg(filter.DrugID))
	}
	if filter.BrandID > 0 {
		where = append(where, "b.drug_brand_id = "+arg(filter.BrandID))
	}
	if filter.Range.Start != nil {
		where = append(where, "b.stock_date >= "+arg(*filter.Range.Start))
	}
	if end := filter.Range.EndBefore(); end != nil {
		where = append(where, "b.stock_date < "+arg(*end))
	}

	query := stockSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.id"

	rows := []domain.StockRow{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAvailable returns unexpired AVAILABLE batches of a drug and brand,
// earliest expiry first
func (r *BatchRepository) ListAvailable(ctx context.Context, drugID, brandID int64, now time.Time) ([]domain.BatchDetail, error) {
	batches := []domain.BatchDetail{}
	query := detailSelect + `
		WHERE b.drug_id = $1 AND b.drug_brand_id = $2 AND b.status = $3
			AND b.expiry > $4 AND b.remaining_quantity > 0
		ORDER BY b.expiry, b.id
	`
	if err := r.db.Conn(ctx).SelectContext(ctx, &batches, query, drugID, brandID, domain.BatchAvailable, now); err != nil {
		return nil, err
	}
	return batches, nil
}

// IssuedPatients lists the dispensations drawn from a batch, newest first
func (r *BatchRepository) IssuedPatients(ctx context.Context, batchID int64) ([]domain.IssuedPatient, error) {
	out := []domain.IssuedPatient{}
	query := `
		SELECT i.id, p.time AS issued_date, pt.id AS patient_id, pt.name AS patient_name,
			p.id AS prescription_id, i.quantity AS issued_amount
		FROM issues i
		JOIN prescriptions p ON p.id = i.prescription_id
		JOIN patients pt ON pt.id = p.patient_id
		WHERE i.batch_id = $1
		ORDER BY p.time DESC, i.id
	`
	if err := r.db.Conn(ctx).SelectContext(ctx, &out, query, batchID); err != nil {
		return nil, err
	}
	return out, nil
}
