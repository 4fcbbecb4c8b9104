package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
)

// ChargeRepository handles configured fees
type ChargeRepository struct {
	db *database.DB
}

// NewChargeRepository creates a new charge repository
func NewChargeRepository(db *database.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

// List returns every charge ordered by id
func (r *ChargeRepository) List(ctx context.Context) ([]domain.Charge, error) {
	charges := []domain.Charge{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &charges, `SELECT id, name, type, value FROM charges ORDER BY id`); err != nil {
		return nil, err
	}
	return charges, nil
}

// GetByNames returns the charges with the given names, absent names skipped
func (r *ChargeRepository) GetByNames(ctx context.Context, names ...string) ([]domain.Charge, error) {
	charges := []domain.Charge{}
	query := `SELECT id, name, type, value FROM charges WHERE name = ANY($1) ORDER BY id`
	if err := r.db.Conn(ctx).SelectContext(ctx, &charges, query, pq.Array(names)); err != nil {
		return nil, err
	}
	return charges, nil
}

// Get gets a charge by ID
func (r *ChargeRepository) Get(ctx context.Context, id int64) (*domain.Charge, error) {
	var c domain.Charge
	if err := r.db.Conn(ctx).GetContext(ctx, &c, `SELECT id, name, type, value FROM charges WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Charge")
		}
		return nil, err
	}
	return &c, nil
}

// Insert creates a charge
func (r *ChargeRepository) Insert(ctx context.Context, c *domain.Charge) error {
	err := r.db.Conn(ctx).QueryRowxContext(ctx,
		`INSERT INTO charges (name, type, value) VALUES ($1, $2, $3) RETURNING id`,
		c.Name, c.Type, c.Value,
	).Scan(&c.ID)
	return database.MapError(err)
}

// Update overwrites a charge
func (r *ChargeRepository) Update(ctx context.Context, c *domain.Charge) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE charges SET name = $2, type = $3, value = $4 WHERE id = $1`,
		c.ID, c.Name, c.Type, c.Value,
	)
	if err != nil {
		return database.MapError(err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("Charge")
	}
	return nil
}

// Delete removes a charge
func (r *ChargeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM charges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("Charge")
	}
	return nil
}
