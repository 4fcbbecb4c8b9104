package repository

import (
	"context"
	"database/sql"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
)

// CatalogRepository handles drugs, brands, suppliers and unit concentrations
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetDrug gets a drug by ID
func (r *CatalogRepository) GetDrug(ctx context.Context, id int64) (*domain.Drug, error) {
	var d domain.Drug
	if err := r.db.Conn(ctx).GetContext(ctx, &d, `SELECT id, name FROM drugs WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Drug")
		}
		return nil, err
	}
	return &d, nil
}

// FindDrugByName returns nil when no drug has exactly that name
func (r *CatalogRepository) FindDrugByName(ctx context.Context, name string) (*domain.Drug, error) {
	var d domain.Drug
	err := r.db.Conn(ctx).GetContext(ctx, &d, `SELECT id, name FROM drugs WHERE name = $1`, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDrug inserts a drug
func (r *CatalogRepository) CreateDrug(ctx context.Context, d *domain.Drug) error {
	err := r.db.Conn(ctx).QueryRowxContext(ctx,
		`INSERT INTO drugs (name) VALUES ($1) RETURNING id`, d.Name,
	).Scan(&d.ID)
	return database.MapError(err)
}

// GetBrand gets a brand by ID
func (r *CatalogRepository) GetBrand(ctx context.Context, id int64) (*domain.Brand, error) {
	var b domain.Brand
	err := r.db.Conn(ctx).GetContext(ctx, &b, `SELECT id, name, description FROM drug_brands WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Brand")
		}
		return nil, err
	}
	return &b, nil
}

// CreateBrand inserts a brand
func (r *CatalogRepository) CreateBrand(ctx context.Context, b *domain.Brand) error {
	err := r.db.Conn(ctx).QueryRowxContext(ctx,
		`INSERT INTO drug_brands (name, description) VALUES ($1, $2) RETURNING id`, b.Name, b.Description,
	).Scan(&b.ID)
	return database.MapError(err)
}

// FindSupplier looks a supplier up by id when id > 0, otherwise by name.
// It returns nil when there is no match.
func (r *CatalogRepository) FindSupplier(ctx context.Context, id int64, name string) (*domain.Supplier, error) {
	var s domain.Supplier
	var err error
	if id > 0 {
		err = r.db.Conn(ctx).GetContext(ctx, &s, `SELECT id, name, contact FROM suppliers WHERE id = $1`, id)
	} else {
		err = r.db.Conn(ctx).GetContext(ctx, &s, `SELECT id, name, contact FROM suppliers WHERE name = $1`, name)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSupplier inserts a supplier
func (r *CatalogRepository) CreateSupplier(ctx context.Context, s *domain.Supplier) error {
	err := r.db.Conn(ctx).QueryRowxContext(ctx,
		`INSERT INTO suppliers (name, contact) VALUES ($1, $2) RETURNING id`, s.Name, s.Contact,
	).Scan(&s.ID)
	return database.MapError(err)
}

// UpdateSupplierContact sets a supplier's contact
func (r *CatalogRepository) UpdateSupplierContact(ctx context.Context, id int64, contact string) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE suppliers SET contact = $2 WHERE id = $1`, id, contact)
	return database.MapError(err)
}

// FindConcentration returns nil when the value is not registered
func (r *CatalogRepository) FindConcentration(ctx context.Context, value float64) (*domain.Concentration, error) {
	var c domain.Concentration
	err := r.db.Conn(ctx).GetContext(ctx, &c,
		`SELECT id, concentration FROM unit_concentrations WHERE concentration = $1`, value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConcentration inserts a unit concentration
func (r *CatalogRepository) CreateConcentration(ctx context.Context, c *domain.Concentration) error {
	err := r.db.Conn(ctx).QueryRowxContext(ctx,
		`INSERT INTO unit_concentrations (concentration) VALUES ($1) RETURNING id`, c.Concentration,
	).Scan(&c.ID)
	return database.MapError(err)
}

// SearchDrugs lists drugs whose name starts with prefix
func (r *CatalogRepository) SearchDrugs(ctx context.Context, prefix string, limit int) ([]domain.DrugSuggestion, error) {
	drugs := []domain.DrugSuggestion{}
	query := `SELECT id, name FROM drugs WHERE name ILIKE $1 ORDER BY name LIMIT $2`
	if err := r.db.Conn(ctx).SelectContext(ctx, &drugs, query, startsWith(prefix), limit); err != nil {
		return nil, err
	}
	return drugs, nil
}

// SearchBrands lists brands whose name starts with prefix
func (r *CatalogRepository) SearchBrands(ctx context.Context, prefix string, limit int) ([]domain.BrandSuggestion, error) {
	brands := []domain.BrandSuggestion{}
	query := `SELECT id, name, description FROM drug_brands WHERE name ILIKE $1 ORDER BY name LIMIT $2`
	if err := r.db.Conn(ctx).SelectContext(ctx, &brands, query, startsWith(prefix), limit); err != nil {
		return nil, err
	}
	return brands, nil
}

// SearchSuppliers lists suppliers whose name contains q
func (r *CatalogRepository) SearchSuppliers(ctx context.Context, q string, limit int) ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	query := `SELECT id, name, contact FROM suppliers WHERE name ILIKE $1 ORDER BY name LIMIT $2`
	if err := r.db.Conn(ctx).SelectContext(ctx, &suppliers, query, contains(q), limit); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Concentrations lists the distinct concentrations stocked for a drug and type
func (r *CatalogRepository) Concentrations(ctx context.Context, drugID int64, drugType domain.DrugType) ([]domain.Concentration, error) {
	out := []domain.Concentration{}
	query := `
		SELECT DISTINCT uc.id, uc.concentration
		FROM batches b
		JOIN unit_concentrations uc ON uc.id = b.unit_concentration_id
		WHERE b.drug_id = $1 AND b.type = $2
		ORDER BY uc.concentration
	`
	if err := r.db.Conn(ctx).SelectContext(ctx, &out, query, drugID, drugType); err != nil {
		return nil, err
	}
	return out, nil
}
