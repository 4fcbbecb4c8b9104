package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
)

// PatientRepository handles patient persistence
type PatientRepository struct {
	db *database.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *database.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

const patientColumns = `id, name, nic, telephone, birth_date, address, height, weight, gender, created_at`

// Create inserts a patient and fills in its id
func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	query := `
		INSERT INTO patients (name, nic, telephone, birth_date, address, height, weight, gender)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	return r.db.Conn(ctx).QueryRowxContext(ctx, query,
		p.Name, p.NIC, p.Telephone, p.BirthDate, p.Address, p.Height, p.Weight, p.Gender,
	).Scan(&p.ID, &p.CreatedAt)
}

// Update overwrites the editable fields of a patient
func (r *PatientRepository) Update(ctx context.Context, id int64, p *domain.Patient) error {
	query := `
		UPDATE patients SET
			name = $2, nic = $3, telephone = $4, birth_date = $5,
			address = $6, height = $7, weight = $8, gender = $9
		WHERE id = $1
	`
	result, err := r.db.Conn(ctx).ExecContext(ctx, query,
		id, p.Name, p.NIC, p.Telephone, p.BirthDate, p.Address, p.Height, p.Weight, p.Gender,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("Patient")
	}
	return nil
}

// GetByID gets a patient by ID
func (r *PatientRepository) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	var p domain.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	if err := r.db.Conn(ctx).GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Patient")
		}
		return nil, err
	}
	return &p, nil
}

func searchColumn(field string) (string, error) {
	if field == "" {
		return "name", nil
	}
	col, ok := domain.PatientSearchFields[field]
	if !ok {
		return "", errors.BadRequest(fmt.Sprintf("Cannot search patients by %q", field))
	}
	return col, nil
}

// Search lists patients whose field contains query, ordered by name
func (r *PatientRepository) Search(ctx context.Context, field, query string, limit, offset int) ([]domain.Patient, error) {
	col, err := searchColumn(field)
	if err != nil {
		return nil, err
	}

	patients := []domain.Patient{}
	q := `SELECT ` + patientColumns + ` FROM patients WHERE ` + col + ` ILIKE $1 ORDER BY name, id LIMIT $2 OFFSET $3`
	if err := r.db.Conn(ctx).SelectContext(ctx, &patients, q, contains(query), limit, offset); err != nil {
		return nil, err
	}
	return patients, nil
}

// Count counts patients matching Search's filter
func (r *PatientRepository) Count(ctx context.Context, field, query string) (int, error) {
	col, err := searchColumn(field)
	if err != nil {
		return 0, err
	}

	var n int
	q := `SELECT COUNT(*) FROM patients WHERE ` + col + ` ILIKE $1`
	if err := r.db.Conn(ctx).GetContext(ctx, &n, q, contains(query)); err != nil {
		return 0, err
	}
	return n, nil
}
