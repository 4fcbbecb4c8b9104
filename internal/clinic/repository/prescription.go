package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
)

const prescriptionSelect = `
	SELECT p.id, p.patient_id, pt.name AS patient_name, p.time, p.status, p.extra_doctor_charge
	FROM prescriptions p
	JOIN patients pt ON pt.id = p.patient_id
	WHERE p.id = $1
`

const issueColumns = `id, prescription_id, drug_id, brand_id, unit_concentration_id, type, strategy, dose, quantity, batch_id`

// PrescriptionRepository handles prescriptions and their issues
type PrescriptionRepository struct {
	db *database.DB
}

// NewPrescriptionRepository creates a new prescription repository
func NewPrescriptionRepository(db *database.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

// Get gets a prescription with its patient's name
func (r *PrescriptionRepository) Get(ctx context.Context, id int64) (*domain.Prescription, error) {
	return r.get(ctx, prescriptionSelect, id)
}

// GetForUpdate is Get holding a row lock on the prescription until the
// transaction ends, so two bill calculations for it run one after the other
func (r *PrescriptionRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Prescription, error) {
	return r.get(ctx, prescriptionSelect+` FOR UPDATE OF p`, id)
}

func (r *PrescriptionRepository) get(ctx context.Context, query string, id int64) (*domain.Prescription, error) {
	var p domain.Prescription
	if err := r.db.Conn(ctx).GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("Prescription")
		}
		return nil, err
	}
	return &p, nil
}

// SetStatus writes a prescription status
func (r *PrescriptionRepository) SetStatus(ctx context.Context, id int64, status domain.PrescriptionStatus) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE prescriptions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("Prescription")
	}
	return nil
}

// Issues lists every issue of a prescription
func (r *PrescriptionRepository) Issues(ctx context.Context, prescriptionID int64) ([]domain.Issue, error) {
	issues := []domain.Issue{}
	query := `SELECT ` + issueColumns + ` FROM issues WHERE prescription_id = $1 ORDER BY id`
	if err := r.db.Conn(ctx).SelectContext(ctx, &issues, query, prescriptionID); err != nil {
		return nil, err
	}
	return issues, nil
}

// IssuesByIDs loads the listed issues that belong to the prescription
func (r *PrescriptionRepository) IssuesByIDs(ctx context.Context, prescriptionID int64, ids []int64) ([]domain.Issue, error) {
	issues := []domain.Issue{}
	if len(ids) == 0 {
		return issues, nil
	}
	query := `SELECT ` + issueColumns + ` FROM issues WHERE prescription_id = $1 AND id = ANY($2) ORDER BY id`
	if err := r.db.Conn(ctx).SelectContext(ctx, &issues, query, prescriptionID, pq.Array(ids)); err != nil {
		return nil, err
	}
	return issues, nil
}

// AssignBatch links an issue to the batch it is dispensed from
func (r *PrescriptionRepository) AssignBatch(ctx context.Context, issueID, batchID int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE issues SET batch_id = $2 WHERE id = $1`, issueID, batchID)
	if err != nil {
		return database.MapError(err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("Issue")
	}
	return nil
}
