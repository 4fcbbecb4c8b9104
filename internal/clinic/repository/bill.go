package repository

import (
	"context"
	"database/sql"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/shopspring/decimal"
)

// BillRepository handles stored bills
type BillRepository struct {
	db *database.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *database.DB) *BillRepository {
	return &BillRepository{db: db}
}

// FindByPrescription returns nil when the prescription has no bill
func (r *BillRepository) FindByPrescription(ctx context.Context, prescriptionID int64) (*domain.BillRecord, error) {
	var b domain.BillRecord
	query := `
		SELECT id, prescription_id, doctor_charge, dispensary_charge, medicines_charge
		FROM bills WHERE prescription_id = $1
	`
	err := r.db.Conn(ctx).GetContext(ctx, &b, query, prescriptionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert creates a bill
func (r *BillRepository) Insert(ctx context.Context, b *domain.BillRecord) error {
	query := `
		INSERT INTO bills (prescription_id, doctor_charge, dispensary_charge, medicines_charge)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		b.PrescriptionID, b.DoctorCharge, b.DispensaryCharge, b.MedicinesCharge,
	).Scan(&b.ID)
	return database.MapError(err)
}

// UpdateCharges overwrites every charge of an existing bill
func (r *BillRepository) UpdateCharges(ctx context.Context, b *domain.BillRecord) error {
	query := `
		UPDATE bills SET doctor_charge = $2, dispensary_charge = $3, medicines_charge = $4
		WHERE id = $1
	`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, b.ID, b.DoctorCharge, b.DispensaryCharge, b.MedicinesCharge)
	return database.MapError(err)
}

// SetMedicinesCharge writes the summed medicine lines
func (r *BillRepository) SetMedicinesCharge(ctx context.Context, id int64, amount decimal.Decimal) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `UPDATE bills SET medicines_charge = $2 WHERE id = $1`, id, amount)
	return database.MapError(err)
}
