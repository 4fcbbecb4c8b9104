package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// BatchFixture describes a batch row; zero ids are filled in by Fixtures.Batch
type BatchFixture struct {
	ID              int64
	Number          string
	DrugID          int64
	BrandID         int64
	ConcentrationID int64
	SupplierID      int64
	Type            string
	FullAmount      float64
	Remaining       float64
	Expiry          time.Time
	StockDate       time.Time
	Retail          decimal.Decimal
	Wholesale       decimal.Decimal
	Status          string
}

// Fixtures inserts clinic rows into an integration test schema
type Fixtures struct {
	t   *testing.T
	db  *database.DB
	seq int
}

// NewFixtures creates a fixture writer bound to db
func NewFixtures(t *testing.T, db *database.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) next() int {
	f.seq++
	return f.seq
}

func (f *Fixtures) insert(query string, args ...interface{}) int64 {
	f.t.Helper()
	var id int64
	err := f.db.GetContext(context.Background(), &id, query, args...)
	require.NoError(f.t, err, "fixture insert failed: %s", query)
	return id
}

// User inserts a staff user with the given password
func (f *Fixtures) User(email, password, role string) int64 {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(f.t, err)
	return f.insert(`INSERT INTO users (email, name, role, password_hash) VALUES ($1, $2, $3, $4) RETURNING id`,
		email, "Test User", role, string(hash))
}

// Patient inserts a patient
func (f *Fixtures) Patient(name string) int64 {
	return f.insert(`INSERT INTO patients (name, telephone, gender) VALUES ($1, $2, 'FEMALE') RETURNING id`,
		name, fmt.Sprintf("07%08d", f.next()))
}

// Drug inserts a drug model
func (f *Fixtures) Drug(name string) int64 {
	return f.insert(`INSERT INTO drugs (name) VALUES ($1) RETURNING id`, name)
}

// Brand inserts a drug brand
func (f *Fixtures) Brand(name string) int64 {
	return f.insert(`INSERT INTO drug_brands (name) VALUES ($1) RETURNING id`, name)
}

// Supplier inserts a supplier
func (f *Fixtures) Supplier(name string) int64 {
	return f.insert(`INSERT INTO suppliers (name, contact) VALUES ($1, '0112345678') RETURNING id`, name)
}

// Concentration inserts a unit concentration
func (f *Fixtures) Concentration(value float64) int64 {
	return f.insert(`INSERT INTO unit_concentrations (concentration) VALUES ($1) RETURNING id`, value)
}

// Charge inserts a configured fee
func (f *Fixtures) Charge(name, chargeType string, value decimal.Decimal) int64 {
	return f.insert(`INSERT INTO charges (name, type, value) VALUES ($1, $2, $3) RETURNING id`, name, chargeType, value)
}

// Batch inserts a batch, creating any missing referenced rows
func (f *Fixtures) Batch(b BatchFixture) BatchFixture {
	f.t.Helper()
	seq := f.next()
	if b.Number == "" {
		b.Number = fmt.Sprintf("B-%04d", seq)
	}
	if b.DrugID == 0 {
		b.DrugID = f.Drug(fmt.Sprintf("Drug %d", seq))
	}
	if b.BrandID == 0 {
		b.BrandID = f.Brand(fmt.Sprintf("Brand %d", seq))
	}
	if b.ConcentrationID == 0 {
		b.ConcentrationID = f.Concentration(float64(seq * 100))
	}
	if b.SupplierID == 0 {
		b.SupplierID = f.Supplier(fmt.Sprintf("Supplier %d", seq))
	}
	if b.Type == "" {
		b.Type = "TABLET"
	}
	if b.FullAmount == 0 {
		b.FullAmount = 100
		if b.Remaining == 0 {
			b.Remaining = 100
		}
	}
	if b.Expiry.IsZero() {
		b.Expiry = time.Now().AddDate(1, 0, 0)
	}
	if b.StockDate.IsZero() {
		b.StockDate = time.Now()
	}
	if b.Status == "" {
		b.Status = "AVAILABLE"
	}

	b.ID = f.insert(`INSERT INTO batches (number, drug_id, drug_brand_id, unit_concentration_id, supplier_id, type,
			full_amount, remaining_quantity, expiry, stock_date, retail_price, wholesale_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		b.Number, b.DrugID, b.BrandID, b.ConcentrationID, b.SupplierID, b.Type,
		b.FullAmount, b.Remaining, b.Expiry, b.StockDate, b.Retail, b.Wholesale, b.Status)
	return b
}

// Prescription inserts a prescription for patientID
func (f *Fixtures) Prescription(patientID int64, status string, surcharge decimal.Decimal) int64 {
	return f.insert(`INSERT INTO prescriptions (patient_id, status, extra_doctor_charge) VALUES ($1, $2, $3) RETURNING id`,
		patientID, status, surcharge)
}

// Issue inserts an unassigned issue on a prescription for the batch's drug line
func (f *Fixtures) Issue(prescriptionID int64, b BatchFixture, quantity float64) int64 {
	return f.insert(`INSERT INTO issues (prescription_id, drug_id, brand_id, unit_concentration_id, type, strategy, dose, quantity)
		VALUES ($1, $2, $3, $4, $5, 'TDS', 1, $6) RETURNING id`,
		prescriptionID, b.DrugID, b.BrandID, b.ConcentrationID, b.Type, quantity)
}
