package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of a batch
type BatchStatus string

const (
	BatchAvailable     BatchStatus = "AVAILABLE"
	BatchCompleted     BatchStatus = "COMPLETED"
	BatchExpired       BatchStatus = "EXPIRED"
	BatchDisposed      BatchStatus = "DISPOSED"
	BatchQualityFailed BatchStatus = "QUALITY_FAILED"
)

// BatchStatuses lists every known batch status
var BatchStatuses = []BatchStatus{
	BatchAvailable, BatchCompleted, BatchExpired, BatchDisposed, BatchQualityFailed,
}

// Valid reports whether s is a known status
func (s BatchStatus) Valid() bool {
	for _, known := range BatchStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// DrugType is the dosage form of a drug
type DrugType string

const (
	DrugTablet      DrugType = "TABLET"
	DrugCapsule     DrugType = "CAPSULE"
	DrugSyrup       DrugType = "SYRUP"
	DrugEyeDrop     DrugType = "EYE_DROP"
	DrugEarDrop     DrugType = "EAR_DROP"
	DrugNasalDrop   DrugType = "NASAL_DROP"
	DrugCream       DrugType = "CREAM"
	DrugOintment    DrugType = "OINTMENT"
	DrugGel         DrugType = "GEL"
	DrugLotion      DrugType = "LOTION"
	DrugInjection   DrugType = "INJECTION"
	DrugInhaler     DrugType = "INHALER"
	DrugSpray       DrugType = "SPRAY"
	DrugPowder      DrugType = "POWDER"
	DrugSuppository DrugType = "SUPPOSITORY"
	DrugOther       DrugType = "OTHER"
)

// PrescriptionStatus is the state of a prescription
type PrescriptionStatus string

const (
	PrescriptionPending    PrescriptionStatus = "PENDING"
	PrescriptionPrescribed PrescriptionStatus = "PRESCRIBED"
	PrescriptionCompleted  PrescriptionStatus = "COMPLETED"
)

// ChargeType classifies a configured fee
type ChargeType string

const (
	ChargeFixed      ChargeType = "FIXED"
	ChargePercentage ChargeType = "PERCENTAGE"
	ChargeDiscount   ChargeType = "DISCOUNT"
	ChargeProcedure  ChargeType = "PROCEDURE"
	ChargeDoctor     ChargeType = "DOCTOR"
	ChargeDispensary ChargeType = "DISPENSARY"
)

// Reserved charge rows read by the bill calculator
const (
	DoctorChargeName     = "DOCTOR"
	DispensaryChargeName = "DISPENSARY"
)

// IsReserved reports whether the charge row is read by billing and must stay
func (c *Charge) IsReserved() bool {
	return c.Name == DoctorChargeName || c.Name == DispensaryChargeName
}

// Patient represents a registered patient
type Patient struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	NIC       *string    `json:"nic,omitempty" db:"nic"`
	Telephone string     `json:"telephone" db:"telephone"`
	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	Address   *string    `json:"address,omitempty" db:"address"`
	Height    *float64   `json:"height,omitempty" db:"height"`
	Weight    *float64   `json:"weight,omitempty" db:"weight"`
	Gender    string     `json:"gender" db:"gender"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Drug is a drug model, e.g. Paracetamol
type Drug struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Brand is a manufacturer brand
type Brand struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

// Supplier delivers batches
type Supplier struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Contact string `json:"contact" db:"contact"`
}

// Concentration is a unit concentration such as 500 (mg)
type Concentration struct {
	ID            int64   `json:"id" db:"id"`
	Concentration float64 `json:"concentration" db:"concentration"`
}

// Batch is one physical lot of a drug
type Batch struct {
	ID                int64           `json:"id" db:"id"`
	Number            string          `json:"number" db:"number"`
	DrugID            int64           `json:"drug_id" db:"drug_id"`
	BrandID           int64           `json:"brand_id" db:"drug_brand_id"`
	ConcentrationID   int64           `json:"unit_concentration_id" db:"unit_concentration_id"`
	SupplierID        int64           `json:"supplier_id" db:"supplier_id"`
	Type              DrugType        `json:"type" db:"type"`
	FullAmount        float64         `json:"full_amount" db:"full_amount"`
	RemainingQuantity float64         `json:"remaining_quantity" db:"remaining_quantity"`
	Expiry            time.Time       `json:"expiry" db:"expiry"`
	StockDate         time.Time       `json:"stock_date" db:"stock_date"`
	RetailPrice       decimal.Decimal `json:"retail_price" db:"retail_price"`
	WholesalePrice    decimal.Decimal `json:"wholesale_price" db:"wholesale_price"`
	Status            BatchStatus     `json:"status" db:"status"`
}

// StockKey returns the buffer-level group the batch belongs to
func (b *Batch) StockKey() StockKey {
	return StockKey{DrugID: b.DrugID, Type: b.Type, ConcentrationID: b.ConcentrationID}
}

// BatchDetail is a batch with the names of everything it references
type BatchDetail struct {
	Batch
	DrugName      string  `json:"drug_name" db:"drug_name"`
	BrandName     string  `json:"brand_name" db:"brand_name"`
	SupplierName  string  `json:"supplier_name" db:"supplier_name"`
	Concentration float64 `json:"concentration" db:"concentration"`
}

// StockKey identifies a (drug, type, concentration) buffer group
type StockKey struct {
	DrugID          int64    `json:"drug_id" db:"drug_id"`
	Type            DrugType `json:"type" db:"type"`
	ConcentrationID int64    `json:"unit_concentration_id" db:"unit_concentration_id"`
}

// BufferLevel is the minimum desired stock for a StockKey
type BufferLevel struct {
	StockKey
	ID           int64   `json:"id" db:"id"`
	BufferAmount float64 `json:"buffer_amount" db:"buffer_amount"`
}

// HistoryKey identifies a batch history row
type HistoryKey struct {
	DrugID          int64    `db:"drug_id"`
	BrandID         int64    `db:"drug_brand_id"`
	Type            DrugType `db:"type"`
	ConcentrationID int64    `db:"unit_concentration_id"`
}

// HistoryKey returns the preference key for the batch
func (b *Batch) HistoryKey() HistoryKey {
	return HistoryKey{DrugID: b.DrugID, BrandID: b.BrandID, Type: b.Type, ConcentrationID: b.ConcentrationID}
}

// BatchHistory remembers the last batch dispensed for a HistoryKey
type BatchHistory struct {
	ID int64 `db:"id"`
	HistoryKey
	BatchID int64 `db:"batch_id"`
}

// Prescription is a visit's prescription with the patient's name joined in
type Prescription struct {
	ID                int64              `json:"id" db:"id"`
	PatientID         int64              `json:"patient_id" db:"patient_id"`
	PatientName       string             `json:"patient_name" db:"patient_name"`
	Time              time.Time          `json:"time" db:"time"`
	Status            PrescriptionStatus `json:"status" db:"status"`
	ExtraDoctorCharge decimal.Decimal    `json:"extra_doctor_charge" db:"extra_doctor_charge"`
}

// Issue is one prescribed drug line
type Issue struct {
	ID              int64    `json:"id" db:"id"`
	PrescriptionID  int64    `json:"prescription_id" db:"prescription_id"`
	DrugID          int64    `json:"drug_id" db:"drug_id"`
	BrandID         int64    `json:"brand_id" db:"brand_id"`
	ConcentrationID int64    `json:"unit_concentration_id" db:"unit_concentration_id"`
	Type            DrugType `json:"type" db:"type"`
	Strategy        string   `json:"strategy" db:"strategy"`
	Dose            float64  `json:"dose" db:"dose"`
	Quantity        float64  `json:"quantity" db:"quantity"`
	BatchID         *int64   `json:"batch_id,omitempty" db:"batch_id"`
}

// BillRecord is the stored bill row
type BillRecord struct {
	ID               int64           `db:"id"`
	PrescriptionID   int64           `db:"prescription_id"`
	DoctorCharge     decimal.Decimal `db:"doctor_charge"`
	DispensaryCharge decimal.Decimal `db:"dispensary_charge"`
	MedicinesCharge  decimal.Decimal `db:"medicines_charge"`
}

// Charge is a configured fee row
type Charge struct {
	ID    int64           `json:"id" db:"id"`
	Name  string          `json:"name" db:"name"`
	Type  ChargeType      `json:"type" db:"type"`
	Value decimal.Decimal `json:"value" db:"value"`
}

// IssuedPatient is one dispensation drawn from a batch
type IssuedPatient struct {
	IssueID        int64     `json:"id" db:"id"`
	IssuedDate     time.Time `json:"issued_date" db:"issued_date"`
	PatientID      int64     `json:"patient_id" db:"patient_id"`
	PatientName    string    `json:"patient_name" db:"patient_name"`
	PrescriptionID int64     `json:"prescription_id" db:"prescription_id"`
	IssuedAmount   float64   `json:"issued_amount" db:"issued_amount"`
}
