package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewConcentrationID marks an intake whose concentration is typed in rather than picked
const NewConcentrationID int64 = -1

// ReceiveStockRequest is the inventory intake form
type ReceiveStockRequest struct {
	DrugID           *int64          `json:"drug_id"`
	DrugName         string          `json:"drug_name" validate:"required_without=DrugID"`
	BrandID          *int64          `json:"brand_id"`
	BrandName        string          `json:"brand_name" validate:"required_without=BrandID"`
	BrandDescription *string         `json:"brand_description"`
	SupplierID       *int64          `json:"supplier_id"`
	SupplierName     string          `json:"supplier_name" validate:"required"`
	SupplierContact  string          `json:"supplier_contact" validate:"required"`
	ConcentrationID  int64           `json:"concentration_id" validate:"required"`
	Concentration    float64         `json:"concentration" validate:"required,gt=0"`
	BatchNumber      string          `json:"batch_number" validate:"required"`
	DrugType         DrugType        `json:"drug_type" validate:"required,oneof=TABLET CAPSULE SYRUP EYE_DROP EAR_DROP NASAL_DROP CREAM OINTMENT GEL LOTION INJECTION INHALER SPRAY POWDER SUPPOSITORY OTHER"`
	Quantity         float64         `json:"quantity" validate:"required,gt=0"`
	Expiry           string          `json:"expiry" validate:"required,datetime=2006-01-02"`
	RetailPrice      decimal.Decimal `json:"retail_price"`
	WholesalePrice   decimal.Decimal `json:"wholesale_price"`
	Buffer           float64         `json:"buffer" validate:"gte=0"`
}

// ExpiryDate parses Expiry; call after validation
func (r *ReceiveStockRequest) ExpiryDate() time.Time {
	t, _ := time.Parse("2006-01-02", r.Expiry)
	return t
}

// UpdateBufferRequest sets the buffer level of one stock group
type UpdateBufferRequest struct {
	DrugID          int64    `json:"drug_id"`
	Type            DrugType `json:"type" validate:"required,oneof=TABLET CAPSULE SYRUP EYE_DROP EAR_DROP NASAL_DROP CREAM OINTMENT GEL LOTION INJECTION INHALER SPRAY POWDER SUPPOSITORY OTHER"`
	ConcentrationID int64    `json:"unit_concentration_id" validate:"required,gt=0"`
	BufferAmount    float64  `json:"buffer_amount"`
}

// ChangeStatusRequest is a batch status action
type ChangeStatusRequest struct {
	BatchID int64        `json:"batch_id"`
	Action  StatusAction `json:"action" validate:"required"`
}

// ChargeInput is one row of a bulk fee update. ID 0 or -1 inserts.
type ChargeInput struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name" validate:"required"`
	Type  ChargeType      `json:"type" validate:"required,oneof=FIXED PERCENTAGE DISCOUNT PROCEDURE DOCTOR DISPENSARY"`
	Value decimal.Decimal `json:"value"`
}

// IsNew reports whether the row should be inserted
func (c ChargeInput) IsNew() bool {
	return c.ID <= 0
}

// BatchSuggestion is an AVAILABLE batch offered when assigning an issue
type BatchSuggestion struct {
	BatchDetail
	Preferred bool `json:"preferred"`
}

// DrugSuggestion is a name match for the intake form
type DrugSuggestion struct {
	ID           int64         `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	BufferLevels []BufferLevel `json:"buffer_levels,omitempty" db:"-"`
}

// BrandSuggestion is a brand name match for the intake form
type BrandSuggestion struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}
