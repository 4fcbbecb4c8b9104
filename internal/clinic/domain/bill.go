package domain

import (
	"github.com/shopspring/decimal"
)

// BatchAssignment pairs an issue with the batch it is dispensed from
type BatchAssignment struct {
	IssueID int64  `json:"issue_id" validate:"required,gt=0"`
	BatchID *int64 `json:"batch_id"`
}

// CalculateBillRequest is the input to bill calculation
type CalculateBillRequest struct {
	PrescriptionID int64             `json:"prescription_id" validate:"required,gt=0"`
	PatientID      int64             `json:"patient_id"`
	Assignments    []BatchAssignment `json:"assignments" validate:"dive"`
}

// BatchIDs returns the distinct batch ids in first-seen order. Assignments
// without a batch are skipped.
func (r *CalculateBillRequest) BatchIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Assignments))
	ids := make([]int64, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		if a.BatchID == nil {
			continue
		}
		if _, ok := seen[*a.BatchID]; ok {
			continue
		}
		seen[*a.BatchID] = struct{}{}
		ids = append(ids, *a.BatchID)
	}
	return ids
}

// IssueIDs returns the issue ids in request order
func (r *CalculateBillRequest) IssueIDs() []int64 {
	ids := make([]int64, len(r.Assignments))
	for i, a := range r.Assignments {
		ids[i] = a.IssueID
	}
	return ids
}

// Fees are the configured doctor and dispensary charges
type Fees struct {
	Doctor     decimal.Decimal
	Dispensary decimal.Decimal
}

// FeesFromCharges picks the reserved DOCTOR and DISPENSARY rows; a missing row is 0
func FeesFromCharges(charges []Charge) Fees {
	fees := Fees{Doctor: decimal.Zero, Dispensary: decimal.Zero}
	for _, c := range charges {
		switch c.Name {
		case DoctorChargeName:
			fees.Doctor = c.Value
		case DispensaryChargeName:
			fees.Dispensary = c.Value
		}
	}
	return fees
}

// BillEntry is one priced line of a bill
type BillEntry struct {
	IssueID   int64           `json:"issue_id"`
	BatchID   int64           `json:"batch_id"`
	DrugName  string          `json:"drug_name"`
	BrandName string          `json:"brand_name"`
	Quantity  float64         `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Bill is an itemized bill for one prescription
type Bill struct {
	BillID           int64           `json:"bill_id"`
	PrescriptionID   int64           `json:"prescription_id"`
	PatientID        int64           `json:"patient_id"`
	PatientName      string          `json:"patient_name"`
	DoctorCharge     decimal.Decimal `json:"doctor_charge"`
	DispensaryCharge decimal.Decimal `json:"dispensary_charge"`
	MedicinesCharge  decimal.Decimal `json:"medicines_charge"`
	Cost             decimal.Decimal `json:"cost"`
	Entries          []BillEntry     `json:"entries"`
}

// DispensedLine is an issue resolved against the batch it draws from
type DispensedLine struct {
	Issue Issue
	Batch BatchDetail
}

// LineTotal is quantity times the batch retail price
func (l DispensedLine) LineTotal() decimal.Decimal {
	return l.Batch.RetailPrice.Mul(decimal.NewFromFloat(l.Issue.Quantity))
}

// PriceBill itemizes lines and totals them with the doctor and dispensary charges
func PriceBill(p *Prescription, doctor, dispensary decimal.Decimal, lines []DispensedLine) Bill {
	bill := Bill{
		PrescriptionID:   p.ID,
		PatientID:        p.PatientID,
		PatientName:      p.PatientName,
		DoctorCharge:     doctor,
		DispensaryCharge: dispensary,
		MedicinesCharge:  decimal.Zero,
		Entries:          make([]BillEntry, 0, len(lines)),
	}

	for _, l := range lines {
		total := l.LineTotal()
		bill.MedicinesCharge = bill.MedicinesCharge.Add(total)
		bill.Entries = append(bill.Entries, BillEntry{
			IssueID:   l.Issue.ID,
			BatchID:   l.Batch.ID,
			DrugName:  l.Batch.DrugName,
			BrandName: l.Batch.BrandName,
			Quantity:  l.Issue.Quantity,
			UnitPrice: l.Batch.RetailPrice,
			LineTotal: total,
		})
	}

	bill.Cost = bill.MedicinesCharge.Add(doctor).Add(dispensary)
	return bill
}

// DoctorCharge is the configured doctor fee plus the prescription surcharge
func DoctorCharge(fees Fees, p *Prescription) decimal.Decimal {
	return fees.Doctor.Add(p.ExtraDoctorCharge)
}

// HistoryUpdates returns one history row per distinct HistoryKey touched by
// lines, in first-seen key order, each pointing at the last batch used.
func HistoryUpdates(lines []DispensedLine) []BatchHistory {
	index := make(map[HistoryKey]int)
	var out []BatchHistory
	for _, l := range lines {
		key := l.Batch.HistoryKey()
		if i, ok := index[key]; ok {
			out[i].BatchID = l.Batch.ID
			continue
		}
		index[key] = len(out)
		out = append(out, BatchHistory{HistoryKey: key, BatchID: l.Batch.ID})
	}
	return out
}
