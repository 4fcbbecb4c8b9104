// Package export renders printable documents.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/shopspring/decimal"
)

var entryColumns = []struct {
	title string
	width float64
	align string
}{
	{"Drug", 55, "L"},
	{"Brand", 45, "L"},
	{"Qty", 20, "R"},
	{"Unit price", 30, "R"},
	{"Total", 30, "R"},
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// BillPDF renders bill as a one page A4 receipt headed by clinic
func BillPDF(bill *domain.Bill, clinic string, printedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Bill %d", bill.BillID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, clinic, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(95, 6, fmt.Sprintf("Bill #%d  Prescription #%d", bill.BillID, bill.PrescriptionID), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 6, printedAt.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Patient: "+bill.PatientName, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range entryColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, e := range bill.Entries {
		cells := []string{
			e.DrugName,
			e.BrandName,
			decimal.NewFromFloat(e.Quantity).String(),
			money(e.UnitPrice),
			money(e.LineTotal),
		}
		for i, c := range entryColumns {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Medicines", bill.MedicinesCharge},
		{"Doctor charge", bill.DoctorCharge},
		{"Dispensary charge", bill.DispensaryCharge},
	}
	for _, t := range totals {
		pdf.CellFormat(150, 6, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, money(t.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, money(bill.Cost), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render bill %d: %w", bill.BillID, err)
	}
	return buf.Bytes(), nil
}
