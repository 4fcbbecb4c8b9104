package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillPDF(t *testing.T) {
	bill := &domain.Bill{
		BillID:           42,
		PrescriptionID:   1,
		PatientName:      "Nimali Perera",
		DoctorCharge:     decimal.NewFromInt(300),
		DispensaryCharge: decimal.NewFromInt(100),
		MedicinesCharge:  decimal.NewFromInt(600),
		Cost:             decimal.NewFromInt(1000),
		Entries: []domain.BillEntry{
			{DrugName: "Paracetamol", BrandName: "Panadol", Quantity: 10, UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(500)},
			{DrugName: "Cetirizine", BrandName: "Zyrtec", Quantity: 5, UnitPrice: decimal.NewFromInt(20), LineTotal: decimal.NewFromInt(100)},
		},
	}

	out, err := BillPDF(bill, "Family Clinic", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 500)
}

func TestBillPDF_NoEntries(t *testing.T) {
	out, err := BillPDF(&domain.Bill{BillID: 1}, "Family Clinic", time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "12.50", money(decimal.RequireFromString("12.5")))
	assert.Equal(t, "0.00", money(decimal.Zero))
}
