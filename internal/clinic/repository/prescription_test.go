package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrescriptionGetForUpdate(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("WHERE p.id = $1 FOR UPDATE OF p").
		WithArgs(int64(1)).
		WillReturnRows(testutil.MockRows("id", "patient_id", "patient_name", "time", "status", "extra_doctor_charge").
			AddRow(1, 5, "Nimal Perera", time.Now(), "PRESCRIBED", "150.00"))

	repo := repository.NewPrescriptionRepository(mockDB.DB)
	p, err := repo.GetForUpdate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Nimal Perera", p.PatientName)
	assert.Equal(t, domain.PrescriptionPrescribed, p.Status)
	assert.Equal(t, "150", p.ExtraDoctorCharge.String())
	mockDB.ExpectationsWereMet(t)
}

func TestPrescriptionGet_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM prescriptions p").WillReturnError(sql.ErrNoRows)

	repo := repository.NewPrescriptionRepository(mockDB.DB)
	_, err := repo.Get(context.Background(), 42)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Prescription not found", appErr.Message)
}

func TestPrescriptionIssuesByIDs_ScopedToPrescription(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM issues WHERE prescription_id = $1 AND id = ANY($2)").
		WithArgs(int64(1), pq.Array([]int64{10, 11})).
		WillReturnRows(testutil.MockRows("id", "prescription_id", "drug_id", "brand_id", "quantity", "batch_id").
			AddRow(10, 1, 3, 4, 10.0, nil).
			AddRow(11, 1, 3, 5, 5.0, 9))

	repo := repository.NewPrescriptionRepository(mockDB.DB)
	issues, err := repo.IssuesByIDs(context.Background(), 1, []int64{10, 11})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Nil(t, issues[0].BatchID)
	require.NotNil(t, issues[1].BatchID)
	assert.Equal(t, int64(9), *issues[1].BatchID)
	mockDB.ExpectationsWereMet(t)
}

func TestPrescriptionAssignBatch_UnknownIssue(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE issues SET batch_id = $2").
		WithArgs(int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := repository.NewPrescriptionRepository(mockDB.DB)
	err := repo.AssignBatch(context.Background(), 10, 2)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
