package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeBulkUpdate_InsertsAndUpdates(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE charges SET name = $2").
		WithArgs(int64(1), "DOCTOR", domain.ChargeDoctor, decimal.NewFromInt(350)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("INSERT INTO charges").
		WithArgs("Dressing", domain.ChargeProcedure, decimal.NewFromInt(150)).
		WillReturnRows(testutil.MockRows("id").AddRow(int64(7)))
	mockDB.ExpectCommit()

	saved, err := service.NewChargeService(mockDB.DB, logger.Nop()).BulkUpdate(context.Background(), []domain.ChargeInput{
		{ID: 1, Name: "DOCTOR", Type: domain.ChargeDoctor, Value: decimal.NewFromInt(350)},
		{ID: -1, Name: " Dressing ", Type: domain.ChargeProcedure, Value: decimal.NewFromInt(150)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, int64(7), saved[1].ID)
	assert.Equal(t, "Dressing", saved[1].Name)
	mockDB.ExpectationsWereMet(t)
}

func TestChargeBulkUpdate_RejectsBadRows(t *testing.T) {
	tests := []struct {
		name  string
		input domain.ChargeInput
	}{
		{"blank name", domain.ChargeInput{Name: "  ", Type: domain.ChargeFixed, Value: decimal.NewFromInt(1)}},
		{"negative value", domain.ChargeInput{Name: "Lab", Type: domain.ChargeFixed, Value: decimal.NewFromInt(-1)}},
		{"unknown type", domain.ChargeInput{Name: "Lab", Type: "BONUS", Value: decimal.NewFromInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			defer mockDB.Close()

			_, err := service.NewChargeService(mockDB.DB, logger.Nop()).
				BulkUpdate(context.Background(), []domain.ChargeInput{tt.input})
			assert.Equal(t, http.StatusBadRequest, errors.StatusCode(err))
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestChargeBulkUpdate_DuplicateNameRollsBack(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO charges").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "charges_name_key"})
	mockDB.ExpectRollback()

	_, err := service.NewChargeService(mockDB.DB, logger.Nop()).BulkUpdate(context.Background(), []domain.ChargeInput{
		{Name: "Lab", Type: domain.ChargeFixed, Value: decimal.NewFromInt(1)},
	})
	assert.Equal(t, http.StatusConflict, errors.StatusCode(err))
	mockDB.ExpectationsWereMet(t)
}

func TestChargeDelete(t *testing.T) {
	t.Run("reserved charge stays", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectBegin()
		mockDB.ExpectQuery("FROM charges WHERE id = $1").
			WithArgs(int64(1)).
			WillReturnRows(testutil.MockRows(chargeCols...).AddRow(int64(1), "DISPENSARY", "DISPENSARY", "100"))
		mockDB.ExpectRollback()

		err := service.NewChargeService(mockDB.DB, logger.Nop()).Delete(context.Background(), 1)
		assert.Equal(t, http.StatusConflict, errors.StatusCode(err))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("ordinary charge", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectBegin()
		mockDB.ExpectQuery("FROM charges WHERE id = $1").
			WillReturnRows(testutil.MockRows(chargeCols...).AddRow(int64(5), "Lab", "FIXED", "250"))
		mockDB.ExpectExec("DELETE FROM charges").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectCommit()

		err := service.NewChargeService(mockDB.DB, logger.Nop()).Delete(context.Background(), 5)
		require.NoError(t, err)
		mockDB.ExpectationsWereMet(t)
	})
}
