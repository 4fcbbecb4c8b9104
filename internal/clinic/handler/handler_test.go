package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/events"
	"github.com/medflow/clinic-backend/internal/clinic/handler"
	"github.com/medflow/clinic-backend/internal/clinic/service"
	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patientCols = []string{"id", "name", "nic", "telephone", "birth_date", "address", "height", "weight", "gender", "created_at"}

func newRouter(t *testing.T, mockDB *testutil.MockDB) http.Handler {
	t.Helper()
	log := logger.Nop()
	pub := events.NewWithPublisher(testutil.NewMockPublisher(), log)
	policy, err := domain.NewTransitionPolicy(config.DefaultStatusTransitions)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		handler.NewBillingHandler(service.NewBillingService(mockDB.DB, time.Second, pub, log), "Test Clinic", log).Mount(r)
		handler.NewInventoryHandler(
			service.NewInventoryService(mockDB.DB, policy, pub, log),
			service.NewBufferService(mockDB.DB, pub, log),
			log,
		).Mount(r)
		handler.NewStockHandler(service.NewStockService(mockDB.DB, log), log).Mount(r)
		handler.NewPatientHandler(service.NewPatientService(mockDB.DB, log), log).Mount(r)
		handler.NewChargeHandler(service.NewChargeService(mockDB.DB, log), log).Mount(r)
	})
	return r
}

func TestRejectedBeforeTouchingTheDatabase(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"bad patient id", http.MethodGet, "/api/v1/patients/abc", nil, http.StatusBadRequest},
		{"zero patient id", http.MethodGet, "/api/v1/patients/0", nil, http.StatusBadRequest},
		{"malformed patient json", http.MethodPost, "/api/v1/patients", `{"name":`, http.StatusBadRequest},
		{"patient without gender", http.MethodPost, "/api/v1/patients", map[string]string{"name": "A", "telephone": "0771234567"}, http.StatusBadRequest},
		{"bill without json", http.MethodPost, "/api/v1/prescriptions/4/bill", nil, http.StatusBadRequest},
		{"bill with bad issue", http.MethodPost, "/api/v1/prescriptions/4/bill", map[string]interface{}{
			"assignments": []map[string]interface{}{{"issue_id": 0}},
		}, http.StatusBadRequest},
		{"malformed from date", http.MethodGet, "/api/v1/stock/analysis?from=01-02-2024", nil, http.StatusBadRequest},
		{"range ends before it starts", http.MethodGet, "/api/v1/stock/available/models?from=2024-02-01&to=2024-01-01", nil, http.StatusBadRequest},
		{"unknown valuation selection", http.MethodGet, "/api/v1/stock/value/pages?selection=shelf", nil, http.StatusBadRequest},
		{"concentrations without type", http.MethodGet, "/api/v1/catalog/concentrations?drug_id=3", nil, http.StatusBadRequest},
		{"batch suggestions without brand", http.MethodGet, "/api/v1/inventory/batches/suggestions?drug_id=3", nil, http.StatusBadRequest},
		{"unknown status action", http.MethodPut, "/api/v1/inventory/batches/8/status", map[string]string{"action": "lost"}, http.StatusBadRequest},
		{"negative buffer", http.MethodPut, "/api/v1/inventory/buffers", map[string]interface{}{"drug_id": 1, "buffer_amount": -1}, http.StatusBadRequest},
		{"empty charge form", http.MethodPut, "/api/v1/charges", []interface{}{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			defer mockDB.Close()

			rr := testutil.ExecuteRequest(newRouter(t, mockDB), testutil.NewHTTPRequest(tt.method, tt.path, tt.body))
			testutil.AssertStatus(t, rr, tt.status)

			var resp httputil.Response
			testutil.ParseJSONBody(t, rr, &resp)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestGetPatient(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM patients WHERE id = $1").
		WithArgs(int64(3)).
		WillReturnRows(testutil.MockRows(patientCols...).
			AddRow(int64(3), "Nimali Perera", nil, "0779876543", nil, nil, nil, nil, "FEMALE", time.Now()))

	rr := testutil.ExecuteRequest(newRouter(t, mockDB), testutil.NewHTTPRequest(http.MethodGet, "/api/v1/patients/3", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, "Nimali Perera")
	mockDB.ExpectationsWereMet(t)
}

func TestPatientPages(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT COUNT(*) FROM patients WHERE name ILIKE $1").
		WithArgs("%nim%").
		WillReturnRows(testutil.MockRows("count").AddRow(21))

	rr := testutil.ExecuteRequest(newRouter(t, mockDB), testutil.NewHTTPRequest(http.MethodGet, "/api/v1/patients/pages?q=nim", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var pages struct {
		TotalPages int `json:"total_pages"`
	}
	testutil.ParseData(t, rr, &pages)
	assert.Equal(t, 3, pages.TotalPages)
	mockDB.ExpectationsWereMet(t)
}

func TestDeleteReservedCharge(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM charges WHERE id = $1").
		WithArgs(int64(2)).
		WillReturnRows(testutil.MockRows("id", "name", "type", "value").AddRow(int64(2), "DOCTOR", "DOCTOR", "300"))
	mockDB.ExpectRollback()

	rr := testutil.ExecuteRequest(newRouter(t, mockDB), testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/charges/2", nil))
	testutil.AssertStatus(t, rr, http.StatusConflict)
	testutil.AssertBodyContains(t, rr, "cannot be deleted")
	mockDB.ExpectationsWereMet(t)
}

func TestDeleteCharge(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM charges WHERE id = $1").
		WillReturnRows(testutil.MockRows("id", "name", "type", "value").AddRow(int64(6), "Nebulizing", "PROCEDURE", "450"))
	mockDB.ExpectExec("DELETE FROM charges").
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	rr := testutil.ExecuteRequest(newRouter(t, mockDB), testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/charges/6", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp httputil.Response
	testutil.ParseJSONBody(t, rr, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Charge deleted", resp.Message)
	mockDB.ExpectationsWereMet(t)
}

func TestConcentrations(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("WHERE b.drug_id = $1 AND b.type = $2").
		WithArgs(int64(3), "TABLET").
		WillReturnRows(testutil.MockRows("id", "concentration").AddRow(int64(1), 250.0).AddRow(int64(2), 500.0))

	rr := testutil.ExecuteRequest(newRouter(t, mockDB), testutil.NewHTTPRequest(http.MethodGet, "/api/v1/catalog/concentrations?drug_id=3&type=TABLET", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data []domain.Concentration `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	require.Len(t, resp.Data, 2)
	mockDB.ExpectationsWereMet(t)
}
