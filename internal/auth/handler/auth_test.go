package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/auth/handler"
	"github.com/medflow/clinic-backend/internal/auth/jwt"
	"github.com/medflow/clinic-backend/internal/auth/service"
	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newRouter(mockDB *testutil.MockDB) http.Handler {
	manager := jwt.NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "clinic"})
	h := handler.NewAuthHandler(service.NewAuthService(mockDB.DB, manager, logger.Nop()))

	r := chi.NewRouter()
	r.Route("/api/v1/auth", h.PublicRoutes)
	r.Get("/api/v1/me", h.Me)
	return r
}

func TestLogin(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	mockDB.ExpectQuery("FROM users WHERE lower(email) = $1").
		WithArgs("admin@clinic.lk").
		WillReturnRows(testutil.MockRows("id", "email", "name", "role", "password_hash", "created_at").
			AddRow(int64(1), "admin@clinic.lk", "Admin", "admin", string(hash), time.Now()))

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "admin@clinic.lk",
		"password": "s3cret",
	})
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"access_token"`)
	testutil.AssertBodyContains(t, rr, `"token_type":"Bearer"`)
	mockDB.ExpectationsWereMet(t)
}

func TestLogin_InvalidBody(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "not-an-email"})
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "must be a valid email address")
	mockDB.ExpectationsWereMet(t)
}

func TestMe_RequiresUser(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	rr := testutil.ExecuteRequest(newRouter(mockDB), testutil.NewHTTPRequest(http.MethodGet, "/api/v1/me", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("FROM users WHERE id = $1").
		WithArgs(int64(4)).
		WillReturnRows(testutil.MockRows("id", "email", "name", "role", "password_hash", "created_at").
			AddRow(int64(4), "desk@clinic.lk", "Front Desk", "staff", "x", time.Now()))

	req := testutil.WithUser(testutil.NewHTTPRequest(http.MethodGet, "/api/v1/me", nil), 4, "desk@clinic.lk", "staff")
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, "Front Desk")
	mockDB.ExpectationsWereMet(t)
}
