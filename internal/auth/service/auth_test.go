package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/medflow/clinic-backend/internal/auth/jwt"
	"github.com/medflow/clinic-backend/internal/auth/service"
	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{"id", "email", "name", "role", "password_hash", "created_at"}

func newAuth(mockDB *testutil.MockDB) (*service.AuthService, *jwt.Manager) {
	manager := jwt.NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "clinic"})
	return service.NewAuthService(mockDB.DB, manager, logger.Nop()), manager
}

func expectUser(t *testing.T, mockDB *testutil.MockDB, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	mockDB.ExpectQuery("FROM users WHERE lower(email) = $1").
		WithArgs("nurse@clinic.lk").
		WillReturnRows(testutil.MockRows(userCols...).
			AddRow(3, "nurse@clinic.lk", "Nurse", "dispenser", string(hash), time.Now()))
}

func TestLogin_IssuesToken(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	svc, manager := newAuth(mockDB)

	expectUser(t, mockDB, "s3cret")

	resp, err := svc.Login(context.Background(), &service.LoginRequest{Email: " Nurse@Clinic.lk", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.User.ID)
	assert.Equal(t, "Bearer", resp.TokenType)

	claims, err := manager.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "dispenser", claims.Role)
	mockDB.ExpectationsWereMet(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	svc, _ := newAuth(mockDB)

	expectUser(t, mockDB, "s3cret")

	_, err := svc.Login(context.Background(), &service.LoginRequest{Email: "nurse@clinic.lk", Password: "guess"})
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
	mockDB.ExpectationsWereMet(t)
}

func TestLogin_UnknownUser(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	svc, _ := newAuth(mockDB)

	mockDB.ExpectQuery("FROM users WHERE lower(email)").
		WillReturnRows(testutil.MockRows(userCols...))

	_, err := svc.Login(context.Background(), &service.LoginRequest{Email: "ghost@clinic.lk", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, errors.StatusCode(err))
	mockDB.ExpectationsWereMet(t)
}

func TestMe_MissingUser(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	svc, _ := newAuth(mockDB)

	mockDB.ExpectQuery("FROM users WHERE id = $1").
		WithArgs(int64(7)).
		WillReturnRows(testutil.MockRows(userCols...))

	_, err := svc.Me(context.Background(), 7)
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	mockDB.ExpectationsWereMet(t)
}
