package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "clinic"})
}

func TestGenerateAndValidate(t *testing.T) {
	m := newTestManager()

	token, err := m.Generate(&UserInfo{ID: 42, Email: "nurse@clinic.lk", Name: "Nurse", Role: "dispenser"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)

	claims, err := m.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "dispenser", claims.Role)
}

func TestValidate_Expired(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Generate(&UserInfo{ID: 1})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token.AccessToken)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "TOKEN_EXPIRED", appErr.Code)
}

func TestValidate_Rejections(t *testing.T) {
	other := NewManager(&config.JWTConfig{Secret: "other-secret", AccessExpiry: time.Hour, Issuer: "clinic"})
	foreign, err := other.Generate(&UserInfo{ID: 1})
	require.NoError(t, err)

	wrongIssuer := NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "elsewhere"})
	misissued, err := wrongIssuer.Generate(&UserInfo{ID: 1})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign.AccessToken},
		{"wrong issuer", misissued.AccessToken},
	}

	m := newTestManager()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			require.Error(t, err)
			assert.Equal(t, http.StatusUnauthorized, errors.StatusCode(err))
		})
	}
}
