package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/medflow/clinic-backend/internal/auth"
	"github.com/medflow/clinic-backend/internal/auth/jwt"
	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	manager := jwt.NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "clinic"})
	token, err := manager.Generate(&jwt.UserInfo{ID: 9, Email: "pharm@clinic.lk", Role: "dispenser"})
	require.NoError(t, err)

	var seenID int64
	var seenRole string
	protected := auth.Middleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = httputil.GetUserID(r.Context())
		if staff := httputil.StaffFrom(r.Context()); staff != nil {
			seenRole = staff.Role
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token.AccessToken, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token.AccessToken, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenID = 0
			req := testutil.NewHTTPRequest(http.MethodGet, "/api/v1/patients", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := testutil.ExecuteRequest(protected, req)
			testutil.AssertStatus(t, rr, tt.status)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, int64(9), seenID)
				assert.Equal(t, "dispenser", seenRole)
			} else {
				assert.Zero(t, seenID)
				testutil.AssertBodyContains(t, rr, `"success":false`)
			}
		})
	}
}
