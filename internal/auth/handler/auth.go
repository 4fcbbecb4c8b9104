package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/clinic-backend/internal/auth/service"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/httputil"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// PublicRoutes are reachable without a token
func (h *AuthHandler) PublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Signed in", response)
}

// Me returns the current user's info
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == 0 {
		httputil.Error(w, errors.Unauthorized("not authenticated"))
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}
