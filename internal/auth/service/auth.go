package service

import (
	"context"

	"github.com/medflow/clinic-backend/internal/auth/jwt"
	"github.com/medflow/clinic-backend/internal/auth/repository"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles staff sign in
type AuthService struct {
	users      *repository.UserRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      repository.NewUserRepository(db),
		jwtManager: jwtManager,
		logger:     log.WithComponent("auth"),
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	*jwt.Token
	User *UserInfo `json:"user"`
}

// UserInfo represents user information
type UserInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toUserInfo(u *repository.User) *UserInfo {
	return &UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Login checks the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up user")
		return nil, errors.Internal("Failed to sign in")
	}
	if user == nil {
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info().Int64("user_id", user.ID).Msg("Rejected sign in")
		return nil, errors.InvalidCredentials()
	}

	token, err := s.jwtManager.Generate(&jwt.UserInfo{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sign token")
		return nil, errors.Internal("Failed to sign in")
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("Signed in")
	return &LoginResponse{Token: token, User: toUserInfo(user)}, nil
}

// Me returns the signed in user's profile
func (s *AuthService) Me(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up user")
		return nil, errors.Internal("Failed to load profile")
	}
	if user == nil {
		return nil, errors.NotFound("User")
	}
	return toUserInfo(user), nil
}
