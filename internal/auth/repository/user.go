package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/medflow/clinic-backend/pkg/database"
)

// User is a staff account that can sign in
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserRepository reads staff accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail returns the account for email, or nil when there is none
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	query := `SELECT id, email, name, role, password_hash, created_at FROM users WHERE lower(email) = $1`
	if err := r.db.Conn(ctx).GetContext(ctx, &u, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns the account with id, or nil when there is none
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	query := `SELECT id, email, name, role, password_hash, created_at FROM users WHERE id = $1`
	if err := r.db.Conn(ctx).GetContext(ctx, &u, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
