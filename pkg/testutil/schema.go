package testutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SchemaManager creates one throwaway schema per test so integration tests
// can share a container without seeing each other's rows.
type SchemaManager struct {
	db *sqlx.DB
}

// NewSchemaManager creates a schema manager over an admin connection
func NewSchemaManager(db *sqlx.DB) *SchemaManager {
	return &SchemaManager{db: db}
}

// Create creates a uniquely named schema and applies migrations inside it
func (sm *SchemaManager) Create(ctx context.Context, migrations []string) (string, error) {
	name := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	conn, err := sm.db.Connx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "CREATE SCHEMA "+name); err != nil {
		return "", fmt.Errorf("failed to create schema: %w", err)
	}
	// search_path is per session, so every statement must run on conn
	if _, err := conn.ExecContext(ctx, "SET search_path TO "+name); err != nil {
		return "", fmt.Errorf("failed to set search_path: %w", err)
	}
	for i, migration := range migrations {
		if _, err := conn.ExecContext(ctx, migration); err != nil {
			return "", fmt.Errorf("migration %d failed in %s: %w", i, name, err)
		}
	}
	if _, err := conn.ExecContext(ctx, "SET search_path TO public"); err != nil {
		return "", fmt.Errorf("failed to reset search_path: %w", err)
	}

	return name, nil
}

// Drop drops a schema created by Create
func (sm *SchemaManager) Drop(ctx context.Context, name string) error {
	if _, err := sm.db.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", name)); err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", name, err)
	}
	return nil
}
