// Package testutil holds test support for the clinic service: a shared
// PostgreSQL testcontainer with per-test schemas, sqlmock wrappers,
// fixtures and HTTP helpers.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage   = "postgres:15-alpine"
	postgresStartup = 60 * time.Second
)

// PostgresContainer is a throwaway clinic database.
type PostgresContainer struct {
	*postgres.PostgresContainer
	url *config.ParsedDatabaseURL
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts connections.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	c, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(postgresImage),
		postgres.WithDatabase("clinic_test"),
		postgres.WithUsername("clinic"),
		postgres.WithPassword("clinic"),
		testcontainers.WithWaitStrategy(
			// postgres logs readiness once for initdb and again for the real server
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(postgresStartup),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	raw, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	parsed, err := config.ParseDatabaseURL(raw)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, err
	}

	return &PostgresContainer{PostgresContainer: c, url: parsed}, nil
}

// DSN is the lib/pq connection string for the default schema.
func (c *PostgresContainer) DSN() string {
	return c.url.ToDSN()
}

// SchemaDSN is DSN with search_path pinned to schema.
func (c *PostgresContainer) SchemaDSN(schema string) string {
	pinned := *c.url
	pinned.Options = map[string]string{"search_path": schema}
	for k, v := range c.url.Options {
		if k != "search_path" {
			pinned.Options[k] = v
		}
	}
	return pinned.ToDSN()
}

func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}
