package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// IntegrationSuite is one container shared by every integration test in
// the binary. Each test gets its own schema. Ryuk reaps the container
// when the binary exits.
type IntegrationSuite struct {
	Container *PostgresContainer
	Schemas   *SchemaManager
	Logger    *logger.Logger
}

var (
	suiteOnce sync.Once
	suite     *IntegrationSuite
	suiteErr  error
)

func sharedSuite(ctx context.Context) (*IntegrationSuite, error) {
	suiteOnce.Do(func() {
		c, err := NewPostgresContainer(ctx)
		if err != nil {
			suiteErr = err
			return
		}
		db, err := c.Connect(ctx)
		if err != nil {
			suiteErr = err
			return
		}
		suite = &IntegrationSuite{
			Container: c,
			Schemas:   NewSchemaManager(db),
			Logger:    logger.Nop(),
		}
	})
	return suite, suiteErr
}

// SetupDB creates a schema, applies migrations and returns a handle bound to
// it. The schema is dropped when t finishes.
func (s *IntegrationSuite) SetupDB(t *testing.T, ctx context.Context, migrations []string) *database.DB {
	t.Helper()

	schema, err := s.Schemas.Create(ctx, migrations)
	if err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	db, err := database.NewWithDSN(s.Container.SchemaDSN(schema), s.Logger)
	if err != nil {
		t.Fatalf("failed to connect to test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		if err := s.Schemas.Drop(context.Background(), schema); err != nil {
			t.Logf("warning: %v", err)
		}
	})
	return db
}

// SetupIntegrationDB skips under -short, otherwise returns a fresh migrated
// schema on the shared container.
func SetupIntegrationDB(t *testing.T, migrations []string) *database.DB {
	t.Helper()
	SkipIfShort(t)

	ctx := context.Background()
	s, err := sharedSuite(ctx)
	if err != nil {
		t.Fatalf("failed to start integration suite: %v", err)
	}
	return s.SetupDB(t, ctx, migrations)
}
