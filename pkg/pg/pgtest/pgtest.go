//go:build integration

// Package pgtest starts a throwaway PostgreSQL container with all migrations
// applied. It is only compiled with the integration build tag.
package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmitrymomot/billingkit/migrations"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

// Setup returns a migrated pool. The container is removed on test cleanup.
func Setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("billing"),
		postgres.WithUsername("billing"),
		postgres.WithPassword("billing"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := pg.Config{
		ConnectionString: dsn,
		MaxOpenConns:     5,
		MaxIdleConns:     1,
		RetryAttempts:    3,
		RetryInterval:    time.Second,
		MigrationsDir:    ".",
		MigrationsTable:  "schema_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, migrations.FS, cfg, logger.Noop()))
	return pool
}
