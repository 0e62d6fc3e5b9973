// Package db wires the Postgres connection pool and schema migrations,
// the persistence collaborator backing the catalog and orders stores.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFS embed.FS

const connectRetries = 5

// Init opens the pgxpool connection pool used by internal/catalog's
// Postgres-backed Repository and internal/orders' Store.
func Init(ctx context.Context, connectionURL string, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("db: parse pool config: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: create pool: %w", err)
	}
	if !WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, fmt.Errorf("db: pool never became reachable")
	}
	return pool, nil
}

// WaitForDB retries Ping with a linear backoff.
func WaitForDB(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) bool {
	for attempt := 1; attempt <= connectRetries; attempt++ {
		if err := pool.Ping(ctx); err == nil {
			logger.Info("db: connection established")
			return true
		} else if attempt < connectRetries {
			wait := time.Duration(attempt) * 200 * time.Millisecond
			logger.Warn("db: ping failed, retrying", zap.Int("attempt", attempt), zap.Error(err), zap.Duration("wait", wait))
			time.Sleep(wait)
		} else {
			logger.Error("db: ping failed on final attempt", zap.Error(err))
		}
	}
	return false
}

// RunMigrations applies every embedded up-migration in order (restaurants,
// menu_items, orders). connectionURL
// is the same postgres:// DSN used for the pool; the pgx/v5 migrate driver
// is selected by rewriting the scheme to pgx5.
func RunMigrations(connectionURL string, logger *zap.Logger) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("db: load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateDSN(connectionURL))
	if err != nil {
		return fmt.Errorf("db: init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: run migrations: %w", err)
	}
	logger.Info("db: migrations applied")
	return nil
}

func migrateDSN(postgresURL string) string {
	if strings.HasPrefix(postgresURL, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(postgresURL, "postgres://")
	}
	if strings.HasPrefix(postgresURL, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(postgresURL, "postgresql://")
	}
	return postgresURL
}
