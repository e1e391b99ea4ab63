// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	embeddedmigrations "github.com/VaidehiLodhi/alibi-legal-assist/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaMigrationLockID int64 = 0x4c45475f4d494752 // "LEG_MIGR"

var errNilPool = errors.New("nil database pool")

var requiredColumns = map[string][]string{
	"contact_info": {"project_id", "gmail_address", "updated_at"},
	"messages":     {"project_id", "role", "type", "status", "attempts", "claimed_at"},
}

// SchemaHealthChecker backs /healthz when a database is configured.
type SchemaHealthChecker struct {
	pool *pgxpool.Pool
}

func NewSchemaHealthChecker(pool *pgxpool.Pool) *SchemaHealthChecker {
	return &SchemaHealthChecker{pool: pool}
}

func (h *SchemaHealthChecker) Check(ctx context.Context) error {
	return SchemaReady(ctx, h.pool)
}

// EnsureSchema applies pending embedded migrations under a session advisory
// lock, so concurrent api and worker startups apply each file once.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if pool == nil {
		return errNilPool
	}
	if logger == nil {
		logger = slog.Default()
	}

	started := time.Now()

	migrations, err := embeddedmigrations.Ordered()
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	if len(migrations) == 0 {
		return errors.New("no embedded migrations found")
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection for migrations: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, schemaMigrationLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, schemaMigrationLockID); err != nil {
			logger.Error("migration unlock failed", "error", err)
		}
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	pending := 0
	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		pending++

		logger.Info("applying migration", "file", migration.Name, "version", migration.Version)
		if err := applyMigration(ctx, conn, migration); err != nil {
			return fmt.Errorf("apply migration %s: %w", migration.Name, err)
		}
	}

	logger.Info("schema up to date",
		"applied", pending,
		"total", len(migrations),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return SchemaReady(ctx, pool)
}

func appliedVersions(ctx context.Context, conn *pgxpool.Conn) (map[string]struct{}, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}

	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan applied migrations: %w", err)
	}

	out := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		out[v] = struct{}{}
	}
	return out, nil
}

func applyMigration(ctx context.Context, conn *pgxpool.Conn, migration embeddedmigrations.File) error {
	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.SQL, pgx.QueryExecModeSimpleProtocol); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO schema_migrations (version, filename)
			VALUES ($1, $2)
		`, migration.Version, migration.Name)
		return err
	})
}

// SchemaReady reports missing tables or columns as a single error.
func SchemaReady(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errNilPool
	}

	var missing []string
	for table, columns := range requiredColumns {
		rows, err := pool.Query(ctx, `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = 'public'
			  AND table_name = $1
		`, table)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", table, err)
		}

		present, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("scan columns of %s: %w", table, err)
		}
		if len(present) == 0 {
			missing = append(missing, table)
			continue
		}

		have := make(map[string]struct{}, len(present))
		for _, c := range present {
			have[c] = struct{}{}
		}
		for _, c := range columns {
			if _, ok := have[c]; !ok {
				missing = append(missing, table+"."+c)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
