// Package migration brings the metadata store schema up to date at startup.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id          UUID        PRIMARY KEY,
  reg_number  TEXT        NOT NULL UNIQUE,
  name        TEXT        NOT NULL,
  mobile      TEXT        NOT NULL DEFAULT '',
  program     TEXT        NOT NULL DEFAULT '',
  semester    INTEGER     NOT NULL DEFAULT 0,
  batch       TEXT        NOT NULL DEFAULT '',
  year        INTEGER     NOT NULL DEFAULT 0,
  department  TEXT        NOT NULL DEFAULT '',
  section     TEXT        NOT NULL DEFAULT '',
  photo_url   TEXT        NOT NULL DEFAULT '',
  last_login  TIMESTAMPTZ NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           UUID        PRIMARY KEY,
  owner_id     UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  storage_key  TEXT        NOT NULL UNIQUE,
  name         TEXT        NOT NULL,
  content_type TEXT        NOT NULL,
  size         BIGINT      NOT NULL CHECK (size > 0),
  object_id    TEXT        NOT NULL,
  object_name  TEXT        NOT NULL,
  download_url TEXT        NOT NULL,
  description  TEXT        NOT NULL DEFAULT '',
  tags         JSONB       NOT NULL DEFAULT '[]'::jsonb,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_created_at ON documents (owner_id, created_at DESC, id DESC);`,
	},
	{
		Name: "create_index_documents_owner_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_name ON documents (owner_id, lower(name));`,
	},
	{
		Name: "create_index_documents_tags",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING GIN (tags);`,
	},
}

const (
	createLedgerSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT        PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	appliedSQL = `SELECT name FROM schema_migrations`
	recordSQL  = `INSERT INTO schema_migrations (name) VALUES ($1)`
)

// EnsureMigrated applies every step not yet recorded in schema_migrations, in order.
// Steps already applied are skipped, so it is safe to call on every start.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	logger = logger.With("component", "database", "db_host", dbHost)

	logger.Info("db_migration_check", "status", "starting")

	if _, err := db.ExecContext(ctx, createLedgerSQL); err != nil {
		logger.Error("db_migration_failed", "status", "error",
			"error_message", fmt.Sprintf("failed to create migration ledger: %v", err),
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("failed to create migration ledger: %w", err)
	}

	applied, err := appliedSteps(ctx, db)
	if err != nil {
		logger.Error("db_migration_failed", "status", "error",
			"error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds())
		return err
	}

	pending := 0
	for _, step := range steps {
		if applied[step.Name] {
			continue
		}
		pending++
		stepStart := time.Now()

		if err := applyStep(ctx, db, step); err != nil {
			logger.Error("db_migration_failed", "status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds())
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Info("db_migration_step", "status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds())
	}

	if pending == 0 {
		logger.Info("db_migration_skip", "status", "success",
			"detail", "schema already up to date",
			"duration_ms", time.Since(start).Milliseconds())
		return nil
	}

	logger.Info("db_migration_success", "status", "success",
		"applied_steps", pending,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func appliedSteps(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, appliedSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration ledger: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read migration ledger: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyStep(ctx context.Context, db *sql.DB, step migrationStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, recordSQL, step.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
