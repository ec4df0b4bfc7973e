package shared

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

// Migration scripts live in sql/ as NNNN_<name>_up.sql and NNNN_<name>_down.sql pairs.
//
//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one numbered schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// MigrationStatus pairs a [Migration] with whether the database has it applied.
type MigrationStatus struct {
	Migration
	Applied bool
}

// Migrations returns the embedded migrations ordered by version.
func Migrations() ([]Migration, error) {
	ups, err := fs.Glob(migrationFiles, "sql/*_up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(ups))
	for _, up := range ups {
		base := strings.TrimSuffix(path.Base(up), "_up.sql")
		num, name, _ := strings.Cut(base, "_")
		version, err := strconv.Atoi(num)
		if err != nil {
			return nil, fmt.Errorf("migration %s has no numeric version", up)
		}

		upSQL, err := migrationFiles.ReadFile(up)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", up, err)
		}
		downSQL, err := migrationFiles.ReadFile(strings.TrimSuffix(up, "_up.sql") + "_down.sql")
		if err != nil {
			return nil, fmt.Errorf("migration %04d has no down script: %w", version, err)
		}

		migrations = append(migrations, Migration{Version: version, Name: name, Up: string(upSQL), Down: string(downSQL)})
	}

	slices.SortFunc(migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return migrations, nil
}

// MigrateUp applies every pending migration in version order and returns the ones it applied.
func MigrateUp(ctx context.Context, db *sql.DB) ([]Migration, error) {
	statuses, err := MigrationStatuses(ctx, db)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, s := range statuses {
		if s.Applied {
			continue
		}
		err := inTx(ctx, db, s.Up, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, s.Version, s.Name)
		if err != nil {
			return applied, fmt.Errorf("failed to apply migration %04d_%s: %w", s.Version, s.Name, err)
		}
		applied = append(applied, s.Migration)
	}
	return applied, nil
}

// ResetDatabase rolls back every applied migration, newest first, then applies them all again.
// Everything stored in the migrated tables is discarded.
func ResetDatabase(ctx context.Context, db *sql.DB) error {
	statuses, err := MigrationStatuses(ctx, db)
	if err != nil {
		return err
	}

	for _, s := range slices.Backward(statuses) {
		if !s.Applied {
			continue
		}
		err := inTx(ctx, db, s.Down, `DELETE FROM schema_migrations WHERE version = ?`, s.Version)
		if err != nil {
			return fmt.Errorf("failed to roll back migration %04d_%s: %w", s.Version, s.Name, err)
		}
	}

	_, err = MigrateUp(ctx, db)
	return err
}

// MigrationStatuses lists every embedded migration with its applied state, creating the bookkeeping table
// if needed.
func MigrationStatuses(ctx context.Context, db *sql.DB) ([]MigrationStatus, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	statuses := make([]MigrationStatus, len(migrations))
	for i, m := range migrations {
		statuses[i] = MigrationStatus{Migration: m, Applied: applied[m.Version]}
	}
	return statuses, nil
}

// inTx runs script and a bookkeeping statement in one transaction. The sqlite3 driver executes every
// statement in script.
func inTx(ctx context.Context, db *sql.DB, script, bookkeeping string, args ...any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return err
	}
	return tx.Commit()
}
