package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/atrium-pm/atrium/internal/observability/logger"
)

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL
	)`

// version is the filename up to the first dot: "0003_people".
func migrationVersion(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

func listMigrations(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func appliedVersions(ctx context.Context, db Database) (map[string]bool, error) {
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// MigrateUp applies every pending *.up.sql migration in lexical order.
// Each migration runs in its own transaction together with its
// bookkeeping row.
func MigrateUp(ctx context.Context, db Database, fsys fs.FS) error {
	if _, err := db.Execute(ctx, migrationsTable); err != nil {
		return fmt.Errorf("migrate: ensure bookkeeping table: %w", err)
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate: read applied versions: %w", err)
	}
	names, err := listMigrations(fsys, ".up.sql")
	if err != nil {
		return fmt.Errorf("migrate: list migrations: %w", err)
	}

	log := logger.L().Named("migrate")
	ran := 0
	for _, name := range names {
		version := migrationVersion(name)
		if applied[version] {
			continue
		}
		sql, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", name, err)
		}
		err = db.Transaction(ctx, func(tx Database) error {
			if _, err := tx.Execute(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Execute(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
				version, time.Now().UTC())
			return err
		})
		if err != nil {
			return fmt.Errorf("migrate: apply %s: %w", name, err)
		}
		log.Info("migration applied", logger.String("version", version))
		ran++
	}
	if ran == 0 {
		log.Info("schema up to date")
	}
	return nil
}

// MigrateDown reverts the most recently applied migration using its
// *.down.sql counterpart.
func MigrateDown(ctx context.Context, db Database, fsys fs.FS) error {
	if _, err := db.Execute(ctx, migrationsTable); err != nil {
		return fmt.Errorf("migrate: ensure bookkeeping table: %w", err)
	}
	row := db.QueryOne(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`)
	var version string
	if err := row.Scan(&version); err != nil {
		return fmt.Errorf("migrate: nothing to revert: %w", err)
	}

	sql, err := fs.ReadFile(fsys, version+".down.sql")
	if err != nil {
		return fmt.Errorf("migrate: read %s.down.sql: %w", version, err)
	}
	err = db.Transaction(ctx, func(tx Database) error {
		if _, err := tx.Execute(ctx, string(sql)); err != nil {
			return err
		}
		_, err := tx.Execute(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version)
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate: revert %s: %w", version, err)
	}
	logger.L().Named("migrate").Info("migration reverted", logger.String("version", version))
	return nil
}
