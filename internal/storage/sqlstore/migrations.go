package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// migrationsFS holds the schema migrations. The SQL is written to run
// unchanged on SQLite and PostgreSQL: TEXT ids and dates, BIGINT unix
// timestamps, DOUBLE PRECISION money.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every pending migration.
func runMigrations(ctx context.Context, db *sql.DB, driver string) error {
	dialect := goose.DialectSQLite3
	if driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		slog.Info("Migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
