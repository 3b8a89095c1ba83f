// Package migrator applies goose migrations embedded by each bounded context.
// Every context keeps its own version table so their numbering is independent.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// VersionTable returns the goose version table used for a bounded context.
func VersionTable(contextName string) string {
	return "goose_" + contextName + "_version"
}

// RunMigrations applies all pending migrations in files against dbURL,
// tracking them in the version table of contextName.
func RunMigrations(ctx context.Context, dbURL, contextName string, files fs.FS) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	// goose keeps dialect, FS and table name in package state; contexts are
	// migrated one after another, never concurrently.
	goose.SetBaseFS(files)
	goose.SetTableName(VersionTable(contextName))

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply %s migrations: %w", contextName, err)
	}
	return nil
}
