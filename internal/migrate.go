package internal

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

// The subscriptions and listings schema ships embedded in the binary so a
// deploy needs no migration files on disk.
//
//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations brings the database up to the current schema version.
// Safe to run on every start; applied versions are skipped.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.Up(db, "migrations")
}
