package kv

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/nixixoo/Notex/internal/client/repositories/kv/migrations"
)

// RunMigrations brings the on-device database schema up to date using the
// embedded migration set.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if necessary) the on-device database at dsn, runs
// migrations, and returns a ready Repository together with the handle the
// caller must eventually close.
func Open(ctx context.Context, dsn string) (*sql.DB, Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	// The driver rejects concurrent writers on one file; a single
	// connection sidesteps SQLITE_BUSY for this workload.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, NewSQLiteRepository(db), nil
}
