// Package storage opens the client's local sqlite database and applies the
// embedded goose migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dsavelev/speakerportal/internal/client/migrations"
	"github.com/dsavelev/speakerportal/internal/client/repositories/tokens"

	_ "modernc.org/sqlite"
)

// Repositories bundles the repositories backed by the local database.
type Repositories struct {
	Tokens tokens.Repository
}

// RunMigrations brings the schema up to date using the embedded migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if necessary) the sqlite database at dsn,
// migrates it, and returns the repositories plus the handle for closing.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return &Repositories{Tokens: tokens.NewSQLiteRepository(db)}, db, nil
}
