package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dsavelev/speakerportal/internal/client/models"
	"github.com/dsavelev/speakerportal/internal/dbx"
)

// Fixed storage keys for the credentials table.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// SQLiteRepository keeps the token pair in the credentials table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) get(ctx context.Context, q dbx.DBTX, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credentials[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) set(ctx context.Context, q dbx.DBTX, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set credentials[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (models.TokenPair, error) {
	var pair models.TokenPair
	var err error

	if pair.AccessToken, err = r.get(ctx, r.db, keyAccessToken); err != nil {
		return models.TokenPair{}, err
	}
	if pair.RefreshToken, err = r.get(ctx, r.db, keyRefreshToken); err != nil {
		return models.TokenPair{}, err
	}
	return pair, nil
}

// Save writes both tokens in one transaction so a crash cannot leave half
// a pair behind.
func (r *SQLiteRepository) Save(ctx context.Context, pair models.TokenPair) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := r.set(ctx, tx, keyAccessToken, pair.AccessToken); err != nil {
			return err
		}
		return r.set(ctx, tx, keyRefreshToken, pair.RefreshToken)
	})
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE key IN (?, ?)`, keyAccessToken, keyRefreshToken)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
