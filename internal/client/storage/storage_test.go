package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dsavelev/speakerportal/internal/client/models"
)

func TestInitDatabase_MigratesAndWires(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "portal.db")

	repos, db, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pair := models.TokenPair{AccessToken: "t1", RefreshToken: "r1"}
	require.NoError(t, repos.Tokens.Save(ctx, pair))

	got, err := repos.Tokens.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, pair, got)
}

func TestInitDatabase_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "portal.db")

	_, db, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// reopening the same file must not fail on already-applied migrations
	_, db, err = InitDatabase(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
