// Package tokens persists the access/refresh token pair in the client's
// local sqlite database. The pair survives process restart and is always
// written and cleared as a unit.
package tokens

import (
	"context"

	"github.com/dsavelev/speakerportal/internal/client/models"
)

// Repository stores exactly one token pair.
type Repository interface {
	// Load returns the stored pair. A missing pair is not an error: the
	// zero TokenPair is returned.
	Load(ctx context.Context) (models.TokenPair, error)

	// Save replaces the stored pair atomically.
	Save(ctx context.Context, pair models.TokenPair) error

	// Clear removes both tokens.
	Clear(ctx context.Context) error
}
