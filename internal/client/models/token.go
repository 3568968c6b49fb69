package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is the persisted client credential set: a short-lived access
// token and a longer-lived refresh token. The two are always stored and
// cleared together, never independently.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether no credentials are held.
func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// TokenExpiry extracts the exp claim from a JWT without verifying the
// signature. The client has no signing key; the claim is only a hint for
// display and for pre-empting sends with a token already known to be stale.
// Returns the zero time when the token is opaque or carries no expiry.
func TokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
