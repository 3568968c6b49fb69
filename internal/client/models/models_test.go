package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []Role{{ID: 1, Name: RoleSpeaker}, {ID: 2, Name: RoleManager}}}

	require.True(t, u.HasRole(RoleSpeaker))
	require.True(t, u.HasRole(RoleManager))
	require.False(t, u.HasRole(RoleAdmin))

	var nilUser *User
	require.False(t, nilUser.HasRole(RoleSpeaker))
}

func TestTokenPair_Empty(t *testing.T) {
	require.True(t, TokenPair{}.Empty())
	require.False(t, TokenPair{AccessToken: "t"}.Empty())
	require.False(t, TokenPair{RefreshToken: "r"}.Empty())
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	require.True(t, TokenExpiry(signed).Equal(exp))
}

func TestTokenExpiry_OpaqueToken(t *testing.T) {
	require.True(t, TokenExpiry("not-a-jwt").IsZero())
	require.True(t, TokenExpiry("").IsZero())
}

func TestTokenExpiry_NoExpClaim(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	require.True(t, TokenExpiry(signed).IsZero())
}
