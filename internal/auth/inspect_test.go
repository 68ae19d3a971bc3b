// ABOUTME: Tests for unverified JWT expiry inspection.

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken_ValidJWT(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{
		"sub": "operator",
		"exp": now.Add(time.Hour).Unix(),
	})

	assert.NoError(t, InspectToken(token, now))
}

func TestInspectToken_ExpiredJWT(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{
		"sub": "operator",
		"exp": now.Add(-time.Minute).Unix(),
	})

	assert.ErrorIs(t, InspectToken(token, now), ErrTokenExpired)
}

func TestInspectToken_NoExpClaim(t *testing.T) {
	now := time.Now()
	token := signedToken(t, jwt.MapClaims{"sub": "operator"})

	assert.NoError(t, InspectToken(token, now))
}

func TestInspectToken_OpaqueTokenPassesThrough(t *testing.T) {
	assert.NoError(t, InspectToken("not-a-jwt-at-all", time.Now()))
	assert.NoError(t, InspectToken("", time.Now()))
}

func TestInspectToken_JWTShapedGarbagePassesThrough(t *testing.T) {
	// Two dots but not decodable; the gateway gets to reject it instead.
	assert.NoError(t, InspectToken("aaa.bbb.ccc", time.Now()))
}
