// ABOUTME: Unverified JWT inspection to surface expired credentials early.
// ABOUTME: Verification belongs to the gateway; this only improves the local error.

package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired means the supplied JWT's exp claim is in the past. The
// gateway would reject the handshake anyway; failing early gives the caller
// a clearer message.
var ErrTokenExpired = errors.New("gateway token is expired")

// InspectToken checks a JWT-shaped token for an expired exp claim, without
// verifying the signature (the client does not hold the gateway's secret).
// Opaque non-JWT tokens pass through untouched.
func InspectToken(token string, now time.Time) error {
	if strings.Count(token, ".") != 2 {
		// Opaque token; nothing to inspect.
		return nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// Not actually a JWT. Let the gateway decide.
		return nil
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Time.Before(now) {
		return ErrTokenExpired
	}
	return nil
}
