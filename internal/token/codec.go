// Package token decodes bearer token payloads for scheduling decisions.
//
// Nothing here verifies a signature. The server is the only authority on
// whether a token is actually valid; this package exists so the client can
// decide when to refresh and what identity to show while offline.
package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
)

const (
	// DefaultExpiryBuffer treats a token as expired slightly early so a
	// refresh can complete before the server starts rejecting it.
	DefaultExpiryBuffer = 60 * time.Second

	// RefreshSoonBuffer is the wider window used for proactive refresh
	// decisions, ahead of the reactive 401 path.
	RefreshSoonBuffer = 300 * time.Second
)

// ErrMalformedToken is returned when a token cannot be split and decoded.
var ErrMalformedToken = errors.New("malformed token")

// Payload is the decoded token payload. It is derived on demand from the
// raw token string and never stored on its own.
type Payload struct {
	Subject   string
	Username  string
	Level     string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Claims holds the full claim set, including anything the fields
	// above don't cover.
	Claims map[string]any
}

// HasExpiry reports whether the token carried an exp claim.
func (p *Payload) HasExpiry() bool {
	return !p.ExpiresAt.IsZero()
}

// Decode splits and base64url-decodes the token's payload segment without
// verifying the signature. Malformed input returns ErrMalformedToken.
func Decode(tokenString string) (*Payload, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	payload := &Payload{Claims: claims}

	if sub, err := claims.GetSubject(); err == nil {
		payload.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		payload.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		payload.IssuedAt = iat.Time
	}
	payload.Username = stringClaim(claims, "username")
	payload.Level = stringClaim(claims, "level")

	return payload, nil
}

// IsExpired reports whether the token should be treated as expired, using
// the supplied buffer. Undecodable tokens and tokens without an expiry
// claim are always expired.
func IsExpired(tokenString string, buffer time.Duration) bool {
	payload, err := Decode(tokenString)
	if err != nil || !payload.HasExpiry() {
		return true
	}
	return !time.Now().Before(payload.ExpiresAt.Add(-buffer))
}

// ShouldRefreshSoon reports whether the token is inside the proactive
// refresh window. There is a span where this is true but IsExpired with
// the default buffer is still false.
func ShouldRefreshSoon(tokenString string) bool {
	return IsExpired(tokenString, RefreshSoonBuffer)
}

// TimeToExpiry returns the remaining token lifetime, or zero if the token
// cannot be decoded or has already expired.
func TimeToExpiry(tokenString string) time.Duration {
	payload, err := Decode(tokenString)
	if err != nil || !payload.HasExpiry() {
		return 0
	}
	remaining := time.Until(payload.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Fingerprint returns a short Base58-encoded SHA256 digest of the token,
// safe to include in logs where the raw token must never appear.
func Fingerprint(tokenString string) string {
	hash := sha256.Sum256([]byte(tokenString))
	return base58.Encode(hash[:8])
}

func stringClaim(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
