package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestDecode(t *testing.T) {
	t.Run("extracts known claims", func(t *testing.T) {
		now := time.Now()
		signed := signTestToken(t, jwt.MapClaims{
			"sub":      "42",
			"username": "budi",
			"level":    "1",
			"iat":      now.Unix(),
			"exp":      now.Add(time.Hour).Unix(),
		})

		payload, err := Decode(signed)
		require.NoError(t, err)
		assert.Equal(t, "42", payload.Subject)
		assert.Equal(t, "budi", payload.Username)
		assert.Equal(t, "1", payload.Level)
		assert.True(t, payload.HasExpiry())
		assert.WithinDuration(t, now.Add(time.Hour), payload.ExpiresAt, time.Second)
	})

	t.Run("numeric level claim", func(t *testing.T) {
		signed := signTestToken(t, jwt.MapClaims{"level": 2})
		payload, err := Decode(signed)
		require.NoError(t, err)
		assert.Equal(t, "2", payload.Level)
	})

	t.Run("malformed tokens return ErrMalformedToken", func(t *testing.T) {
		for _, raw := range []string{"", "not-a-token", "a.b", "a.!!!.c"} {
			_, err := Decode(raw)
			assert.ErrorIs(t, err, ErrMalformedToken, "input %q", raw)
		}
	})
}

func TestIsExpired(t *testing.T) {
	t.Run("buffer boundary", func(t *testing.T) {
		// Expires in 90s: expired with a 2m buffer, live with a 1m buffer.
		signed := signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(90 * time.Second).Unix()})
		assert.True(t, IsExpired(signed, 2*time.Minute))
		assert.False(t, IsExpired(signed, time.Minute))
	})

	t.Run("undecodable token is expired", func(t *testing.T) {
		assert.True(t, IsExpired("garbage", DefaultExpiryBuffer))
	})

	t.Run("missing exp claim is expired", func(t *testing.T) {
		signed := signTestToken(t, jwt.MapClaims{"sub": "42"})
		assert.True(t, IsExpired(signed, DefaultExpiryBuffer))
	})
}

func TestShouldRefreshSoonWindow(t *testing.T) {
	// Expires in 2 minutes: inside the proactive window but not yet
	// expired under the default buffer.
	signed := signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(2 * time.Minute).Unix()})
	assert.True(t, ShouldRefreshSoon(signed))
	assert.False(t, IsExpired(signed, DefaultExpiryBuffer))
}

func TestTimeToExpiry(t *testing.T) {
	t.Run("positive for live token", func(t *testing.T) {
		signed := signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
		remaining := TimeToExpiry(signed)
		assert.Greater(t, remaining, 59*time.Minute)
	})

	t.Run("zero for expired token", func(t *testing.T) {
		signed := signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
		assert.Equal(t, time.Duration(0), TimeToExpiry(signed))
	})

	t.Run("zero for garbage", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), TimeToExpiry("garbage"))
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	b := Fingerprint("token-b")
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint("token-a"))
	assert.NotContains(t, a, "token")
}
