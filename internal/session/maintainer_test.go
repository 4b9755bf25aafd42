package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintainerStopsCleanly(t *testing.T) {
	m := NewMaintainer(newTestSession(t, &fakeAuthAPI{}))
	m.Start(context.Background())
	m.Stop()
}

func TestMaintainerStopWithoutStart(t *testing.T) {
	m := NewMaintainer(newTestSession(t, &fakeAuthAPI{}))
	m.Stop()
}

func TestMaintainerRefreshesExpiringToken(t *testing.T) {
	fresh := signedToken(t, jwt.MapClaims{
		"sub":      "42",
		"username": "budi",
		"level":    "1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	expiring := signedToken(t, jwt.MapClaims{
		"sub":      "42",
		"username": "budi",
		"level":    "1",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})

	refreshed := make(chan struct{}, 1)
	api := &fakeAuthAPI{
		refreshFn: func(ctx context.Context, refreshToken string) (*TokenPair, error) {
			select {
			case refreshed <- struct{}{}:
			default:
			}
			return &TokenPair{AccessToken: fresh, RefreshToken: "refresh-2"}, nil
		},
	}
	s := newTestSession(t, api)
	s.SetTokens(expiring, "refresh-1")

	m := NewMaintainer(s)
	m.Start(context.Background())
	defer m.Stop()

	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected the maintainer to refresh the expiring token")
	}

	require.Eventually(t, func() bool {
		return s.AccessToken() == fresh
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "refresh-2", s.RefreshToken())
}
