package session

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"presensictl/internal/token"
)

const maintainerCheckInterval = 30 * time.Second

// Maintainer proactively refreshes the access token ahead of its expiry,
// so long-running hosts rarely hit the reactive 401 path at all. The
// reactive path never depends on it; a host that doesn't start a
// maintainer just refreshes on demand.
type Maintainer struct {
	session *Session
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewMaintainer creates a maintainer for the session. Call Start to run it.
func NewMaintainer(session *Session) *Maintainer {
	return &Maintainer{session: session}
}

// Start launches the maintenance loop. Stop (or cancelling ctx) ends it.
func (m *Maintainer) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		m.run(ctx)
	}()
}

// Stop ends the loop and waits for it to exit.
func (m *Maintainer) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *Maintainer) run(ctx context.Context) {
	// While the session is anonymous there is nothing to maintain; poll
	// with exponential backoff instead of a tight loop.
	idle := backoff.NewExponentialBackOff()
	idle.InitialInterval = 5 * time.Second
	idle.MaxInterval = 2 * time.Minute

	for {
		accessToken := m.session.AccessToken()
		if accessToken == "" {
			if !sleep(ctx, idle.NextBackOff()) {
				return
			}
			continue
		}
		idle.Reset()

		if token.ShouldRefreshSoon(accessToken) {
			if m.session.RefreshToken() == "" {
				// Nothing to refresh with; the reactive path will
				// surface the failure when the token dies.
				if !sleep(ctx, maintainerCheckInterval) {
					return
				}
				continue
			}

			if err := m.session.RefreshAccessToken(ctx); err != nil {
				// Refresh already tore the session down; drop back to
				// the anonymous polling loop.
				log.Debug().Err(err).Msg("proactive refresh failed")
			}
			if !sleep(ctx, maintainerCheckInterval) {
				return
			}
			continue
		}

		// Sleep until the proactive window opens, capped so token
		// replacement by another path is noticed reasonably soon.
		wait := token.TimeToExpiry(accessToken) - token.RefreshSoonBuffer
		if wait <= 0 || wait > maintainerCheckInterval {
			wait = maintainerCheckInterval
		}
		if !sleep(ctx, wait) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
