// Package transport is the single place bearer tokens are attached to
// outbound requests and the single place 401 responses trigger a token
// refresh. Every call to the remote API goes through the Pipeline.
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrSessionClosed is returned to requests whose refresh cycle was
// invalidated by a logout before it could complete.
var ErrSessionClosed = errors.New("session closed")

// SessionCredentials is the slice of the session the pipeline depends on.
// Keeping it narrow decouples transport from session state and lets the
// pipeline be tested against a fake.
type SessionCredentials interface {
	AccessToken() string
	RefreshToken() string
	RefreshAccessToken(ctx context.Context) error
	Logout(ctx context.Context)
}

// Navigator receives the signal to send the user back to the login
// surface after the session has been invalidated.
type Navigator interface {
	NavigateToLogin()
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func()

func (f NavigatorFunc) NavigateToLogin() { f() }

// Notifier receives a user-facing notification category for a failed
// request. Notification is a side effect; the error still propagates.
type Notifier interface {
	Notify(category Category, err error)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Category, error)

func (f NotifierFunc) Notify(c Category, err error) { f(c, err) }

// Config configures a Pipeline.
type Config struct {
	// Base is the underlying round tripper. Defaults to
	// http.DefaultTransport.
	Base http.RoundTripper

	// Navigator and Notifier are host-layer hooks; both default to
	// no-ops.
	Navigator Navigator
	Notifier  Notifier

	// RefreshPath identifies the refresh endpoint, whose own 401 must
	// never trigger another refresh.
	RefreshPath string

	// PassthroughPaths are endpoints whose 401 means what it says (bad
	// login credentials, already-dead logout) and must not enter
	// refresh coordination.
	PassthroughPaths []string

	// NavigateDelay is how long to wait before emitting the
	// navigate-to-login signal, letting in-flight host updates settle.
	NavigateDelay time.Duration
}

const defaultNavigateDelay = 250 * time.Millisecond

// cycle is one coordinated refresh. Waiters joining while the cycle is in
// flight are settled exactly once, in FIFO order, by the request that
// started it. A logout detaches the cycle from the pipeline so nothing it
// resolves can touch the replacement session.
type cycle struct {
	waiters  []chan error
	signaled bool
}

// Pipeline attaches bearer credentials to outbound requests and
// coordinates at most one token refresh regardless of how many requests
// hit 401 at the same time.
type Pipeline struct {
	base          http.RoundTripper
	creds         SessionCredentials
	navigator     Navigator
	notifier      Notifier
	refreshPath   string
	passthrough   map[string]bool
	navigateDelay time.Duration
	tracer        trace.Tracer

	mu      sync.Mutex
	current *cycle
}

// New creates a Pipeline over the given session credentials.
func New(creds SessionCredentials, cfg Config) *Pipeline {
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}
	navigator := cfg.Navigator
	if navigator == nil {
		navigator = NavigatorFunc(func() {})
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Category, error) {})
	}
	refreshPath := cfg.RefreshPath
	if refreshPath == "" {
		refreshPath = "/auth/refresh-token"
	}
	navigateDelay := cfg.NavigateDelay
	if navigateDelay == 0 {
		navigateDelay = defaultNavigateDelay
	}

	passthrough := make(map[string]bool, len(cfg.PassthroughPaths))
	for _, p := range cfg.PassthroughPaths {
		passthrough[p] = true
	}

	return &Pipeline{
		base:          base,
		creds:         creds,
		navigator:     navigator,
		notifier:      notifier,
		refreshPath:   refreshPath,
		passthrough:   passthrough,
		navigateDelay: navigateDelay,
		tracer:        otel.Tracer("presensictl/transport"),
	}
}

var _ http.RoundTripper = (*Pipeline)(nil)

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	ctx, span := p.tracer.Start(req.Context(), req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		))
	defer span.End()
	req = req.WithContext(ctx)

	resp, err := p.send(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.notifier.Notify(CategoryNetwork, err)
		log.Debug().Err(err).Str("path", req.URL.Path).Dur("duration", time.Since(started)).Msg("request failed")
		return nil, err
	}

	retried := false
	if resp.StatusCode == http.StatusUnauthorized && !p.passthrough[req.URL.Path] {
		if p.isRefreshRequest(req) {
			// The refresh call itself was rejected: abort all
			// coordination and tear the session down. No retry.
			p.abortForRefreshRejection(ctx)
		} else {
			resp, err = p.refreshAndRetry(req, resp)
			retried = true
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				log.Debug().Err(err).Str("path", req.URL.Path).Dur("duration", time.Since(started)).Msg("request failed after refresh")
				return nil, err
			}
		}
	}

	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Bool("retried", retried),
	)
	// 401s never notify here: they either entered refresh coordination
	// above or propagate for the caller to handle (a login rejection is
	// an inline form error, not a toast).
	if category := CategorizeStatus(resp.StatusCode); category != CategoryNone && resp.StatusCode != http.StatusUnauthorized {
		p.notifier.Notify(category, nil)
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Bool("retried", retried).
		Dur("duration", time.Since(started)).
		Msg("request")

	return resp, nil
}

// Reset detaches any in-flight refresh cycle. The session calls this on
// logout so a cycle from the old session settles its own callers but
// cannot touch whatever session comes next.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}

// send attaches credentials and performs one round trip. The token is
// read fresh at send time, unconditionally; expiry handling is reactive.
func (p *Pipeline) send(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if tok := p.creds.AccessToken(); tok != "" {
		clone.Header.Set("Authorization", "Bearer "+tok)
	} else {
		clone.Header.Del("Authorization")
	}
	if clone.Header.Get("X-Request-Id") == "" {
		clone.Header.Set("X-Request-Id", uuid.NewString())
	}
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return p.base.RoundTrip(clone)
}

// refreshAndRetry coordinates a single refresh across every request that
// got a 401 while it was in flight, then replays this request once with
// the new token.
func (p *Pipeline) refreshAndRetry(req *http.Request, unauthorized *http.Response) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		// The body cannot be replayed, so the 401 has to stand.
		return unauthorized, nil
	}

	// The 401 body is not propagated; the caller gets the retried
	// response or the refresh error.
	drainBody(unauthorized)

	if err := p.awaitRefresh(req.Context()); err != nil {
		return nil, err
	}

	return p.send(req)
}

// awaitRefresh either joins the in-flight refresh cycle or starts one.
// The checks and the flag flip happen under one lock acquisition, so two
// concurrent 401s can never both become the cycle leader.
func (p *Pipeline) awaitRefresh(ctx context.Context) error {
	p.mu.Lock()
	if c := p.current; c != nil {
		ch := make(chan error, 1)
		c.waiters = append(c.waiters, ch)
		p.mu.Unlock()

		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c := &cycle{}
	p.current = c
	p.mu.Unlock()

	refreshErr := p.creds.RefreshAccessToken(ctx)

	p.mu.Lock()
	if p.current == c {
		p.current = nil
	}
	waiters := c.waiters
	c.waiters = nil
	signaled := c.signaled
	p.mu.Unlock()

	if refreshErr == nil && p.creds.AccessToken() == "" {
		// The session was logged out while the refresh was in flight;
		// its "success" belongs to a dead session.
		refreshErr = ErrSessionClosed
	}

	// Settle every waiter in enqueue order. A waiter's own retry failure
	// belongs to that request, not to this drain.
	for _, ch := range waiters {
		ch <- refreshErr
	}

	if refreshErr != nil {
		log.Debug().Err(refreshErr).Int("queued", len(waiters)).Msg("refresh cycle failed")
		if !signaled {
			p.signalLogin(refreshErr)
		}
		return refreshErr
	}

	log.Debug().Int("queued", len(waiters)).Msg("refresh cycle complete")

	return nil
}

// abortForRefreshRejection handles a 401 from the refresh endpoint
// itself: mark the active cycle as already-signaled (its leader must not
// emit a second navigation), log out, and signal the host once.
func (p *Pipeline) abortForRefreshRejection(ctx context.Context) {
	p.mu.Lock()
	if p.current != nil {
		p.current.signaled = true
	}
	p.mu.Unlock()

	log.Info().Msg("refresh token rejected by server")

	p.creds.Logout(ctx)
	p.signalLogin(ErrSessionClosed)
}

// signalLogin notifies the host and schedules the navigation signal after
// a short delay so in-flight host updates can settle first.
func (p *Pipeline) signalLogin(err error) {
	p.notifier.Notify(CategorySessionExpired, err)
	time.AfterFunc(p.navigateDelay, p.navigator.NavigateToLogin)
}

func (p *Pipeline) isRefreshRequest(req *http.Request) bool {
	return strings.HasSuffix(req.URL.Path, p.refreshPath)
}

func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
