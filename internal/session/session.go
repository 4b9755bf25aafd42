// Package session owns the client-side authentication lifecycle: the
// current identity, both bearer tokens, durable persistence, and the
// login/logout/refresh/recovery operations everything else builds on.
package session

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"presensictl/internal/authz"
	"presensictl/internal/token"
)

// AuthAPI is the slice of the remote API the session depends on. The real
// implementation lives in the api package; tests substitute a fake.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*User, error)
}

// Session holds the process-wide authentication state. It is an owned,
// injectable object, not a package global; construct one per process (or
// per test) and pass it where needed. All methods are safe for concurrent
// use.
type Session struct {
	mu   sync.Mutex
	slot *Slot
	api  AuthAPI

	user          *User
	accessToken   string
	refreshToken  string
	authenticated bool
	loading       bool
	lastError     string

	// epoch increments on every logout so a refresh that completes
	// after its session was torn down cannot resurrect it.
	epoch uint64

	logoutHooks []func()
}

// New creates a session backed by the given durable slot. Persisted state
// is rehydrated immediately; if the slot held a token but no user, the
// degraded claims decode runs best-effort (failure is logged, not fatal).
func New(slot *Slot) *Session {
	s := &Session{slot: slot}

	if slot == nil {
		return s
	}

	state, err := slot.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to rehydrate session, starting anonymous")
		return s
	}
	if state == nil {
		return s
	}

	s.user = state.User
	s.accessToken = state.AccessToken
	s.refreshToken = state.RefreshToken
	s.authenticated = state.IsAuthenticated

	if s.user == nil && s.accessToken != "" {
		if u, derr := userFromClaims(s.accessToken); derr != nil {
			log.Debug().Err(derr).Msg("could not recover user from persisted token")
		} else {
			s.user = u
		}
	}

	log.Debug().
		Bool("authenticated", s.authenticated).
		Bool("hasUser", s.user != nil).
		Str("tokenFp", token.Fingerprint(s.accessToken)).
		Msg("session rehydrated")

	return s
}

// AttachAPI binds the remote API implementation. Must be called before
// any operation that talks to the server.
func (s *Session) AttachAPI(api AuthAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = api
}

// AddLogoutHook registers a function run on every logout, before storage
// is cleared. The request pipeline registers its coordinator reset here so
// a stale refresh cycle cannot outlive the session it belonged to.
func (s *Session) AddLogoutHook(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutHooks = append(s.logoutHooks, hook)
}

// Login authenticates against the server and populates the session. On
// failure the session stays anonymous, the error is recorded for display
// and returned to the caller.
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.SetLoading(true)
	defer s.SetLoading(false)
	s.ClearError()

	res, err := s.authAPI().Login(ctx, username, password)
	if err != nil {
		s.SetError(err.Error())
		return err
	}

	role, err := authz.RoleFromLevel(res.Account.Level, res.AdminOPD != nil, res.AdminUPT != nil)
	if err != nil {
		err = fmt.Errorf("%w: server returned level %q", ErrInvalidRole, res.Account.Level)
		s.SetError(err.Error())
		return err
	}

	user := &User{
		ID:        res.Account.ID,
		Username:  res.Account.Username,
		Name:      res.Account.Name,
		Email:     res.Account.Email,
		Role:      role,
		OrgUnitID: res.Account.OrgUnitID,
		Status:    res.Account.Status,
		CreatedAt: res.Account.CreatedAt,
		UpdatedAt: res.Account.UpdatedAt,
		AdminOPD:  res.AdminOPD,
		AdminUPT:  res.AdminUPT,
	}

	s.mu.Lock()
	s.user = user
	s.accessToken = res.AccessToken
	s.refreshToken = res.RefreshToken
	s.authenticated = true
	s.lastError = ""
	s.mu.Unlock()
	s.persist()

	log.Info().
		Str("username", user.Username).
		Str("role", role.String()).
		Str("tokenFp", token.Fingerprint(res.AccessToken)).
		Msg("logged in")

	return nil
}

// Logout clears the session: identity, both tokens, the authenticated
// flag, durable storage, and any registered pipeline state. The server is
// told best-effort; client-side logout never depends on that call.
// Idempotent.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	hadCredentials := s.accessToken != "" || s.refreshToken != ""
	api := s.api
	s.mu.Unlock()

	// Tell the server while the bearer token is still attached. Failure
	// is logged and ignored.
	if hadCredentials && api != nil {
		if err := api.Logout(ctx); err != nil {
			log.Debug().Err(err).Msg("server-side logout failed, ignoring")
		}
	}

	s.mu.Lock()
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.authenticated = false
	s.loading = false
	s.epoch++
	hooks := slices.Clone(s.logoutHooks)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}

	if s.slot != nil {
		if err := s.slot.Clear(); err != nil {
			log.Warn().Err(err).Msg("failed to clear session slot")
		}
	}

	log.Debug().Msg("session cleared")
}

// RefreshAccessToken exchanges the refresh token for a new token pair.
// Any failure tears the whole session down: the server explicitly
// rejecting the refresh token and a transient error currently take the
// same terminal path, though the returned error distinguishes them.
func (s *Session) RefreshAccessToken(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	startEpoch := s.epoch
	s.mu.Unlock()

	if refreshToken == "" {
		log.Warn().Msg("refresh requested without a refresh token")
		s.Logout(ctx)
		return ErrNoRefreshToken
	}

	pair, err := s.authAPI().RefreshTokens(ctx, refreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("token refresh failed, logging out")
		s.Logout(ctx)
		return fmt.Errorf("refresh access token: %w", err)
	}

	s.mu.Lock()
	if s.epoch != startEpoch {
		// Logged out while the refresh was in flight; the result is
		// from a dead session.
		s.mu.Unlock()
		log.Debug().Msg("discarding refresh result from a logged-out session")
		return nil
	}
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.authenticated = true
	userAbsent := s.user == nil
	s.mu.Unlock()
	s.persist()

	log.Debug().
		Str("tokenFp", token.Fingerprint(pair.AccessToken)).
		Msg("access token refreshed")

	if userAbsent {
		if rerr := s.RecoverUserFromToken(ctx); rerr != nil {
			// Best-effort; a refreshed session without a user record is
			// the recovery-needed state the bootstrap resolves later.
			log.Debug().Err(rerr).Msg("post-refresh user recovery failed")
		}
	}

	return nil
}

// RecoverUserFromToken synthesizes a minimal User from the access token's
// claims. This is the degraded recovery path: it cannot see the OPD/UPT
// sub-roles or unit references, only what the claims carry. FetchProfile
// is the full-fidelity alternative.
func (s *Session) RecoverUserFromToken(ctx context.Context) error {
	s.mu.Lock()
	accessToken := s.accessToken
	s.mu.Unlock()

	if accessToken == "" {
		log.Warn().Msg("user recovery requested without an access token")
		return ErrNoAccessToken
	}

	user, err := userFromClaims(accessToken)
	if err != nil {
		return fmt.Errorf("recover user from token: %w", err)
	}

	s.mu.Lock()
	if s.accessToken == "" {
		s.mu.Unlock()
		return ErrNoAccessToken
	}
	s.user = user
	s.mu.Unlock()
	s.persist()

	log.Debug().Str("username", user.Username).Msg("user recovered from token claims")

	return nil
}

// FetchProfile replaces the session user with the server-side profile.
func (s *Session) FetchProfile(ctx context.Context) error {
	s.mu.Lock()
	accessToken := s.accessToken
	s.mu.Unlock()

	if accessToken == "" {
		return ErrNoAccessToken
	}

	user, err := s.authAPI().Profile(ctx)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	s.SetUser(user)
	return nil
}

// VerifyAndRecoverUser ensures the session has a user record, recovering
// one if needed. Precedence: an already-present user short-circuits with
// no network call; an access token drives the degraded claims decode; a
// lone refresh token drives a refresh. Failure on either recovery path
// logs the session out. With no tokens at all this returns false without
// side effects.
func (s *Session) VerifyAndRecoverUser(ctx context.Context) bool {
	s.mu.Lock()
	hasUser := s.user != nil
	accessToken := s.accessToken
	refreshToken := s.refreshToken
	s.mu.Unlock()

	if hasUser {
		return true
	}

	if accessToken != "" {
		if err := s.RecoverUserFromToken(ctx); err != nil {
			log.Warn().Err(err).Msg("user recovery from token failed, logging out")
			s.Logout(ctx)
			return false
		}
		return true
	}

	if refreshToken != "" {
		// RefreshAccessToken logs out on failure itself.
		return s.RefreshAccessToken(ctx) == nil
	}

	return false
}

// Bootstrap runs the process-start recovery exactly once, at a
// well-defined point, instead of ad hoc from host surfaces. Returns true
// when the session ends up with a usable identity.
func (s *Session) Bootstrap(ctx context.Context) bool {
	s.mu.Lock()
	anonymous := s.accessToken == "" && s.refreshToken == ""
	s.mu.Unlock()
	if anonymous {
		return false
	}
	return s.VerifyAndRecoverUser(ctx)
}

// User returns the current identity, or nil when anonymous or pending
// recovery.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// AccessToken returns the current access token, read fresh at call time.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// IsAuthenticated reports whether a login or successful recovery has
// occurred and not yet been logged out.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// IsLoading reports whether a login or recovery operation is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the last recorded error message, for display.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SetUser replaces the session user and persists. No other field changes.
func (s *Session) SetUser(user *User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.persist()
}

// SetTokens replaces both tokens and persists. No other field changes.
func (s *Session) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.mu.Unlock()
	s.persist()
}

// SetLoading sets the in-flight flag. Never persisted.
func (s *Session) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetError records an error message for display. Never persisted.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// ClearError clears the recorded error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

func (s *Session) authAPI() AuthAPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api == nil {
		panic("session: AttachAPI not called")
	}
	return s.api
}

// persist writes the durable subset of the session to the slot. Failures
// are logged; an unwritable slot must not break the in-memory session.
func (s *Session) persist() {
	if s.slot == nil {
		return
	}

	s.mu.Lock()
	state := &SlotState{
		User:            s.user,
		AccessToken:     s.accessToken,
		RefreshToken:    s.refreshToken,
		IsAuthenticated: s.authenticated,
	}
	s.mu.Unlock()

	if err := s.slot.Save(state); err != nil {
		log.Warn().Err(err).Msg("failed to persist session")
	}
}

// userFromClaims builds the degraded User record from token claims.
func userFromClaims(accessToken string) (*User, error) {
	payload, err := token.Decode(accessToken)
	if err != nil {
		return nil, err
	}

	id, _ := strconv.ParseInt(payload.Subject, 10, 64)

	return &User{
		ID:       id,
		Username: payload.Username,
		Role:     authz.RoleFromTokenLevel(payload.Level),
	}, nil
}
