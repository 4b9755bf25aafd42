package session

import "errors"

// Sentinel errors
var (
	// ErrInvalidCredentials is returned when the server rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRole is returned when the server reports an access level
	// outside the accepted set. Hard denial, never downgraded.
	ErrInvalidRole = errors.New("invalid role")

	// ErrNoAccessToken is returned when an operation needs an access
	// token the session doesn't hold.
	ErrNoAccessToken = errors.New("no access token")

	// ErrNoRefreshToken is returned when a refresh is requested without
	// a refresh token.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrInvalidRefreshToken is returned when the server explicitly
	// signals the refresh token is no longer valid. Always terminal.
	ErrInvalidRefreshToken = errors.New("refresh token invalid")
)
