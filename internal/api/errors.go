package api

import (
	"errors"
	"fmt"

	"presensictl/internal/transport"
)

// Error is a typed failure from the remote API. The pipeline has already
// emitted any user-facing notification; this carries the detail callers
// need for local handling.
type Error struct {
	Status    int
	Category  transport.Category
	Code      string
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// AsError unwraps an *Error from err, if one is present.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an API error with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == status
}
