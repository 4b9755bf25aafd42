package transport

import "net/http"

// Category buckets a failed request for user-facing notification. The
// notification is layered on top of error propagation, never a
// replacement for it.
type Category int

const (
	CategoryNone Category = iota
	CategoryForbidden
	CategoryNotFound
	CategoryValidation
	CategoryRateLimited
	CategoryServer
	CategoryNetwork
	CategorySessionExpired
	CategoryUnknown
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryForbidden:
		return "forbidden"
	case CategoryNotFound:
		return "not_found"
	case CategoryValidation:
		return "validation"
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryServer:
		return "server"
	case CategoryNetwork:
		return "network"
	case CategorySessionExpired:
		return "session_expired"
	case CategoryUnknown:
		return "unknown"
	}
	return "unknown"
}

// CategorizeStatus maps an HTTP status to its notification category.
// Success and redirect statuses map to CategoryNone; 401 is not mapped
// here because it enters refresh coordination instead.
func CategorizeStatus(status int) Category {
	switch {
	case status < 400:
		return CategoryNone
	case status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	case status >= 500:
		return CategoryServer
	default:
		return CategoryUnknown
	}
}
