package share

import "errors"

// ============================================================================
// Standard Share Engine Errors
// ============================================================================

// Callers check these with errors.Is; implementations wrap them with
// context:
//
//	if link.Expired(now) {
//	    return fmt.Errorf("link %s: %w", link.ID, share.ErrExpired)
//	}

var (
	// ErrPermissionNotFound indicates the grant does not exist.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrLinkNotFound indicates no download link carries the token or id.
	ErrLinkNotFound = errors.New("download link not found")

	// ErrExpired indicates the grant or link is past its expiry. Expiry
	// wins over the Active flag.
	ErrExpired = errors.New("share expired")

	// ErrRevoked indicates the grant or link was deactivated.
	ErrRevoked = errors.New("share revoked")

	// ErrExhausted indicates the link's download quota is used up.
	// Exhaustion is terminal.
	ErrExhausted = errors.New("download quota exhausted")

	// ErrContention indicates a consume lost its optimistic-concurrency
	// retries to competing writers. Transient: the caller may retry.
	ErrContention = errors.New("too much write contention")

	// ErrAccessDenied indicates no usable grant covers the requested
	// access.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidArgument indicates a structurally invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)
