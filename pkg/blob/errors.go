package blob

import "errors"

// Standard blob store errors.
//
// All implementations return these sentinels (wrapped with context via
// fmt.Errorf and %w) so callers can branch with errors.Is regardless of
// the backend in use:
//
//	r, err := store.Open(ctx, hash)
//	if errors.Is(err, blob.ErrNotFound) { ... }
var (
	// ErrNotFound indicates the requested content does not exist.
	ErrNotFound = errors.New("content not found")

	// ErrInvalidHash indicates the hash is not a valid hex-encoded
	// SHA-256 digest. Distinct from ErrNotFound: the key itself is
	// malformed, not merely absent.
	ErrInvalidHash = errors.New("invalid content hash")

	// ErrStorageFull indicates the backend has no space left. Transient:
	// the operation may succeed after cleanup.
	ErrStorageFull = errors.New("storage full")

	// ErrUnavailable indicates the backend is temporarily unreachable
	// (network failure, maintenance, throttling). Transient: callers may
	// retry with backoff.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrIntegrity indicates stored bytes no longer match their hash.
	// This signals corruption and is never retried.
	ErrIntegrity = errors.New("content integrity check failed")

	// ErrNotListable indicates the backend cannot enumerate its content
	// and therefore cannot participate in orphan collection.
	ErrNotListable = errors.New("store does not support listing")
)

// IsTransient reports whether err is worth retrying. Used by the Retrying
// wrapper to decide between backoff and immediate surfacing.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrStorageFull)
}
