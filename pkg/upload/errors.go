package upload

import (
	"errors"
	"fmt"
)

// ============================================================================
// Upload Error Types
// ============================================================================

var (
	// ErrSessionNotFound indicates the session id is unknown to this
	// manager instance.
	ErrSessionNotFound = errors.New("upload session not found")

	// ErrInvalidArgument indicates malformed input (empty file name,
	// non-positive size, unknown folder). Not retryable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState indicates the operation is not valid for the
	// session's current status (e.g. uploading a chunk to a completed
	// session).
	ErrInvalidState = errors.New("invalid session state")

	// ErrChunkOutOfRange indicates a chunk index outside
	// [0, expectedChunkCount).
	ErrChunkOutOfRange = errors.New("chunk index out of range")

	// ErrChunkSizeMismatch indicates a chunk whose length does not match
	// the length expected for its index.
	ErrChunkSizeMismatch = errors.New("chunk size mismatch")

	// ErrIncompleteUpload indicates completion was requested before every
	// chunk index was received. Retryable by sending the missing chunks.
	ErrIncompleteUpload = errors.New("upload incomplete")
)

// ErrInterruptedUpload is what clients see when they resume a session this
// process no longer knows about. Chunk staging is in-memory, so a restart
// loses in-flight sessions; recovery is a re-upload from zero. It wraps
// ErrSessionNotFound so both checks succeed.
var ErrInterruptedUpload = fmt.Errorf("upload interrupted: %w", ErrSessionNotFound)
