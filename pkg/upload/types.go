// Package upload implements the resumable chunked upload manager: session
// state machine, concurrency-safe chunk accounting, atomic commit into the
// blob store and catalog, progress events, and idle-session reclamation.
package upload

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Session Status
// ============================================================================

// SessionStatus is the lifecycle state of an upload session.
//
// Transitions:
//
//	Pending → Uploading → Processing → Completed
//	Pending/Uploading/Processing → Failed
//	Pending/Uploading → Cancelled
//
// No transition ever leaves a terminal state.
type SessionStatus string

const (
	// SessionPending means the session exists but no chunk has arrived.
	SessionPending SessionStatus = "pending"

	// SessionUploading means at least one chunk has been accepted.
	SessionUploading SessionStatus = "uploading"

	// SessionProcessing means completion is in flight: chunks are being
	// assembled, hashed and committed. Cancellation is no longer possible.
	SessionProcessing SessionStatus = "processing"

	// SessionCompleted is the terminal success state.
	SessionCompleted SessionStatus = "completed"

	// SessionFailed is the terminal state for storage or commit failures.
	SessionFailed SessionStatus = "failed"

	// SessionCancelled is the terminal state for user- or server-initiated
	// cancellation.
	SessionCancelled SessionStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionCancelled:
		return true
	}
	return false
}

// CancelReason distinguishes who ended a cancelled session.
type CancelReason string

const (
	// CancelReasonNone marks sessions that were not cancelled.
	CancelReasonNone CancelReason = ""

	// CancelReasonUser marks client-initiated cancellation.
	CancelReasonUser CancelReason = "user"

	// CancelReasonIdle marks server-initiated reclamation of a session
	// with no chunk activity past the idle timeout.
	CancelReasonIdle CancelReason = "idle"
)

// ============================================================================
// Session Snapshot
// ============================================================================

// Session is a point-in-time snapshot of an upload session. Snapshots are
// detached copies: mutating one has no effect on the manager's state.
type Session struct {
	ID          uuid.UUID
	FileName    string
	TotalSize   int64
	FolderID    uuid.UUID
	ContentType string
	OwnerID     string

	Status        SessionStatus
	CancelReason  CancelReason
	ErrorMessage  string
	UploadedBytes int64

	// ReceivedChunks / ExpectedChunks describe index-set coverage, not
	// byte counts.
	ReceivedChunks int
	ExpectedChunks int

	// Percent is UploadedBytes/TotalSize*100, 0 when TotalSize is 0.
	Percent float64

	// SpeedBps is the upload rate over the recent arrival window, in
	// bytes per second. 0 when the window is empty.
	SpeedBps float64

	// ETA is the estimated time to receive the remaining bytes at the
	// current speed. 0 when the speed is unknown.
	ETA time.Duration

	StartTime     time.Time
	LastActivity  time.Time
	CompletedTime time.Time
}
