package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// session is the manager-internal state of one upload. All fields are
// guarded by mu: at most one structural mutation (chunk accept, complete,
// cancel) is in flight per session at a time.
type session struct {
	mu sync.Mutex

	id          uuid.UUID
	fileName    string
	totalSize   int64
	folderID    uuid.UUID
	contentType string
	ownerID     string

	chunkSize      int64
	expectedChunks int

	// chunks stages received data by index until commit. Released on
	// every terminal transition so cancelled sessions do not pin memory.
	chunks        map[int][]byte
	uploadedBytes int64

	status       SessionStatus
	cancelReason CancelReason
	errorMessage string

	startTime     time.Time
	lastActivity  time.Time
	completedTime time.Time

	window *speedWindow
}

// expectedChunkLen returns the valid length for a chunk index. Every chunk
// is chunkSize long except the last, which carries the remainder.
func (s *session) expectedChunkLen(index int) int64 {
	if index == s.expectedChunks-1 {
		return s.totalSize - int64(s.expectedChunks-1)*s.chunkSize
	}
	return s.chunkSize
}

// complete reports whether the received index set covers
// [0, expectedChunks) exactly.
func (s *session) complete() bool {
	return len(s.chunks) == s.expectedChunks
}

// releaseChunks drops staged data. Called on terminal transitions.
func (s *session) releaseChunks() {
	s.chunks = nil
}

// snapshot builds a detached copy with derived progress fields. Caller
// must hold s.mu.
func (s *session) snapshot(now time.Time) *Session {
	snap := &Session{
		ID:             s.id,
		FileName:       s.fileName,
		TotalSize:      s.totalSize,
		FolderID:       s.folderID,
		ContentType:    s.contentType,
		OwnerID:        s.ownerID,
		Status:         s.status,
		CancelReason:   s.cancelReason,
		ErrorMessage:   s.errorMessage,
		UploadedBytes:  s.uploadedBytes,
		ReceivedChunks: len(s.chunks),
		ExpectedChunks: s.expectedChunks,
		StartTime:      s.startTime,
		LastActivity:   s.lastActivity,
		CompletedTime:  s.completedTime,
	}

	if s.totalSize > 0 {
		snap.Percent = float64(s.uploadedBytes) / float64(s.totalSize) * 100
	}

	snap.SpeedBps = s.window.rate(now)
	if snap.SpeedBps > 0 {
		remaining := s.totalSize - s.uploadedBytes
		if remaining > 0 {
			snap.ETA = time.Duration(float64(remaining) / snap.SpeedBps * float64(time.Second))
		}
	}

	return snap
}
