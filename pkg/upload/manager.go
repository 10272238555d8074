package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/internal/logger"
	"github.com/filedepot/filedepot/pkg/blob"
	"github.com/filedepot/filedepot/pkg/catalog"
	"github.com/filedepot/filedepot/pkg/metrics"
)

// DefaultChunkSize is used when ManagerConfig leaves ChunkSize unset.
const DefaultChunkSize = 4 << 20 // 4 MiB

// ManagerConfig tunes the upload manager.
type ManagerConfig struct {
	// ChunkSize is the fixed chunk length C. Every chunk must be exactly
	// C bytes except the last, which carries totalSize mod C.
	ChunkSize int64 `mapstructure:"chunk_size"`

	// SpeedWindow is the moving window for speed/ETA estimation
	// (default: 10s).
	SpeedWindow time.Duration `mapstructure:"speed_window"`

	// EventBuffer is the capacity of the event queue (default: 256).
	EventBuffer int `mapstructure:"event_buffer"`
}

// Manager owns the chunked-upload state machine. On completion it writes
// assembled content into the blob store and commits a version into the
// catalog.
//
// Thread Safety:
// The session map is guarded by an RWMutex; each session carries its own
// mutex so chunk accounting for different sessions never contends.
// Completion holds an exclusive per-(folder, name) lock so two racing
// completions for the same destination serialize into a strict version
// order.
//
// Durability:
// Chunk staging is in-memory. A process restart loses in-flight sessions;
// clients resuming against a restarted manager get ErrInterruptedUpload
// and re-upload from zero.
type Manager struct {
	blobs   blob.WritableStore
	catalog catalog.Store
	config  ManagerConfig
	metrics metrics.UploadMetrics

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	commitMu    sync.Mutex
	commitLocks map[string]*sync.Mutex

	events chan Event
}

// NewManager creates an upload manager. Zero config fields get defaults;
// a nil UploadMetrics disables instrumentation.
func NewManager(blobs blob.WritableStore, cat catalog.Store, config ManagerConfig, m metrics.UploadMetrics) *Manager {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.SpeedWindow <= 0 {
		config.SpeedWindow = 10 * time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 256
	}
	if m == nil {
		m = metrics.NewNoopUploadMetrics()
	}

	return &Manager{
		blobs:       blobs,
		catalog:     cat,
		config:      config,
		metrics:     m,
		sessions:    make(map[uuid.UUID]*session),
		commitLocks: make(map[string]*sync.Mutex),
		events:      make(chan Event, config.EventBuffer),
	}
}

// StartUpload creates a new session in SessionPending for the given
// destination. The folder must exist (uuid.Nil targets the root).
func (m *Manager) StartUpload(ctx context.Context, fileName string, totalSize int64, folderID uuid.UUID, contentType, ownerID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fileName == "" {
		return nil, fmt.Errorf("file name is empty: %w", ErrInvalidArgument)
	}
	if totalSize <= 0 {
		return nil, fmt.Errorf("total size %d: %w", totalSize, ErrInvalidArgument)
	}
	if folderID != uuid.Nil {
		if _, err := m.catalog.GetFolder(ctx, folderID); err != nil {
			return nil, fmt.Errorf("destination folder: %w", ErrInvalidArgument)
		}
	}

	now := time.Now()
	chunkSize := m.config.ChunkSize
	sess := &session{
		id:             uuid.New(),
		fileName:       fileName,
		totalSize:      totalSize,
		folderID:       folderID,
		contentType:    contentType,
		ownerID:        ownerID,
		chunkSize:      chunkSize,
		expectedChunks: int((totalSize + chunkSize - 1) / chunkSize),
		chunks:         make(map[int][]byte),
		status:         SessionPending,
		startTime:      now,
		lastActivity:   now,
		window:         newSpeedWindow(m.config.SpeedWindow),
	}

	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()

	m.metrics.RecordSessionStarted()
	m.updateActiveGauge()

	snap := m.snapshotOf(sess)
	m.publish(Event{
		Type:      EventStarted,
		SessionID: sess.id,
		FileName:  fileName,
		TotalSize: totalSize,
		Time:      now,
	})

	logger.Debug("upload session %s started for %q (%d bytes, %d chunks)",
		sess.id, fileName, totalSize, sess.expectedChunks)
	return snap, nil
}

// UploadChunk accepts one chunk. Chunks may arrive in any order;
// completion is decided by index-set coverage alone. Re-submitting an
// already-received chunk of the correct length is an idempotent no-op so
// clients can retry after a dropped acknowledgment.
func (m *Manager) UploadChunk(ctx context.Context, sessionID uuid.UUID, chunkIndex int, data []byte, isLast bool) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != SessionPending && sess.status != SessionUploading {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, sess.status, ErrInvalidState)
	}
	if chunkIndex < 0 || chunkIndex >= sess.expectedChunks {
		return nil, fmt.Errorf("chunk %d of %d: %w", chunkIndex, sess.expectedChunks, ErrChunkOutOfRange)
	}
	if isLast != (chunkIndex == sess.expectedChunks-1) {
		return nil, fmt.Errorf("last-chunk flag does not match index %d: %w", chunkIndex, ErrInvalidArgument)
	}
	if want := sess.expectedChunkLen(chunkIndex); int64(len(data)) != want {
		return nil, fmt.Errorf("chunk %d is %d bytes, want %d: %w", chunkIndex, len(data), want, ErrChunkSizeMismatch)
	}

	if _, dup := sess.chunks[chunkIndex]; dup {
		// Idempotent retry after a dropped acknowledgment.
		return sess.snapshot(now), nil
	}

	sess.chunks[chunkIndex] = append([]byte(nil), data...)
	sess.uploadedBytes += int64(len(data))
	sess.lastActivity = now
	sess.window.add(now, int64(len(data)))
	if sess.status == SessionPending {
		sess.status = SessionUploading
	}

	m.metrics.RecordChunkReceived(int64(len(data)))

	snap := sess.snapshot(now)
	m.publish(Event{
		Type:          EventProgress,
		SessionID:     sess.id,
		FileName:      sess.fileName,
		UploadedBytes: snap.UploadedBytes,
		TotalSize:     snap.TotalSize,
		Percent:       snap.Percent,
		Time:          now,
	})
	return snap, nil
}

// CompleteUpload assembles the received chunks in index order, stores the
// content and commits a catalog version. Two concurrent completions for
// the same (folder, name) serialize on an exclusive per-destination lock,
// so version numbers form a gap-free increasing sequence with no lost
// update.
func (m *Manager) CompleteUpload(ctx context.Context, sessionID uuid.UUID, description string) (*catalog.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	// Claim the session for processing. Once Processing, cancellation is
	// refused and no second completion can start.
	sess.mu.Lock()
	if sess.status != SessionPending && sess.status != SessionUploading {
		status := sess.status
		sess.mu.Unlock()
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, status, ErrInvalidState)
	}
	if !sess.complete() {
		missing := sess.expectedChunks - len(sess.chunks)
		sess.mu.Unlock()
		return nil, fmt.Errorf("%d of %d chunks missing: %w", missing, sess.expectedChunks, ErrIncompleteUpload)
	}

	sess.status = SessionProcessing
	data := make([]byte, 0, sess.totalSize)
	for i := 0; i < sess.expectedChunks; i++ {
		data = append(data, sess.chunks[i]...)
	}
	folderID, fileName := sess.folderID, sess.fileName
	sess.mu.Unlock()

	commitStart := time.Now()

	lock := m.commitLock(folderID, fileName)
	lock.Lock()
	defer lock.Unlock()

	// Cooperative cancellation check before the blocking store write.
	if err := ctx.Err(); err != nil {
		m.fail(sess, err)
		return nil, err
	}

	hash, err := m.blobs.Put(ctx, data)
	if err != nil {
		m.fail(sess, err)
		return nil, fmt.Errorf("failed to store content: %w", err)
	}

	if err := ctx.Err(); err != nil {
		m.fail(sess, err)
		return nil, err
	}

	file, err := m.catalog.CommitVersion(ctx, catalog.VersionCommit{
		FolderID:    folderID,
		Name:        fileName,
		OwnerID:     sess.ownerID,
		Size:        uint64(sess.totalSize),
		ContentHash: hash,
		ContentType: sess.contentType,
		Description: description,
	})
	if err != nil {
		m.fail(sess, err)
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}

	now := time.Now()
	sess.mu.Lock()
	sess.status = SessionCompleted
	sess.completedTime = now
	sess.releaseChunks()
	lifetime := now.Sub(sess.startTime)
	sess.mu.Unlock()

	m.metrics.RecordCommitDuration(now.Sub(commitStart))
	m.metrics.RecordSessionFinished(string(SessionCompleted), lifetime)
	m.updateActiveGauge()

	m.publish(Event{
		Type:          EventCompleted,
		SessionID:     sess.id,
		FileName:      fileName,
		FileID:        file.ID,
		UploadedBytes: sess.totalSize,
		TotalSize:     sess.totalSize,
		Percent:       100,
		Time:          now,
	})

	logger.Info("upload %s committed as %q version %d", sess.id, fileName, file.Version)
	return file, nil
}

// CancelUpload transitions a non-terminal session to SessionCancelled.
// Idempotent on already-terminal sessions. A session in SessionProcessing
// can no longer be cancelled.
func (m *Manager) CancelUpload(ctx context.Context, sessionID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.cancel(sessionID, CancelReasonUser)
}

// GetActiveUploads returns a snapshot of every non-terminal session. The
// result is detached: it does not change as uploads progress.
func (m *Manager) GetActiveUploads(ctx context.Context) ([]*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Session
	for _, sess := range m.sessions {
		sess.mu.Lock()
		if !sess.status.Terminal() {
			result = append(result, sess.snapshot(now))
		}
		sess.mu.Unlock()
	}
	return result, nil
}

// GetSession returns a snapshot of one session, terminal or not.
func (m *Manager) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return m.snapshotOf(sess), nil
}

// ============================================================================
// Internals
// ============================================================================

func (m *Manager) lookup(id uuid.UUID) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrInterruptedUpload)
	}
	return sess, nil
}

func (m *Manager) snapshotOf(sess *session) *Session {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(time.Now())
}

// commitLock returns the exclusive lock for a destination identity.
// Versioning is scoped to (folderID, fileName); the same name in two
// folders is two distinct files.
func (m *Manager) commitLock(folderID uuid.UUID, fileName string) *sync.Mutex {
	key := folderID.String() + "|" + fileName

	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	lock, ok := m.commitLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.commitLocks[key] = lock
	}
	return lock
}

// cancel moves a session to SessionCancelled with the given reason.
func (m *Manager) cancel(sessionID uuid.UUID, reason CancelReason) error {
	sess, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	now := time.Now()

	sess.mu.Lock()
	if sess.status.Terminal() {
		sess.mu.Unlock()
		return nil
	}
	if sess.status == SessionProcessing {
		sess.mu.Unlock()
		return fmt.Errorf("session %s is processing: %w", sessionID, ErrInvalidState)
	}

	sess.status = SessionCancelled
	sess.cancelReason = reason
	sess.completedTime = now
	sess.releaseChunks()
	lifetime := now.Sub(sess.startTime)
	fileName := sess.fileName
	sess.mu.Unlock()

	m.metrics.RecordSessionFinished(string(SessionCancelled), lifetime)
	m.updateActiveGauge()

	m.publish(Event{
		Type:      EventCancelled,
		SessionID: sessionID,
		FileName:  fileName,
		Time:      now,
	})

	logger.Debug("upload session %s cancelled (%s)", sessionID, reason)
	return nil
}

// fail marks a session Failed with the error recorded, so state is
// observable without the error return value.
func (m *Manager) fail(sess *session, cause error) {
	now := time.Now()

	sess.mu.Lock()
	if sess.status.Terminal() {
		sess.mu.Unlock()
		return
	}
	sess.status = SessionFailed
	sess.errorMessage = cause.Error()
	sess.completedTime = now
	sess.releaseChunks()
	lifetime := now.Sub(sess.startTime)
	fileName := sess.fileName
	sess.mu.Unlock()

	m.metrics.RecordSessionFinished(string(SessionFailed), lifetime)
	m.updateActiveGauge()

	m.publish(Event{
		Type:      EventFailed,
		SessionID: sess.id,
		FileName:  fileName,
		Time:      now,
	})

	logger.Error("upload session %s failed: %v", sess.id, cause)
}

func (m *Manager) updateActiveGauge() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := 0
	for _, sess := range m.sessions {
		sess.mu.Lock()
		if !sess.status.Terminal() {
			active++
		}
		sess.mu.Unlock()
	}
	m.metrics.SetActiveSessions(active)
}

// remove drops a session from the map. Used by the reaper to archive
// terminal sessions.
func (m *Manager) remove(sessionID uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// allSessions snapshots every session pointer for the reaper's scan.
func (m *Manager) allSessions() []*session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}
