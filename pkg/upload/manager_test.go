package upload

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
	blobmem "github.com/filedepot/filedepot/pkg/blob/memory"
	"github.com/filedepot/filedepot/pkg/catalog"
	catalogmem "github.com/filedepot/filedepot/pkg/catalog/memory"
)

// newManager builds a manager over memory stores with a 100 byte chunk
// size, small enough to exercise multi-chunk uploads with tiny payloads.
func newManager(t *testing.T) (*Manager, blob.WritableStore, catalog.Store) {
	t.Helper()
	blobs := blobmem.NewMemoryStore()
	cat := catalogmem.NewMemoryStore()
	manager := NewManager(blobs, cat, ManagerConfig{ChunkSize: 100}, nil)
	return manager, blobs, cat
}

// chunkData builds a deterministic payload of the given length.
func chunkData(length int, seed byte) []byte {
	data := make([]byte, length)
	for i := range data {
		data[i] = seed + byte(i%16)
	}
	return data
}

// uploadAll starts a session and pushes every chunk of data in order.
func uploadAll(t *testing.T, m *Manager, name string, folderID uuid.UUID, data []byte) *Session {
	t.Helper()
	ctx := context.Background()

	sess, err := m.StartUpload(ctx, name, int64(len(data)), folderID, "application/octet-stream", "owner-1")
	require.NoError(t, err)

	for i := 0; i < sess.ExpectedChunks; i++ {
		start := i * 100
		end := start + 100
		if end > len(data) {
			end = len(data)
		}
		_, err := m.UploadChunk(ctx, sess.ID, i, data[start:end], i == sess.ExpectedChunks-1)
		require.NoError(t, err)
	}
	return sess
}

func TestManager_StartUpload(t *testing.T) {
	t.Run("CreatesPendingSession", func(t *testing.T) {
		manager, _, _ := newManager(t)

		sess, err := manager.StartUpload(context.Background(), "report.pdf", 250, uuid.Nil, "application/pdf", "owner-1")
		require.NoError(t, err)
		assert.Equal(t, SessionPending, sess.Status)
		assert.Equal(t, 3, sess.ExpectedChunks)
		assert.Equal(t, int64(250), sess.TotalSize)
		assert.Zero(t, sess.UploadedBytes)
	})

	t.Run("RejectsBadArguments", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		_, err := manager.StartUpload(ctx, "", 100, uuid.Nil, "", "owner-1")
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = manager.StartUpload(ctx, "a.txt", 0, uuid.Nil, "", "owner-1")
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = manager.StartUpload(ctx, "a.txt", -5, uuid.Nil, "", "owner-1")
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = manager.StartUpload(ctx, "a.txt", 100, uuid.New(), "", "owner-1")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestManager_UploadChunk(t *testing.T) {
	t.Run("TracksBytesAndStatus", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
		require.NoError(t, err)

		snap, err := manager.UploadChunk(ctx, sess.ID, 0, chunkData(100, 0), false)
		require.NoError(t, err)
		assert.Equal(t, SessionUploading, snap.Status)
		assert.Equal(t, int64(100), snap.UploadedBytes)
		assert.InDelta(t, 40.0, snap.Percent, 0.01)

		// Final chunk carries the remainder: 250 - 2*100 = 50.
		snap, err = manager.UploadChunk(ctx, sess.ID, 2, chunkData(50, 1), true)
		require.NoError(t, err)
		assert.Equal(t, int64(150), snap.UploadedBytes)
	})

	t.Run("UnknownSession", func(t *testing.T) {
		manager, _, _ := newManager(t)

		_, err := manager.UploadChunk(context.Background(), uuid.New(), 0, chunkData(100, 0), false)
		require.ErrorIs(t, err, ErrInterruptedUpload)
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
		require.NoError(t, err)

		_, err = manager.UploadChunk(ctx, sess.ID, -1, chunkData(100, 0), false)
		require.ErrorIs(t, err, ErrChunkOutOfRange)

		_, err = manager.UploadChunk(ctx, sess.ID, 3, chunkData(50, 0), true)
		require.ErrorIs(t, err, ErrChunkOutOfRange)
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
		require.NoError(t, err)

		// Non-final chunks must be exactly the chunk size.
		_, err = manager.UploadChunk(ctx, sess.ID, 0, chunkData(99, 0), false)
		require.ErrorIs(t, err, ErrChunkSizeMismatch)

		// The final chunk must be exactly the remainder.
		_, err = manager.UploadChunk(ctx, sess.ID, 2, chunkData(100, 0), true)
		require.ErrorIs(t, err, ErrChunkSizeMismatch)
	})

	t.Run("LastFlagMustMatchIndex", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
		require.NoError(t, err)

		_, err = manager.UploadChunk(ctx, sess.ID, 0, chunkData(100, 0), true)
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = manager.UploadChunk(ctx, sess.ID, 2, chunkData(50, 0), false)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("DuplicateChunkIsIdempotent", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
		require.NoError(t, err)

		_, err = manager.UploadChunk(ctx, sess.ID, 0, chunkData(100, 0), false)
		require.NoError(t, err)

		// Retry after a dropped acknowledgment: bytes counted once.
		snap, err := manager.UploadChunk(ctx, sess.ID, 0, chunkData(100, 0), false)
		require.NoError(t, err)
		assert.Equal(t, int64(100), snap.UploadedBytes)
		assert.Equal(t, 1, snap.ReceivedChunks)
	})

	t.Run("RejectedAfterTerminal", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
		require.NoError(t, err)
		require.NoError(t, manager.CancelUpload(ctx, sess.ID))

		_, err = manager.UploadChunk(ctx, sess.ID, 0, chunkData(100, 0), false)
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestManager_CompleteUpload(t *testing.T) {
	t.Run("OutOfOrderChunksAssembleCorrectly", func(t *testing.T) {
		manager, blobs, _ := newManager(t)
		ctx := context.Background()

		data := chunkData(300, 7)
		sess, err := manager.StartUpload(ctx, "report.pdf", 300, uuid.Nil, "application/pdf", "owner-1")
		require.NoError(t, err)

		// Arrival order 1, 0, 2; completion depends on coverage only.
		_, err = manager.UploadChunk(ctx, sess.ID, 1, data[100:200], false)
		require.NoError(t, err)
		_, err = manager.UploadChunk(ctx, sess.ID, 0, data[0:100], false)
		require.NoError(t, err)
		_, err = manager.UploadChunk(ctx, sess.ID, 2, data[200:300], true)
		require.NoError(t, err)

		file, err := manager.CompleteUpload(ctx, sess.ID, "quarterly report")
		require.NoError(t, err)
		assert.Equal(t, int64(1), file.Version)
		assert.Equal(t, blob.Sum(data), file.ContentHash)
		assert.Equal(t, catalog.FileStatusAvailable, file.Status)

		stored, err := blobs.Exists(ctx, file.ContentHash)
		require.NoError(t, err)
		assert.True(t, stored)

		snap, err := manager.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, SessionCompleted, snap.Status)
	})

	t.Run("IncompleteCoverageRejected", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
		require.NoError(t, err)
		_, err = manager.UploadChunk(ctx, sess.ID, 0, chunkData(100, 0), false)
		require.NoError(t, err)
		_, err = manager.UploadChunk(ctx, sess.ID, 2, chunkData(50, 0), true)
		require.NoError(t, err)

		_, err = manager.CompleteUpload(ctx, sess.ID, "")
		require.ErrorIs(t, err, ErrIncompleteUpload)

		// Still resumable: send the missing chunk and retry.
		_, err = manager.UploadChunk(ctx, sess.ID, 1, chunkData(100, 0), false)
		require.NoError(t, err)
		_, err = manager.CompleteUpload(ctx, sess.ID, "")
		require.NoError(t, err)
	})

	t.Run("ReuploadSameNameBumpsVersion", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		first := uploadAll(t, manager, "report.pdf", uuid.Nil, chunkData(300, 1))
		fileV1, err := manager.CompleteUpload(ctx, first.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), fileV1.Version)

		second := uploadAll(t, manager, "report.pdf", uuid.Nil, chunkData(300, 2))
		fileV2, err := manager.CompleteUpload(ctx, second.ID, "")
		require.NoError(t, err)

		assert.Equal(t, fileV1.ID, fileV2.ID)
		assert.Equal(t, int64(2), fileV2.Version)
		assert.NotEqual(t, fileV1.ContentHash, fileV2.ContentHash)
	})

	t.Run("ConcurrentCompletionsSerializeVersions", func(t *testing.T) {
		manager, _, cat := newManager(t)
		ctx := context.Background()

		const uploads = 6
		sessions := make([]*Session, uploads)
		for i := 0; i < uploads; i++ {
			sessions[i] = uploadAll(t, manager, "shared.bin", uuid.Nil, chunkData(250, byte(i)))
		}

		var wg sync.WaitGroup
		versions := make([]int64, uploads)
		errs := make([]error, uploads)
		for i, sess := range sessions {
			wg.Add(1)
			go func(i int, id uuid.UUID) {
				defer wg.Done()
				file, err := manager.CompleteUpload(ctx, id, "")
				if err != nil {
					errs[i] = err
					return
				}
				versions[i] = file.Version
			}(i, sess.ID)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		// Versions form a gap-free sequence 1..uploads with no repeats.
		seen := make(map[int64]bool)
		for _, v := range versions {
			assert.False(t, seen[v], "version %d produced twice", v)
			seen[v] = true
		}
		for v := int64(1); v <= uploads; v++ {
			assert.True(t, seen[v], "version %d missing", v)
		}

		file, err := cat.FindFileByName(ctx, uuid.Nil, "shared.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(uploads), file.Version)
	})

	t.Run("SecondCompleteOfSameSessionRejected", func(t *testing.T) {
		manager, _, _ := newManager(t)
		ctx := context.Background()

		sess := uploadAll(t, manager, "a.bin", uuid.Nil, chunkData(100, 0))
		_, err := manager.CompleteUpload(ctx, sess.ID, "")
		require.NoError(t, err)

		_, err = manager.CompleteUpload(ctx, sess.ID, "")
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestManager_CancelUpload(t *testing.T) {
	manager, _, _ := newManager(t)
	ctx := context.Background()

	sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
	require.NoError(t, err)
	_, err = manager.UploadChunk(ctx, sess.ID, 0, chunkData(100, 0), false)
	require.NoError(t, err)

	require.NoError(t, manager.CancelUpload(ctx, sess.ID))

	snap, err := manager.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionCancelled, snap.Status)
	assert.Equal(t, CancelReasonUser, snap.CancelReason)

	// Idempotent on terminal sessions.
	require.NoError(t, manager.CancelUpload(ctx, sess.ID))

	_, err = manager.CompleteUpload(ctx, sess.ID, "")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestManager_GetActiveUploads(t *testing.T) {
	manager, _, _ := newManager(t)
	ctx := context.Background()

	first, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
	require.NoError(t, err)
	second, err := manager.StartUpload(ctx, "b.bin", 100, uuid.Nil, "", "owner-1")
	require.NoError(t, err)
	require.NoError(t, manager.CancelUpload(ctx, second.ID))

	active, err := manager.GetActiveUploads(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	// Snapshots are detached: later progress does not mutate them.
	before := active[0].UploadedBytes
	_, err = manager.UploadChunk(ctx, first.ID, 0, chunkData(100, 0), false)
	require.NoError(t, err)
	assert.Equal(t, before, active[0].UploadedBytes)
}

func TestManager_Events(t *testing.T) {
	manager, _, _ := newManager(t)
	ctx := context.Background()

	sess := uploadAll(t, manager, "a.bin", uuid.Nil, chunkData(250, 3))
	file, err := manager.CompleteUpload(ctx, sess.ID, "")
	require.NoError(t, err)

	var types []EventType
	var completed *Event
	for {
		select {
		case ev := <-manager.Events():
			types = append(types, ev.Type)
			if ev.Type == EventCompleted {
				copied := ev
				completed = &copied
			}
			continue
		default:
		}
		break
	}

	// started, 3 progress, completed.
	assert.Equal(t, []EventType{EventStarted, EventProgress, EventProgress, EventProgress, EventCompleted}, types)
	require.NotNil(t, completed)
	assert.Equal(t, file.ID, completed.FileID)
	assert.Equal(t, float64(100), completed.Percent)
}

func TestManager_UploadedBytesNeverExceedTotal(t *testing.T) {
	manager, _, _ := newManager(t)
	ctx := context.Background()

	data := chunkData(250, 9)
	sess, err := manager.StartUpload(ctx, "a.bin", 250, uuid.Nil, "", "owner-1")
	require.NoError(t, err)

	var last int64
	submit := func(index int, payload []byte, isLast bool) {
		snap, err := manager.UploadChunk(ctx, sess.ID, index, payload, isLast)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snap.UploadedBytes, last)
		assert.LessOrEqual(t, snap.UploadedBytes, int64(250))
		last = snap.UploadedBytes
	}

	submit(0, data[0:100], false)
	submit(0, data[0:100], false) // duplicate
	submit(1, data[100:200], false)
	submit(2, data[200:250], true)
	submit(2, data[200:250], true) // duplicate
	assert.Equal(t, int64(250), last)
}

func TestSpeedWindow(t *testing.T) {
	window := newSpeedWindow(time.Second)
	base := time.Now()

	assert.Zero(t, window.rate(base))

	window.add(base, 100)
	window.add(base.Add(100*time.Millisecond), 100)
	window.add(base.Add(200*time.Millisecond), 100)

	// 300 bytes over 200ms.
	assert.InDelta(t, 1500, window.rate(base.Add(200*time.Millisecond)), 1)

	// Old samples fall out of the window.
	assert.Zero(t, window.rate(base.Add(5*time.Second)))
}
