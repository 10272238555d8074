package upload

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaper_ReclaimsIdleSessions(t *testing.T) {
	manager, _, _ := newManager(t)
	ctx := context.Background()

	idle, err := manager.StartUpload(ctx, "idle.bin", 100, uuid.Nil, "", "owner-1")
	require.NoError(t, err)
	fresh, err := manager.StartUpload(ctx, "fresh.bin", 100, uuid.Nil, "", "owner-1")
	require.NoError(t, err)

	// Age the idle session past the timeout.
	sess, err := manager.lookup(idle.ID)
	require.NoError(t, err)
	sess.mu.Lock()
	sess.lastActivity = time.Now().Add(-time.Hour)
	sess.mu.Unlock()

	reaper := NewReaper(manager, ReaperConfig{
		Enabled:     false,
		IdleTimeout: 30 * time.Minute,
	})
	stats, err := reaper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CheckedSessions)
	assert.Equal(t, 1, stats.ReclaimedSessions)
	assert.NotEmpty(t, stats.Summary())

	snap, err := manager.GetSession(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionCancelled, snap.Status)
	assert.Equal(t, CancelReasonIdle, snap.CancelReason)

	snap, err = manager.GetSession(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionPending, snap.Status)
}

func TestReaper_ArchivesTerminalSessions(t *testing.T) {
	manager, _, _ := newManager(t)
	ctx := context.Background()

	done, err := manager.StartUpload(ctx, "done.bin", 100, uuid.Nil, "", "owner-1")
	require.NoError(t, err)
	require.NoError(t, manager.CancelUpload(ctx, done.ID))

	// Age the terminal session past retention.
	sess, err := manager.lookup(done.ID)
	require.NoError(t, err)
	sess.mu.Lock()
	sess.completedTime = time.Now().Add(-2 * time.Hour)
	sess.mu.Unlock()

	reaper := NewReaper(manager, ReaperConfig{
		Enabled:        false,
		RetainTerminal: time.Hour,
	})
	stats, err := reaper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ArchivedSessions)

	_, err = manager.GetSession(ctx, done.ID)
	require.ErrorIs(t, err, ErrInterruptedUpload)
}

func TestReaper_StartStop(t *testing.T) {
	manager, _, _ := newManager(t)

	reaper := NewReaper(manager, ReaperConfig{
		Enabled:  true,
		Interval: 50 * time.Millisecond,
	})
	reaper.Start()
	reaper.Start()

	time.Sleep(120 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reaper.Stop(ctx))
	require.NoError(t, reaper.Stop(ctx))
}
