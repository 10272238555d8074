package share_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/share"
	sharemem "github.com/filedepot/filedepot/pkg/share/memory"
)

func TestSweeper_RunNow(t *testing.T) {
	store := sharemem.NewMemoryStore()
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	expired := &share.Permission{
		ID:        uuid.New(),
		FileID:    uuid.New(),
		GranteeID: "alice",
		Type:      share.ShareTypeInternal,
		Level:     share.LevelView,
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: &past,
		Active:    true,
	}
	require.NoError(t, store.PutPermission(ctx, expired))

	live := &share.Permission{
		ID:        uuid.New(),
		FileID:    uuid.New(),
		GranteeID: "bob",
		Type:      share.ShareTypeInternal,
		Level:     share.LevelView,
		CreatedAt: time.Now(),
		ExpiresAt: &future,
		Active:    true,
	}
	require.NoError(t, store.PutPermission(ctx, live))

	token, err := share.NewToken()
	require.NoError(t, err)
	staleLink := &share.DownloadLink{
		ID:        uuid.New(),
		FileID:    uuid.New(),
		Token:     token,
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: past,
		Active:    true,
	}
	require.NoError(t, store.PutLink(ctx, staleLink))

	sweeper := share.NewSweeper(store, share.SweeperConfig{Enabled: false}, nil)
	stats, err := sweeper.RunNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.CheckedPermissions)
	assert.Equal(t, 1, stats.ExpiredPermissions)
	assert.Equal(t, 1, stats.CheckedLinks)
	assert.Equal(t, 1, stats.ExpiredLinks)
	assert.NotEmpty(t, stats.Summary())

	got, err := store.GetPermission(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	got, err = store.GetPermission(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	gotLink, err := store.GetLink(ctx, staleLink.ID)
	require.NoError(t, err)
	assert.False(t, gotLink.Active)

	// A second sweep finds nothing left to expire.
	stats, err = sweeper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ExpiredPermissions)
	assert.Equal(t, 0, stats.ExpiredLinks)
}

func TestSweeper_StartStop(t *testing.T) {
	store := sharemem.NewMemoryStore()

	sweeper := share.NewSweeper(store, share.SweeperConfig{
		Enabled:  true,
		Interval: 50 * time.Millisecond,
	}, nil)
	sweeper.Start()
	// Starting twice is a no-op.
	sweeper.Start()

	time.Sleep(120 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(ctx))
	require.NoError(t, sweeper.Stop(ctx))
}

func TestSweeper_DisabledDoesNotStart(t *testing.T) {
	store := sharemem.NewMemoryStore()

	sweeper := share.NewSweeper(store, share.SweeperConfig{Enabled: false}, nil)
	sweeper.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(ctx))
}
