package gc

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
	blobmem "github.com/filedepot/filedepot/pkg/blob/memory"
	"github.com/filedepot/filedepot/pkg/catalog"
	catalogmem "github.com/filedepot/filedepot/pkg/catalog/memory"
)

func setup(t *testing.T) (catalog.Store, *blobmem.MemoryStore) {
	t.Helper()
	return catalogmem.NewMemoryStore(), blobmem.NewMemoryStore()
}

func TestCollector_DeletesOrphans(t *testing.T) {
	cat, blobs := setup(t)
	ctx := context.Background()

	referenced, err := blobs.Put(ctx, []byte("kept content"))
	require.NoError(t, err)
	orphan, err := blobs.Put(ctx, []byte("orphaned content"))
	require.NoError(t, err)

	_, err = cat.CommitVersion(ctx, catalog.VersionCommit{
		FolderID:    uuid.Nil,
		Name:        "kept.txt",
		OwnerID:     "owner-1",
		Size:        12,
		ContentHash: referenced,
	})
	require.NoError(t, err)

	collector, err := NewCollector(cat, blobs, Config{Enabled: true})
	require.NoError(t, err)

	stats, err := collector.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.ReferencedCount)
	assert.Equal(t, uint64(2), stats.ExistingCount)
	assert.Equal(t, uint64(1), stats.OrphanedCount)
	assert.Equal(t, uint64(1), stats.DeletedCount)
	assert.Equal(t, uint64(16), stats.ReclaimedBytes)
	assert.NotEmpty(t, stats.Summary())

	exists, err := blobs.Exists(ctx, referenced)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = blobs.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCollector_DeletedFilesStillPinBlobs(t *testing.T) {
	cat, blobs := setup(t)
	ctx := context.Background()

	hash, err := blobs.Put(ctx, []byte("soft deleted"))
	require.NoError(t, err)

	file, err := cat.CommitVersion(ctx, catalog.VersionCommit{
		FolderID:    uuid.Nil,
		Name:        "gone.txt",
		OwnerID:     "owner-1",
		Size:        12,
		ContentHash: hash,
	})
	require.NoError(t, err)
	require.NoError(t, cat.DeleteFile(ctx, file.ID))

	collector, err := NewCollector(cat, blobs, Config{Enabled: true})
	require.NoError(t, err)

	stats, err := collector.RunNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.OrphanedCount)

	// Soft-deleted records keep their hash referenced.
	exists, err := blobs.Exists(ctx, hash)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCollector_DryRunDeletesNothing(t *testing.T) {
	cat, blobs := setup(t)
	ctx := context.Background()

	orphan, err := blobs.Put(ctx, []byte("orphaned content"))
	require.NoError(t, err)

	collector, err := NewCollector(cat, blobs, Config{Enabled: true, DryRun: true})
	require.NoError(t, err)

	stats, err := collector.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.OrphanedCount)
	assert.Zero(t, stats.DeletedCount)

	exists, err := blobs.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCollector_RequiresListableStore(t *testing.T) {
	cat, _ := setup(t)

	_, err := NewCollector(cat, nonListableStore{}, Config{Enabled: true})
	require.Error(t, err)
}

// nonListableStore satisfies WritableStore without ListableStore.
type nonListableStore struct {
	blob.WritableStore
}
