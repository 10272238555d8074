package share_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
	blobmem "github.com/filedepot/filedepot/pkg/blob/memory"
	"github.com/filedepot/filedepot/pkg/catalog"
	catalogmem "github.com/filedepot/filedepot/pkg/catalog/memory"
	"github.com/filedepot/filedepot/pkg/share"
	sharemem "github.com/filedepot/filedepot/pkg/share/memory"
)

// newEngine builds an engine over fresh memory stores with a short auth
// cache so decision refreshes are observable in tests.
func newEngine(t *testing.T) (*share.Engine, share.Store, catalog.Store) {
	t.Helper()
	store := sharemem.NewMemoryStore()
	cat := catalogmem.NewMemoryStore()
	engine := share.NewEngine(store, cat, nil, share.EngineConfig{
		AuthCacheTTL: 50 * time.Millisecond,
	}, nil)
	return engine, store, cat
}

// newEngineWithBlobs builds an engine whose consume path verifies content
// against a blob store.
func newEngineWithBlobs(t *testing.T) (*share.Engine, blob.WritableStore, catalog.Store) {
	t.Helper()
	blobs := blobmem.NewMemoryStore()
	cat := catalogmem.NewMemoryStore()
	engine := share.NewEngine(sharemem.NewMemoryStore(), cat, blobs, share.EngineConfig{}, nil)
	return engine, blobs, cat
}

// commitFile puts an available file into the catalog and returns it.
func commitFile(t *testing.T, cat catalog.Store, folderID uuid.UUID, name, owner string) *catalog.FileRecord {
	t.Helper()
	file, err := cat.CommitVersion(context.Background(), catalog.VersionCommit{
		FolderID:    folderID,
		Name:        name,
		OwnerID:     owner,
		Size:        42,
		ContentHash: blob.Sum([]byte(name)),
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	return file
}

func TestEngine_ShareTarget(t *testing.T) {
	t.Run("CreatesGrantAndMarksFileShared", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		perm, err := engine.ShareTarget(ctx, share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelDownload,
			CreatedBy: "owner-1",
		})
		require.NoError(t, err)
		assert.Equal(t, share.LevelDownload, perm.Level)
		assert.True(t, perm.Active)
		assert.Empty(t, perm.Token)

		got, err := cat.GetFile(ctx, file.ID)
		require.NoError(t, err)
		assert.True(t, got.Shared)
	})

	t.Run("UpsertReusesExistingGrant", func(t *testing.T) {
		engine, store, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		req := share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
			CreatedBy: "owner-1",
		}
		first, err := engine.ShareTarget(ctx, req)
		require.NoError(t, err)

		req.Level = share.LevelEdit
		second, err := engine.ShareTarget(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, share.LevelEdit, second.Level)

		perms, err := store.ListPermissionsByFile(ctx, file.ID)
		require.NoError(t, err)
		assert.Len(t, perms, 1)
	})

	t.Run("ExternalGrantGetsToken", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		perm, err := engine.ShareTarget(context.Background(), share.ShareRequest{
			FileID:       file.ID,
			GranteeID:    "ext-user",
			GranteeEmail: "ext@example.com",
			Type:         share.ShareTypeExternal,
			Level:        share.LevelView,
			CreatedBy:    "owner-1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, perm.Token)
	})

	t.Run("UpsertUpgradeToExternalMintsToken", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		req := share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "bob",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
			CreatedBy: "owner-1",
		}
		internal, err := engine.ShareTarget(ctx, req)
		require.NoError(t, err)
		require.Empty(t, internal.Token)

		req.Type = share.ShareTypeExternal
		req.Level = share.LevelDownload
		external, err := engine.ShareTarget(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, internal.ID, external.ID)
		require.NotEmpty(t, external.Token)

		got, err := engine.AuthorizeToken(ctx, external.Token, share.LevelDownload)
		require.NoError(t, err)
		assert.Equal(t, external.ID, got.ID)
	})

	t.Run("RejectsAmbiguousTarget", func(t *testing.T) {
		engine, _, _ := newEngine(t)

		_, err := engine.ShareTarget(context.Background(), share.ShareRequest{
			FileID:    uuid.New(),
			FolderID:  uuid.New(),
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
		})
		require.ErrorIs(t, err, share.ErrInvalidArgument)

		_, err = engine.ShareTarget(context.Background(), share.ShareRequest{
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
		})
		require.ErrorIs(t, err, share.ErrInvalidArgument)
	})

	t.Run("RejectsMissingGrantee", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		_, err := engine.ShareTarget(context.Background(), share.ShareRequest{
			FileID: file.ID,
			Type:   share.ShareTypeInternal,
			Level:  share.LevelView,
		})
		require.ErrorIs(t, err, share.ErrInvalidArgument)
	})

	t.Run("RejectsUnknownFile", func(t *testing.T) {
		engine, _, _ := newEngine(t)

		_, err := engine.ShareTarget(context.Background(), share.ShareRequest{
			FileID:    uuid.New(),
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
		})
		require.ErrorIs(t, err, catalog.ErrFileNotFound)
	})
}

func TestEngine_RevokeShare(t *testing.T) {
	t.Run("DeactivatesAndKeepsRow", func(t *testing.T) {
		engine, store, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		perm, err := engine.ShareTarget(ctx, share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
			CreatedBy: "owner-1",
		})
		require.NoError(t, err)

		require.NoError(t, engine.RevokeShare(ctx, perm.ID))

		got, err := store.GetPermission(ctx, perm.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)

		// Last usable grant gone, so the shared flag clears.
		gotFile, err := cat.GetFile(ctx, file.ID)
		require.NoError(t, err)
		assert.False(t, gotFile.Shared)

		// Idempotent.
		require.NoError(t, engine.RevokeShare(ctx, perm.ID))
	})

	t.Run("SharedFlagSurvivesOtherGrants", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		first, err := engine.ShareTarget(ctx, share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
			CreatedBy: "owner-1",
		})
		require.NoError(t, err)
		_, err = engine.ShareTarget(ctx, share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "bob",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
			CreatedBy: "owner-1",
		})
		require.NoError(t, err)

		require.NoError(t, engine.RevokeShare(ctx, first.ID))

		got, err := cat.GetFile(ctx, file.ID)
		require.NoError(t, err)
		assert.True(t, got.Shared)
	})
}

func TestEngine_UpdateShare(t *testing.T) {
	engine, _, cat := newEngine(t)
	ctx := context.Background()
	file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

	perm, err := engine.ShareTarget(ctx, share.ShareRequest{
		FileID:    file.ID,
		GranteeID: "alice",
		Type:      share.ShareTypeInternal,
		Level:     share.LevelView,
		CreatedBy: "owner-1",
	})
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)
	updated, err := engine.UpdateShare(ctx, perm.ID, share.LevelAdmin, &expiry)
	require.NoError(t, err)
	assert.Equal(t, perm.ID, updated.ID)
	assert.Equal(t, share.LevelAdmin, updated.Level)
	require.NotNil(t, updated.ExpiresAt)

	_, err = engine.UpdateShare(ctx, uuid.New(), share.LevelView, nil)
	require.ErrorIs(t, err, share.ErrPermissionNotFound)
}

func TestEngine_Authorize(t *testing.T) {
	t.Run("OwnerAlwaysAllowed", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		allowed, err := engine.Authorize(context.Background(), "owner-1", file.ID, share.LevelAdmin)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("GranteeAllowedUpToLevel", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		_, err := engine.ShareTarget(ctx, share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelDownload,
			CreatedBy: "owner-1",
		})
		require.NoError(t, err)

		allowed, err := engine.Authorize(ctx, "alice", file.ID, share.LevelView)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = engine.Authorize(ctx, "alice", file.ID, share.LevelEdit)
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, err = engine.Authorize(ctx, "bob", file.ID, share.LevelView)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("FolderGrantCascades", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()

		parent, err := cat.CreateFolder(ctx, "projects", uuid.Nil, "owner-1", "")
		require.NoError(t, err)
		child, err := cat.CreateFolder(ctx, "q3", parent.ID, "owner-1", "")
		require.NoError(t, err)
		file := commitFile(t, cat, child.ID, "report.txt", "owner-1")

		_, err = engine.ShareTarget(ctx, share.ShareRequest{
			FolderID:  parent.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
			CreatedBy: "owner-1",
		})
		require.NoError(t, err)

		allowed, err := engine.Authorize(ctx, "alice", file.ID, share.LevelView)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("OrganizationGrantCoversEveryone", func(t *testing.T) {
		engine, store, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		perm := &share.Permission{
			ID:        uuid.New(),
			FileID:    file.ID,
			GranteeID: "org",
			Type:      share.ShareTypeOrganization,
			Level:     share.LevelView,
			CreatedAt: time.Now(),
			CreatedBy: "owner-1",
			Active:    true,
		}
		require.NoError(t, store.PutPermission(ctx, perm))

		allowed, err := engine.Authorize(ctx, "anyone", file.ID, share.LevelView)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ExpiredGrantDenied", func(t *testing.T) {
		engine, store, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		past := time.Now().Add(-time.Minute)
		perm := &share.Permission{
			ID:        uuid.New(),
			FileID:    file.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelAdmin,
			CreatedAt: time.Now().Add(-time.Hour),
			CreatedBy: "owner-1",
			ExpiresAt: &past,
			Active:    true,
		}
		require.NoError(t, store.PutPermission(ctx, perm))

		allowed, err := engine.Authorize(ctx, "alice", file.ID, share.LevelView)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("RevocationPropagatesAfterCacheTTL", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		perm, err := engine.ShareTarget(ctx, share.ShareRequest{
			FileID:    file.ID,
			GranteeID: "alice",
			Type:      share.ShareTypeInternal,
			Level:     share.LevelView,
			CreatedBy: "owner-1",
		})
		require.NoError(t, err)

		allowed, err := engine.Authorize(ctx, "alice", file.ID, share.LevelView)
		require.NoError(t, err)
		require.True(t, allowed)

		require.NoError(t, engine.RevokeShare(ctx, perm.ID))

		// The cache TTL bounds how long the stale allow can persist.
		time.Sleep(100 * time.Millisecond)

		allowed, err = engine.Authorize(ctx, "alice", file.ID, share.LevelView)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("DeletedFileDenied", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")
		require.NoError(t, cat.DeleteFile(ctx, file.ID))

		_, err := engine.Authorize(ctx, "owner-1", file.ID, share.LevelView)
		require.ErrorIs(t, err, catalog.ErrFileNotFound)
	})
}

func TestEngine_AuthorizeToken(t *testing.T) {
	engine, store, cat := newEngine(t)
	ctx := context.Background()
	file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

	perm, err := engine.ShareTarget(ctx, share.ShareRequest{
		FileID:       file.ID,
		GranteeID:    "ext-user",
		GranteeEmail: "ext@example.com",
		Type:         share.ShareTypeExternal,
		Level:        share.LevelDownload,
		CreatedBy:    "owner-1",
	})
	require.NoError(t, err)

	got, err := engine.AuthorizeToken(ctx, perm.Token, share.LevelDownload)
	require.NoError(t, err)
	assert.Equal(t, perm.ID, got.ID)

	_, err = engine.AuthorizeToken(ctx, perm.Token, share.LevelAdmin)
	require.ErrorIs(t, err, share.ErrAccessDenied)

	_, err = engine.AuthorizeToken(ctx, "no-such-token", share.LevelView)
	require.ErrorIs(t, err, share.ErrPermissionNotFound)

	// Expiry wins over the Active flag.
	past := time.Now().Add(-time.Minute)
	perm.ExpiresAt = &past
	require.NoError(t, store.PutPermission(ctx, perm))
	_, err = engine.AuthorizeToken(ctx, perm.Token, share.LevelView)
	require.ErrorIs(t, err, share.ErrExpired)

	perm.ExpiresAt = nil
	perm.Active = false
	require.NoError(t, store.PutPermission(ctx, perm))
	_, err = engine.AuthorizeToken(ctx, perm.Token, share.LevelView)
	require.ErrorIs(t, err, share.ErrRevoked)
}

func TestEngine_DownloadLinks(t *testing.T) {
	t.Run("CreateAppliesDefaultAndCap", func(t *testing.T) {
		store := sharemem.NewMemoryStore()
		cat := catalogmem.NewMemoryStore()
		engine := share.NewEngine(store, cat, nil, share.EngineConfig{
			DefaultLinkTTL: time.Hour,
			MaxLinkTTL:     2 * time.Hour,
		}, nil)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		link, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), link.ExpiresAt, 5*time.Second)

		capped, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{
			TTL: 100 * time.Hour,
		})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(2*time.Hour), capped.ExpiresAt, 5*time.Second)
	})

	t.Run("CreateRejectsUnavailableFile", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")
		require.NoError(t, cat.SetFileStatus(ctx, file.ID, catalog.FileStatusProcessing))

		_, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{})
		require.ErrorIs(t, err, share.ErrNotAvailable)
	})

	t.Run("ConsumeBumpsFileDownloadCount", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		link, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{
			MaxDownloads: 1,
		})
		require.NoError(t, err)

		gotLink, gotFile, err := engine.ConsumeDownloadLink(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), gotLink.DownloadCount)
		assert.Equal(t, file.ID, gotFile.ID)

		after, err := cat.GetFile(ctx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), after.DownloadCount)

		_, _, err = engine.ConsumeDownloadLink(ctx, link.Token)
		require.ErrorIs(t, err, share.ErrExhausted)
	})

	t.Run("RevokeIsIdempotent", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		link, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{})
		require.NoError(t, err)

		require.NoError(t, engine.RevokeDownloadLink(ctx, link.ID))
		require.NoError(t, engine.RevokeDownloadLink(ctx, link.ID))

		_, _, err = engine.ConsumeDownloadLink(ctx, link.Token)
		require.ErrorIs(t, err, share.ErrRevoked)
	})

	t.Run("ConsumeLeavesQuotaWhenContentMissing", func(t *testing.T) {
		engine, blobs, cat := newEngineWithBlobs(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		link, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{
			MaxDownloads: 1,
		})
		require.NoError(t, err)

		// Content was never stored: the consume must fail without
		// spending the single quota unit.
		_, _, err = engine.ConsumeDownloadLink(ctx, link.Token)
		require.ErrorIs(t, err, share.ErrNotAvailable)

		_, err = blobs.Put(ctx, []byte("report.txt"))
		require.NoError(t, err)

		gotLink, gotFile, err := engine.ConsumeDownloadLink(ctx, link.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), gotLink.DownloadCount)
		assert.Equal(t, file.ID, gotFile.ID)
	})

	t.Run("OpenDownloadStreamsContent", func(t *testing.T) {
		engine, blobs, cat := newEngineWithBlobs(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		_, err := blobs.Put(ctx, []byte("report.txt"))
		require.NoError(t, err)

		link, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{})
		require.NoError(t, err)

		rc, gotFile, err := engine.OpenDownload(ctx, link.Token)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, []byte("report.txt"), data)
		assert.Equal(t, file.ID, gotFile.ID)
	})

	t.Run("OpenDownloadRequiresContentStore", func(t *testing.T) {
		engine, _, cat := newEngine(t)
		ctx := context.Background()
		file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

		link, err := engine.CreateDownloadLink(ctx, file.ID, "owner-1", share.LinkOptions{})
		require.NoError(t, err)

		_, _, err = engine.OpenDownload(ctx, link.Token)
		require.ErrorIs(t, err, share.ErrNotAvailable)
	})
}

func TestEngine_CreatePublicShare(t *testing.T) {
	engine, _, cat := newEngine(t)
	ctx := context.Background()
	file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

	perm, link, err := engine.CreatePublicShare(ctx, file.ID, "owner-1", time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, share.ShareTypePublic, perm.Type)
	assert.NotEmpty(t, perm.Token)
	assert.Equal(t, int64(10), link.MaxDownloads)

	_, gotFile, err := engine.ConsumeDownloadLink(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, file.ID, gotFile.ID)
}

func TestEngine_ShareListings(t *testing.T) {
	engine, _, cat := newEngine(t)
	ctx := context.Background()
	file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")
	other := commitFile(t, cat, uuid.Nil, "other.txt", "owner-2")

	active, err := engine.ShareTarget(ctx, share.ShareRequest{
		FileID:    file.ID,
		GranteeID: "alice",
		Type:      share.ShareTypeInternal,
		Level:     share.LevelView,
		CreatedBy: "owner-1",
	})
	require.NoError(t, err)

	revoked, err := engine.ShareTarget(ctx, share.ShareRequest{
		FileID:    other.ID,
		GranteeID: "alice",
		Type:      share.ShareTypeInternal,
		Level:     share.LevelView,
		CreatedBy: "owner-1",
	})
	require.NoError(t, err)
	require.NoError(t, engine.RevokeShare(ctx, revoked.ID))

	withMe, err := engine.SharedWithMe(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, withMe, 1)
	assert.Equal(t, active.ID, withMe[0].ID)

	// Outgoing listings filter like incoming ones: the revoked grant is
	// gone from SharedByMe but still visible in the per-target view.
	byMe, err := engine.SharedByMe(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, byMe, 1)
	assert.Equal(t, active.ID, byMe[0].ID)

	forFile, err := engine.SharesForFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Len(t, forFile, 1)

	forOther, err := engine.SharesForFile(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, forOther, 1)
	assert.False(t, forOther[0].Active)
}

func TestEngine_SharedByMeExcludesExpired(t *testing.T) {
	engine, store, cat := newEngine(t)
	ctx := context.Background()
	file := commitFile(t, cat, uuid.Nil, "report.txt", "owner-1")

	perm, err := engine.ShareTarget(ctx, share.ShareRequest{
		FileID:    file.ID,
		GranteeID: "alice",
		Type:      share.ShareTypeInternal,
		Level:     share.LevelView,
		CreatedBy: "owner-1",
	})
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	perm.ExpiresAt = &past
	require.NoError(t, store.PutPermission(ctx, perm))

	byMe, err := engine.SharedByMe(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, byMe)
}
