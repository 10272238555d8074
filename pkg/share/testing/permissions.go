package testing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/share"
)

// RunPermissionTests runs permission storage tests.
func (s *StoreTestSuite) RunPermissionTests(t *testing.T) {
	t.Run("PutAndGet", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		perm := newPermission(t, uuid.New(), "alice", share.LevelDownload)
		mustPutPermission(t, store, perm)

		got, err := store.GetPermission(ctx, perm.ID)
		require.NoError(t, err)
		assert.Equal(t, perm.ID, got.ID)
		assert.Equal(t, "alice", got.GranteeID)
		assert.Equal(t, share.LevelDownload, got.Level)
		assert.True(t, got.Active)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()

		_, err := store.GetPermission(testContext(), uuid.New())
		AssertErrorIs(t, err, share.ErrPermissionNotFound)
	})

	t.Run("PutUpsertsByID", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		perm := newPermission(t, uuid.New(), "alice", share.LevelView)
		mustPutPermission(t, store, perm)

		perm.Level = share.LevelEdit
		perm.Active = false
		mustPutPermission(t, store, perm)

		got, err := store.GetPermission(ctx, perm.ID)
		require.NoError(t, err)
		assert.Equal(t, share.LevelEdit, got.Level)
		assert.False(t, got.Active)

		all, err := store.ListPermissions(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("GetByToken", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		token, err := share.NewToken()
		require.NoError(t, err)

		perm := newPermission(t, uuid.New(), "", share.LevelDownload)
		perm.Type = share.ShareTypePublic
		perm.Token = token
		mustPutPermission(t, store, perm)

		got, err := store.GetPermissionByToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, perm.ID, got.ID)

		_, err = store.GetPermissionByToken(ctx, "no-such-token")
		AssertErrorIs(t, err, share.ErrPermissionNotFound)
	})

	t.Run("TokenChangeDropsOldIndex", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		oldToken, err := share.NewToken()
		require.NoError(t, err)
		newToken, err := share.NewToken()
		require.NoError(t, err)

		perm := newPermission(t, uuid.New(), "", share.LevelView)
		perm.Type = share.ShareTypeExternal
		perm.Token = oldToken
		mustPutPermission(t, store, perm)

		perm.Token = newToken
		mustPutPermission(t, store, perm)

		_, err = store.GetPermissionByToken(ctx, oldToken)
		AssertErrorIs(t, err, share.ErrPermissionNotFound)

		got, err := store.GetPermissionByToken(ctx, newToken)
		require.NoError(t, err)
		assert.Equal(t, perm.ID, got.ID)
	})

	t.Run("FindByTargetAndGrantee", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		fileID := uuid.New()
		folderID := uuid.New()

		filePerm := newPermission(t, fileID, "alice", share.LevelView)
		mustPutPermission(t, store, filePerm)

		folderPerm := newPermission(t, uuid.Nil, "alice", share.LevelEdit)
		folderPerm.FolderID = folderID
		mustPutPermission(t, store, folderPerm)

		got, err := store.FindPermission(ctx, fileID, uuid.Nil, "alice")
		require.NoError(t, err)
		assert.Equal(t, filePerm.ID, got.ID)

		got, err = store.FindPermission(ctx, uuid.Nil, folderID, "alice")
		require.NoError(t, err)
		assert.Equal(t, folderPerm.ID, got.ID)

		_, err = store.FindPermission(ctx, fileID, uuid.Nil, "bob")
		AssertErrorIs(t, err, share.ErrPermissionNotFound)
	})

	t.Run("ListByFileAndFolder", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		fileID := uuid.New()
		mustPutPermission(t, store, newPermission(t, fileID, "alice", share.LevelView))
		mustPutPermission(t, store, newPermission(t, fileID, "bob", share.LevelEdit))
		mustPutPermission(t, store, newPermission(t, uuid.New(), "alice", share.LevelView))

		folderID := uuid.New()
		folderPerm := newPermission(t, uuid.Nil, "carol", share.LevelView)
		folderPerm.FolderID = folderID
		mustPutPermission(t, store, folderPerm)

		byFile, err := store.ListPermissionsByFile(ctx, fileID)
		require.NoError(t, err)
		assert.Len(t, byFile, 2)

		byFolder, err := store.ListPermissionsByFolder(ctx, folderID)
		require.NoError(t, err)
		require.Len(t, byFolder, 1)
		assert.Equal(t, "carol", byFolder[0].GranteeID)
	})

	t.Run("ListByGranteeIncludesRevoked", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		active := newPermission(t, uuid.New(), "alice", share.LevelView)
		mustPutPermission(t, store, active)

		revoked := newPermission(t, uuid.New(), "alice", share.LevelView)
		revoked.Active = false
		mustPutPermission(t, store, revoked)

		mustPutPermission(t, store, newPermission(t, uuid.New(), "bob", share.LevelView))

		perms, err := store.ListPermissionsByGrantee(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, perms, 2)
	})

	t.Run("ListByCreator", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		mine := newPermission(t, uuid.New(), "alice", share.LevelView)
		mine.CreatedBy = "owner-2"
		mustPutPermission(t, store, mine)

		mustPutPermission(t, store, newPermission(t, uuid.New(), "bob", share.LevelView))

		perms, err := store.ListPermissionsByCreator(ctx, "owner-2")
		require.NoError(t, err)
		require.Len(t, perms, 1)
		assert.Equal(t, mine.ID, perms[0].ID)
	})

	t.Run("ExpiryFieldsRoundTrip", func(t *testing.T) {
		store := s.NewStore(t)
		defer store.Close()
		ctx := testContext()

		expiry := time.Now().Add(time.Hour).Truncate(time.Millisecond)
		perm := newPermission(t, uuid.New(), "alice", share.LevelView)
		perm.ExpiresAt = &expiry
		mustPutPermission(t, store, perm)

		got, err := store.GetPermission(ctx, perm.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, got.ExpiresAt.Equal(expiry))
	})
}
