package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// RunQueryTests executes owner, recency and GC-support query tests.
func (suite *StoreTestSuite) RunQueryTests(t *testing.T) {
	t.Run("ListByOwner", suite.testListByOwner)
	t.Run("ListRecent_Limit", suite.testListRecentLimit)
	t.Run("AllContentHashes_IncludesDeleted", suite.testAllContentHashes)
}

func (suite *StoreTestSuite) testListByOwner(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)

	_, err := store.CommitVersion(testContext(), catalog.VersionCommit{
		FolderID: folder.ID, Name: "mine.txt", OwnerID: "alice", Size: 4,
	})
	require.NoError(t, err)
	_, err = store.CommitVersion(testContext(), catalog.VersionCommit{
		FolderID: folder.ID, Name: "theirs.txt", OwnerID: "bob", Size: 4,
	})
	require.NoError(t, err)

	mine, err := store.ListByOwner(testContext(), "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine.txt", mine[0].Name)
}

func (suite *StoreTestSuite) testListRecentLimit(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		mustCommit(t, store, folder.ID, name, []byte(name))
	}

	recent, err := store.ListRecent(testContext(), "", 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	all, err := store.ListRecent(testContext(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func (suite *StoreTestSuite) testAllContentHashes(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	keep := mustCommit(t, store, folder.ID, "keep.txt", []byte("keep"))
	gone := mustCommit(t, store, folder.ID, "gone.txt", []byte("gone"))

	require.NoError(t, store.DeleteFile(testContext(), gone.ID))

	hashes, err := store.AllContentHashes(testContext())
	require.NoError(t, err)

	// Deleted records still pin their blobs.
	assert.Contains(t, hashes, keep.ContentHash)
	assert.Contains(t, hashes, gone.ContentHash)
}
