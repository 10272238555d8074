package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// RunFolderTests executes all folder operation tests.
func (suite *StoreTestSuite) RunFolderTests(t *testing.T) {
	t.Run("CreateFolder_Success", suite.testCreateFolderSuccess)
	t.Run("CreateFolder_DuplicateName", suite.testCreateFolderDuplicateName)
	t.Run("CreateFolder_MissingParent", suite.testCreateFolderMissingParent)
	t.Run("GetFolder_NotFound", suite.testGetFolderNotFound)
	t.Run("ListFolders_SortedByName", suite.testListFoldersSorted)
	t.Run("RenameFolder", suite.testRenameFolder)
	t.Run("MoveFolder_Success", suite.testMoveFolderSuccess)
	t.Run("MoveFolder_CycleRejected", suite.testMoveFolderCycle)
	t.Run("MoveFolder_SelfRejected", suite.testMoveFolderSelf)
	t.Run("DeleteFolder_NotEmpty", suite.testDeleteFolderNotEmpty)
	t.Run("DeleteFolder_Recursive", suite.testDeleteFolderRecursive)
	t.Run("Breadcrumb_RootFirst", suite.testBreadcrumb)
	t.Run("Counters_TrackLiveEntries", suite.testFolderCounters)
}

func (suite *StoreTestSuite) testCreateFolderSuccess(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "documents", uuid.Nil)

	assert.NotEqual(t, uuid.Nil, folder.ID)
	assert.Equal(t, "documents", folder.Name)
	assert.Equal(t, uuid.Nil, folder.ParentID)
	assert.Equal(t, 0, folder.FileCount)
	assert.Equal(t, 0, folder.SubfolderCount)
	assert.False(t, folder.CreatedAt.IsZero())

	got := mustGetFolder(t, store, folder.ID)
	assert.Equal(t, folder.ID, got.ID)
	assert.Equal(t, "documents", got.Name)
}

func (suite *StoreTestSuite) testCreateFolderDuplicateName(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	mustCreateFolder(t, store, "dup", uuid.Nil)
	_, err := store.CreateFolder(testContext(), "dup", uuid.Nil, "owner-1", "")

	AssertErrorIs(t, catalog.ErrAlreadyExists, err)
}

func (suite *StoreTestSuite) testCreateFolderMissingParent(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	_, err := store.CreateFolder(testContext(), "orphan", uuid.New(), "owner-1", "")

	AssertErrorIs(t, catalog.ErrFolderNotFound, err)
}

func (suite *StoreTestSuite) testGetFolderNotFound(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	_, err := store.GetFolder(testContext(), uuid.New())

	AssertErrorIs(t, catalog.ErrFolderNotFound, err)
}

func (suite *StoreTestSuite) testListFoldersSorted(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	mustCreateFolder(t, store, "zebra", uuid.Nil)
	mustCreateFolder(t, store, "alpha", uuid.Nil)
	mustCreateFolder(t, store, "middle", uuid.Nil)

	folders, err := store.ListFolders(testContext(), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, folders, 3)

	assert.Equal(t, "alpha", folders[0].Name)
	assert.Equal(t, "middle", folders[1].Name)
	assert.Equal(t, "zebra", folders[2].Name)
}

func (suite *StoreTestSuite) testRenameFolder(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "before", uuid.Nil)

	err := store.RenameFolder(testContext(), folder.ID, "after")
	require.NoError(t, err)

	got := mustGetFolder(t, store, folder.ID)
	assert.Equal(t, "after", got.Name)

	// The old name is free again.
	mustCreateFolder(t, store, "before", uuid.Nil)
}

func (suite *StoreTestSuite) testMoveFolderSuccess(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	src := mustCreateFolder(t, store, "src", uuid.Nil)
	dst := mustCreateFolder(t, store, "dst", uuid.Nil)
	child := mustCreateFolder(t, store, "child", src.ID)

	err := store.MoveFolder(testContext(), child.ID, dst.ID)
	require.NoError(t, err)

	got := mustGetFolder(t, store, child.ID)
	assert.Equal(t, dst.ID, got.ParentID)

	assert.Equal(t, 0, mustGetFolder(t, store, src.ID).SubfolderCount)
	assert.Equal(t, 1, mustGetFolder(t, store, dst.ID).SubfolderCount)
}

func (suite *StoreTestSuite) testMoveFolderCycle(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	a := mustCreateFolder(t, store, "a", uuid.Nil)
	b := mustCreateFolder(t, store, "b", a.ID)
	c := mustCreateFolder(t, store, "c", b.ID)

	// Moving a under its own grandchild must fail.
	err := store.MoveFolder(testContext(), a.ID, c.ID)
	AssertErrorIs(t, catalog.ErrFolderCycle, err)
}

func (suite *StoreTestSuite) testMoveFolderSelf(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	a := mustCreateFolder(t, store, "self", uuid.Nil)

	err := store.MoveFolder(testContext(), a.ID, a.ID)
	AssertErrorIs(t, catalog.ErrFolderCycle, err)
}

func (suite *StoreTestSuite) testDeleteFolderNotEmpty(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	parent := mustCreateFolder(t, store, "parent", uuid.Nil)
	mustCreateFolder(t, store, "child", parent.ID)

	err := store.DeleteFolder(testContext(), parent.ID, false)
	AssertErrorIs(t, catalog.ErrFolderNotEmpty, err)
}

func (suite *StoreTestSuite) testDeleteFolderRecursive(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	parent := mustCreateFolder(t, store, "parent", uuid.Nil)
	child := mustCreateFolder(t, store, "child", parent.ID)
	file := mustCommit(t, store, child.ID, "doc.txt", []byte("content"))

	err := store.DeleteFolder(testContext(), parent.ID, true)
	require.NoError(t, err)

	_, err = store.GetFolder(testContext(), parent.ID)
	AssertErrorIs(t, catalog.ErrFolderNotFound, err)
	_, err = store.GetFolder(testContext(), child.ID)
	AssertErrorIs(t, catalog.ErrFolderNotFound, err)

	// Contained files are soft-deleted, not purged.
	got := mustGetFile(t, store, file.ID)
	assert.Equal(t, catalog.FileStatusDeleted, got.Status)
}

func (suite *StoreTestSuite) testBreadcrumb(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	a := mustCreateFolder(t, store, "a", uuid.Nil)
	b := mustCreateFolder(t, store, "b", a.ID)
	c := mustCreateFolder(t, store, "c", b.ID)

	crumb, err := store.Breadcrumb(testContext(), c.ID)
	require.NoError(t, err)
	require.Len(t, crumb, 3)

	assert.Equal(t, a.ID, crumb[0].ID)
	assert.Equal(t, b.ID, crumb[1].ID)
	assert.Equal(t, c.ID, crumb[2].ID)
}

func (suite *StoreTestSuite) testFolderCounters(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "counted", uuid.Nil)
	mustCreateFolder(t, store, "sub", folder.ID)
	file := mustCommit(t, store, folder.ID, "a.txt", []byte("a"))
	mustCommit(t, store, folder.ID, "b.txt", []byte("b"))

	got := mustGetFolder(t, store, folder.ID)
	assert.Equal(t, 2, got.FileCount)
	assert.Equal(t, 1, got.SubfolderCount)

	// Soft delete decrements the live count.
	require.NoError(t, store.DeleteFile(testContext(), file.ID))
	got = mustGetFolder(t, store, folder.ID)
	assert.Equal(t, 1, got.FileCount)

	// Deleting an already deleted file does not decrement again.
	require.NoError(t, store.DeleteFile(testContext(), file.ID))
	got = mustGetFolder(t, store, folder.ID)
	assert.Equal(t, 1, got.FileCount)
}
