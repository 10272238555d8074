package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
	"github.com/filedepot/filedepot/pkg/catalog"
)

// RunFileTests executes all file operation tests.
func (suite *StoreTestSuite) RunFileTests(t *testing.T) {
	t.Run("CommitVersion_CreatesAtVersionOne", suite.testCommitCreates)
	t.Run("CommitVersion_BumpsExistingIdentity", suite.testCommitBumps)
	t.Run("CommitVersion_DeletedIdentityStartsFresh", suite.testCommitAfterDelete)
	t.Run("FindFileByName_SkipsDeleted", suite.testFindByNameSkipsDeleted)
	t.Run("ListFiles_SkipsDeleted", suite.testListFilesSkipsDeleted)
	t.Run("RenameFile_Conflict", suite.testRenameFileConflict)
	t.Run("MoveFile_AdjustsCounters", suite.testMoveFileCounters)
	t.Run("DeleteFile_SoftKeepsRecord", suite.testDeleteFileSoft)
	t.Run("SetFileStatus", suite.testSetFileStatus)
	t.Run("IncrementDownloadCount", suite.testIncrementDownloadCount)
	t.Run("UpdateTags", suite.testUpdateTags)
}

func (suite *StoreTestSuite) testCommitCreates(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	data := []byte("first upload")

	file := mustCommit(t, store, folder.ID, "report.pdf", data)

	assert.NotEqual(t, uuid.Nil, file.ID)
	assert.Equal(t, int64(1), file.Version)
	assert.Equal(t, catalog.FileStatusAvailable, file.Status)
	assert.Equal(t, blob.Sum(data), file.ContentHash)
	assert.Equal(t, uint64(len(data)), file.Size)
}

func (suite *StoreTestSuite) testCommitBumps(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)

	v1 := mustCommit(t, store, folder.ID, "report.pdf", []byte("first"))
	v2 := mustCommit(t, store, folder.ID, "report.pdf", []byte("second"))

	// Same file identity: id stable, version bumped, content replaced.
	assert.Equal(t, v1.ID, v2.ID)
	assert.Equal(t, int64(2), v2.Version)
	assert.Equal(t, blob.Sum([]byte("second")), v2.ContentHash)

	// Still one file in the folder.
	files, err := store.ListFiles(testContext(), folder.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, 1, mustGetFolder(t, store, folder.ID).FileCount)
}

func (suite *StoreTestSuite) testCommitAfterDelete(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)

	v1 := mustCommit(t, store, folder.ID, "report.pdf", []byte("first"))
	require.NoError(t, store.DeleteFile(testContext(), v1.ID))

	// A deleted identity does not resurrect: committing the same name
	// creates a brand new file at version 1.
	v2 := mustCommit(t, store, folder.ID, "report.pdf", []byte("second"))
	assert.NotEqual(t, v1.ID, v2.ID)
	assert.Equal(t, int64(1), v2.Version)
}

func (suite *StoreTestSuite) testFindByNameSkipsDeleted(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	file := mustCommit(t, store, folder.ID, "gone.txt", []byte("bytes"))

	found, err := store.FindFileByName(testContext(), folder.ID, "gone.txt")
	require.NoError(t, err)
	assert.Equal(t, file.ID, found.ID)

	require.NoError(t, store.DeleteFile(testContext(), file.ID))

	_, err = store.FindFileByName(testContext(), folder.ID, "gone.txt")
	AssertErrorIs(t, catalog.ErrFileNotFound, err)
}

func (suite *StoreTestSuite) testListFilesSkipsDeleted(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	keep := mustCommit(t, store, folder.ID, "keep.txt", []byte("keep"))
	drop := mustCommit(t, store, folder.ID, "drop.txt", []byte("drop"))

	require.NoError(t, store.DeleteFile(testContext(), drop.ID))

	files, err := store.ListFiles(testContext(), folder.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, keep.ID, files[0].ID)
}

func (suite *StoreTestSuite) testRenameFileConflict(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	a := mustCommit(t, store, folder.ID, "a.txt", []byte("a"))
	mustCommit(t, store, folder.ID, "b.txt", []byte("b"))

	err := store.RenameFile(testContext(), a.ID, "b.txt")
	AssertErrorIs(t, catalog.ErrAlreadyExists, err)

	require.NoError(t, store.RenameFile(testContext(), a.ID, "c.txt"))
	got := mustGetFile(t, store, a.ID)
	assert.Equal(t, "c.txt", got.Name)
}

func (suite *StoreTestSuite) testMoveFileCounters(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	src := mustCreateFolder(t, store, "src", uuid.Nil)
	dst := mustCreateFolder(t, store, "dst", uuid.Nil)
	file := mustCommit(t, store, src.ID, "doc.txt", []byte("doc"))

	require.NoError(t, store.MoveFile(testContext(), file.ID, dst.ID))

	got := mustGetFile(t, store, file.ID)
	assert.Equal(t, dst.ID, got.FolderID)
	assert.Equal(t, 0, mustGetFolder(t, store, src.ID).FileCount)
	assert.Equal(t, 1, mustGetFolder(t, store, dst.ID).FileCount)
}

func (suite *StoreTestSuite) testDeleteFileSoft(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	file := mustCommit(t, store, folder.ID, "audit.txt", []byte("trail"))

	require.NoError(t, store.DeleteFile(testContext(), file.ID))

	// The record survives with deleted status and its content hash intact.
	got := mustGetFile(t, store, file.ID)
	assert.Equal(t, catalog.FileStatusDeleted, got.Status)
	assert.Equal(t, file.ContentHash, got.ContentHash)
}

func (suite *StoreTestSuite) testSetFileStatus(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	file := mustCommit(t, store, folder.ID, "scan.bin", []byte("bytes"))

	require.NoError(t, store.SetFileStatus(testContext(), file.ID, catalog.FileStatusProcessing))
	assert.Equal(t, catalog.FileStatusProcessing, mustGetFile(t, store, file.ID).Status)
}

func (suite *StoreTestSuite) testIncrementDownloadCount(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	file := mustCommit(t, store, folder.ID, "popular.txt", []byte("bytes"))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.IncrementDownloadCount(testContext(), file.ID))
	}
	assert.Equal(t, int64(3), mustGetFile(t, store, file.ID).DownloadCount)
}

func (suite *StoreTestSuite) testUpdateTags(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()

	folder := mustCreateFolder(t, store, "inbox", uuid.Nil)
	file := mustCommit(t, store, folder.ID, "tagged.txt", []byte("bytes"))

	require.NoError(t, store.UpdateTags(testContext(), file.ID, []string{"q3", "finance"}))
	assert.Equal(t, []string{"q3", "finance"}, mustGetFile(t, store, file.ID).Tags)

	require.NoError(t, store.UpdateTags(testContext(), file.ID, nil))
	assert.Empty(t, mustGetFile(t, store, file.ID).Tags)
}
