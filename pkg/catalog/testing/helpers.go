package testing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
	"github.com/filedepot/filedepot/pkg/catalog"
)

// AssertErrorIs checks if the error matches the expected error using errors.Is.
func AssertErrorIs(t *testing.T, expected error, actual error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("Expected error %v, got %v", expected, actual)
	}
}

// mustCreateFolder creates a folder and fails the test if it errors.
func mustCreateFolder(t *testing.T, store catalog.Store, name string, parentID uuid.UUID) *catalog.FolderRecord {
	t.Helper()
	folder, err := store.CreateFolder(testContext(), name, parentID, "owner-1", "")
	require.NoError(t, err, "CreateFolder should succeed")
	return folder
}

// mustCommit commits a file version and fails the test if it errors.
func mustCommit(t *testing.T, store catalog.Store, folderID uuid.UUID, name string, data []byte) *catalog.FileRecord {
	t.Helper()
	file, err := store.CommitVersion(testContext(), catalog.VersionCommit{
		FolderID:    folderID,
		Name:        name,
		OwnerID:     "owner-1",
		Size:        uint64(len(data)),
		ContentHash: blob.Sum(data),
		ContentType: "application/octet-stream",
	})
	require.NoError(t, err, "CommitVersion should succeed")
	return file
}

// mustGetFolder reads a folder and fails the test if it errors.
func mustGetFolder(t *testing.T, store catalog.Store, id uuid.UUID) *catalog.FolderRecord {
	t.Helper()
	folder, err := store.GetFolder(testContext(), id)
	require.NoError(t, err, "GetFolder should succeed")
	return folder
}

// mustGetFile reads a file and fails the test if it errors.
func mustGetFile(t *testing.T, store catalog.Store, id uuid.UUID) *catalog.FileRecord {
	t.Helper()
	file, err := store.GetFile(testContext(), id)
	require.NoError(t, err, "GetFile should succeed")
	return file
}
