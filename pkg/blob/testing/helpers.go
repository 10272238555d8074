package testing

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
)

// AssertErrorIs checks if the error matches the expected error using errors.Is.
func AssertErrorIs(t *testing.T, expected error, actual error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("Expected error %v, got %v", expected, actual)
	}
}

// mustPut stores data and fails the test if it errors.
func mustPut(t *testing.T, store blob.WritableStore, data []byte) blob.Hash {
	t.Helper()
	hash, err := store.Put(testContext(), data)
	require.NoError(t, err, "Put should succeed")
	return hash
}

// mustOpen reads a blob fully and fails the test if it errors.
func mustOpen(t *testing.T, store blob.Store, hash blob.Hash) []byte {
	t.Helper()
	reader, err := store.Open(testContext(), hash)
	require.NoError(t, err, "Open should succeed")
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "Reading blob should succeed")
	return data
}

// mustSize gets a blob size and fails the test if it errors.
func mustSize(t *testing.T, store blob.Store, hash blob.Hash) uint64 {
	t.Helper()
	size, err := store.Size(testContext(), hash)
	require.NoError(t, err, "Size should succeed")
	return size
}

// mustDelete deletes a blob and fails the test if it errors.
func mustDelete(t *testing.T, store blob.WritableStore, hash blob.Hash) {
	t.Helper()
	err := store.Delete(testContext(), hash)
	require.NoError(t, err, "Delete should succeed")
}

// assertExists checks blob existence.
func assertExists(t *testing.T, store blob.Store, hash blob.Hash, expected bool) {
	t.Helper()
	exists, err := store.Exists(testContext(), hash)
	require.NoError(t, err, "Exists should not error")
	assert.Equal(t, expected, exists, "Blob existence mismatch")
}

// assertBlobEquals checks if stored bytes match expected data.
func assertBlobEquals(t *testing.T, store blob.Store, hash blob.Hash, expected []byte) {
	t.Helper()
	actual := mustOpen(t, store, hash)
	assert.Equal(t, expected, actual, "Blob data mismatch")
}

// generateTestData creates test data of specified size.
func generateTestData(size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = byte(i % 256)
	}
	return data
}
