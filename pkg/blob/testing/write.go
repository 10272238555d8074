package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
)

// RunWriteTests executes all WritableStore operation tests.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("Put_HashIsContentAddress", suite.testPutHashIsContentAddress)
	t.Run("Put_Idempotent", suite.testPutIdempotent)
	t.Run("Put_DistinctContent", suite.testPutDistinctContent)
	t.Run("PutStream_Success", suite.testPutStreamSuccess)
	t.Run("PutStream_MatchesPut", suite.testPutStreamMatchesPut)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
	t.Run("List_ReturnsStoredHashes", suite.testListReturnsStoredHashes)
}

func (suite *StoreTestSuite) newWritable(t *testing.T) blob.WritableStore {
	t.Helper()
	store := suite.NewStore()
	writable, ok := store.(blob.WritableStore)
	if !ok {
		t.Skip("Store does not implement WritableStore")
	}
	return writable
}

// ============================================================================
// Put Tests
// ============================================================================

func (suite *StoreTestSuite) testPutHashIsContentAddress(t *testing.T) {
	store := suite.newWritable(t)

	testData := []byte("content addressing")
	hash := mustPut(t, store, testData)

	assert.Equal(t, blob.Sum(testData), hash)
	assertBlobEquals(t, store, hash, testData)
}

func (suite *StoreTestSuite) testPutIdempotent(t *testing.T) {
	store := suite.newWritable(t)

	testData := []byte("stored twice")

	hash1 := mustPut(t, store, testData)
	hash2 := mustPut(t, store, testData)

	assert.Equal(t, hash1, hash2)
	assertBlobEquals(t, store, hash1, testData)
}

func (suite *StoreTestSuite) testPutDistinctContent(t *testing.T) {
	store := suite.newWritable(t)

	hash1 := mustPut(t, store, []byte("first blob"))
	hash2 := mustPut(t, store, []byte("second blob"))

	assert.NotEqual(t, hash1, hash2)
	assertBlobEquals(t, store, hash1, []byte("first blob"))
	assertBlobEquals(t, store, hash2, []byte("second blob"))
}

// ============================================================================
// PutStream Tests
// ============================================================================

func (suite *StoreTestSuite) testPutStreamSuccess(t *testing.T) {
	store := suite.newWritable(t)

	testData := generateTestData(64 * 1024)

	hash, size, err := store.PutStream(testContext(), bytes.NewReader(testData))
	require.NoError(t, err)

	assert.Equal(t, blob.Sum(testData), hash)
	assert.Equal(t, uint64(len(testData)), size)
	assertBlobEquals(t, store, hash, testData)
}

func (suite *StoreTestSuite) testPutStreamMatchesPut(t *testing.T) {
	store := suite.newWritable(t)

	testData := []byte("same bytes either way")

	putHash := mustPut(t, store, testData)
	streamHash, _, err := store.PutStream(testContext(), bytes.NewReader(testData))
	require.NoError(t, err)

	assert.Equal(t, putHash, streamHash)
}

// ============================================================================
// Delete Tests
// ============================================================================

func (suite *StoreTestSuite) testDeleteSuccess(t *testing.T) {
	store := suite.newWritable(t)

	hash := mustPut(t, store, []byte("to be deleted"))
	assertExists(t, store, hash, true)

	mustDelete(t, store, hash)
	assertExists(t, store, hash, false)
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.newWritable(t)

	hash := mustPut(t, store, []byte("delete twice"))

	mustDelete(t, store, hash)
	mustDelete(t, store, hash)

	assertExists(t, store, hash, false)
}

// ============================================================================
// List Tests
// ============================================================================

func (suite *StoreTestSuite) testListReturnsStoredHashes(t *testing.T) {
	store := suite.newWritable(t)
	listable, ok := store.(blob.ListableStore)
	if !ok {
		t.Skip("Store does not implement ListableStore")
	}

	hash1 := mustPut(t, store, []byte("list one"))
	hash2 := mustPut(t, store, []byte("list two"))
	hash3 := mustPut(t, store, []byte("list three"))

	hashes, err := listable.List(testContext())
	require.NoError(t, err)

	assert.Len(t, hashes, 3)
	assert.Contains(t, hashes, hash1)
	assert.Contains(t, hashes, hash2)
	assert.Contains(t, hashes, hash3)
}
