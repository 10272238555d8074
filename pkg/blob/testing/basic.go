package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/filedepot/filedepot/pkg/blob"
)

// RunBasicTests executes all basic Store operation tests.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("Open_NotFound", suite.testOpenNotFound)
	t.Run("Open_Success", suite.testOpenSuccess)
	t.Run("Size_NotFound", suite.testSizeNotFound)
	t.Run("Size_Success", suite.testSizeSuccess)
	t.Run("Exists_NotFound", suite.testExistsNotFound)
	t.Run("Exists_Success", suite.testExistsSuccess)
	t.Run("Open_EmptyBlob", suite.testOpenEmpty)
	t.Run("Open_LargeBlob", suite.testOpenLarge)
}

// ============================================================================
// Open Tests
// ============================================================================

func (suite *StoreTestSuite) testOpenNotFound(t *testing.T) {
	store := suite.NewStore()

	hash := blob.Sum([]byte("never stored"))
	_, err := store.Open(testContext(), hash)

	AssertErrorIs(t, blob.ErrNotFound, err)
}

func (suite *StoreTestSuite) testOpenSuccess(t *testing.T) {
	store := suite.NewStore()
	writable, ok := store.(blob.WritableStore)
	if !ok {
		t.Skip("Store does not implement WritableStore")
	}

	testData := []byte("Hello, World!")

	hash := mustPut(t, writable, testData)
	assert.Equal(t, blob.Sum(testData), hash)

	assertBlobEquals(t, store, hash, testData)
}

func (suite *StoreTestSuite) testOpenEmpty(t *testing.T) {
	store := suite.NewStore()
	writable, ok := store.(blob.WritableStore)
	if !ok {
		t.Skip("Store does not implement WritableStore")
	}

	hash := mustPut(t, writable, []byte{})

	data := mustOpen(t, store, hash)
	assert.Equal(t, 0, len(data))
}

func (suite *StoreTestSuite) testOpenLarge(t *testing.T) {
	store := suite.NewStore()
	writable, ok := store.(blob.WritableStore)
	if !ok {
		t.Skip("Store does not implement WritableStore")
	}

	// 10MB test data
	testData := generateTestData(10 * 1024 * 1024)

	hash := mustPut(t, writable, testData)

	data := mustOpen(t, store, hash)
	assert.Equal(t, testData, data)
}

// ============================================================================
// Size Tests
// ============================================================================

func (suite *StoreTestSuite) testSizeNotFound(t *testing.T) {
	store := suite.NewStore()

	hash := blob.Sum([]byte("missing-size"))
	_, err := store.Size(testContext(), hash)

	AssertErrorIs(t, blob.ErrNotFound, err)
}

func (suite *StoreTestSuite) testSizeSuccess(t *testing.T) {
	store := suite.NewStore()
	writable, ok := store.(blob.WritableStore)
	if !ok {
		t.Skip("Store does not implement WritableStore")
	}

	testData := []byte("Test data for size")

	hash := mustPut(t, writable, testData)

	size := mustSize(t, store, hash)
	assert.Equal(t, uint64(len(testData)), size)
}

// ============================================================================
// Exists Tests
// ============================================================================

func (suite *StoreTestSuite) testExistsNotFound(t *testing.T) {
	store := suite.NewStore()

	hash := blob.Sum([]byte("missing-exists"))
	assertExists(t, store, hash, false)
}

func (suite *StoreTestSuite) testExistsSuccess(t *testing.T) {
	store := suite.NewStore()
	writable, ok := store.(blob.WritableStore)
	if !ok {
		t.Skip("Store does not implement WritableStore")
	}

	testData := []byte("Exists test")
	hash := blob.Sum(testData)

	// Before write
	assertExists(t, store, hash, false)

	mustPut(t, writable, testData)

	// After write
	assertExists(t, store, hash, true)
}
