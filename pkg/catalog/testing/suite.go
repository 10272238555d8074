package testing

import (
	"context"
	"testing"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// StoreTestSuite is a comprehensive test suite for catalog Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across backends (memory, badger).
//
// Usage:
//
//	func TestMyCatalogStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) catalog.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh Store instance
	// for each test. This ensures test isolation. Implementations needing
	// scratch space (temp dirs) take it from t.
	NewStore func(t *testing.T) catalog.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("FolderOperations", suite.RunFolderTests)
	t.Run("FileOperations", suite.RunFileTests)
	t.Run("QueryOperations", suite.RunQueryTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
