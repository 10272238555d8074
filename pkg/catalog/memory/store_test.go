package memory

import (
	"testing"

	"github.com/filedepot/filedepot/pkg/catalog"
	catalogtesting "github.com/filedepot/filedepot/pkg/catalog/testing"
)

// TestMemoryStore runs the complete catalog test suite against the
// in-memory implementation.
func TestMemoryStore(t *testing.T) {
	suite := &catalogtesting.StoreTestSuite{
		NewStore: func(t *testing.T) catalog.Store {
			return NewMemoryStore()
		},
	}

	suite.Run(t)
}
