package memory

import (
	"testing"

	"github.com/filedepot/filedepot/pkg/blob"
	blobtesting "github.com/filedepot/filedepot/pkg/blob/testing"
)

// TestMemoryStore runs the complete blob store test suite against the
// MemoryStore implementation.
func TestMemoryStore(t *testing.T) {
	suite := &blobtesting.StoreTestSuite{
		NewStore: func() blob.Store {
			return NewMemoryStore()
		},
	}

	suite.Run(t)
}
