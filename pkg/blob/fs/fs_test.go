package fs

import (
	"context"
	"testing"

	"github.com/filedepot/filedepot/pkg/blob"
	blobtesting "github.com/filedepot/filedepot/pkg/blob/testing"
)

// TestFSStore runs the complete blob store test suite against the
// filesystem implementation. Each store gets its own temp directory.
func TestFSStore(t *testing.T) {
	suite := &blobtesting.StoreTestSuite{
		NewStore: func() blob.Store {
			store, err := NewFSStore(context.Background(), t.TempDir())
			if err != nil {
				t.Fatalf("Failed to create FSStore: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}
