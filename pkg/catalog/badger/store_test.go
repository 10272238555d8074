package badger

import (
	"context"
	"testing"

	"github.com/filedepot/filedepot/pkg/catalog"
	catalogtesting "github.com/filedepot/filedepot/pkg/catalog/testing"
)

// TestBadgerStore runs the complete catalog test suite against the
// BadgerDB implementation. Each test gets a fresh database in a temp dir.
func TestBadgerStore(t *testing.T) {
	suite := &catalogtesting.StoreTestSuite{
		NewStore: func(t *testing.T) catalog.Store {
			store, err := NewBadgerStore(context.Background(), BadgerStoreConfig{
				DBPath: t.TempDir(),
			})
			if err != nil {
				t.Fatalf("Failed to create BadgerStore: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}
