package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/share"
	sharetesting "github.com/filedepot/filedepot/pkg/share/testing"
)

func TestBadgerStore(t *testing.T) {
	suite := &sharetesting.StoreTestSuite{
		NewStore: func(t *testing.T) share.Store {
			store, err := NewBadgerStore(context.Background(), BadgerStoreConfig{
				DBPath: t.TempDir(),
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}
