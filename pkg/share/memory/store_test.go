package memory

import (
	"testing"

	"github.com/filedepot/filedepot/pkg/share"
	sharetesting "github.com/filedepot/filedepot/pkg/share/testing"
)

func TestMemoryStore(t *testing.T) {
	suite := &sharetesting.StoreTestSuite{
		NewStore: func(t *testing.T) share.Store {
			return NewMemoryStore()
		},
	}
	suite.Run(t)
}
