// Package testing provides a reusable test suite for share.Store
// implementations. Every backend runs the same suite so behavior stays
// consistent across memory and badger.
package testing

import (
	"context"
	"testing"

	"github.com/filedepot/filedepot/pkg/share"
)

// StoreTestSuite runs a comprehensive set of tests against a share.Store
// implementation.
type StoreTestSuite struct {
	// NewStore creates a fresh store for each test.
	NewStore func(t *testing.T) share.Store
}

// Run executes all test suites.
func (s *StoreTestSuite) Run(t *testing.T) {
	t.Run("Permissions", func(t *testing.T) {
		s.RunPermissionTests(t)
	})
	t.Run("Links", func(t *testing.T) {
		s.RunLinkTests(t)
	})
}

func testContext() context.Context {
	return context.Background()
}
