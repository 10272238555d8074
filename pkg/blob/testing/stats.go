package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedepot/filedepot/pkg/blob"
)

// RunStatsTests executes all storage statistics tests.
func (suite *StoreTestSuite) RunStatsTests(t *testing.T) {
	t.Run("GetStats_Empty", suite.testGetStatsEmpty)
	t.Run("GetStats_WithBlobs", suite.testGetStatsWithBlobs)
	t.Run("GetStats_AfterDelete", suite.testGetStatsAfterDelete)
}

func (suite *StoreTestSuite) newReporter(t *testing.T) (blob.WritableStore, blob.StatsReporter) {
	t.Helper()
	store := suite.NewStore()
	reporter, ok := store.(blob.StatsReporter)
	if !ok {
		t.Skip("Store does not implement StatsReporter")
	}
	writable, ok := store.(blob.WritableStore)
	if !ok {
		t.Skip("Store does not implement WritableStore")
	}
	return writable, reporter
}

func (suite *StoreTestSuite) testGetStatsEmpty(t *testing.T) {
	_, reporter := suite.newReporter(t)

	stats, err := reporter.GetStats(testContext())
	require.NoError(t, err)
	assert.NotNil(t, stats)

	assert.Equal(t, uint64(0), stats.UsedBytes)
	assert.Equal(t, uint64(0), stats.ObjectCount)
}

func (suite *StoreTestSuite) testGetStatsWithBlobs(t *testing.T) {
	writable, reporter := suite.newReporter(t)

	mustPut(t, writable, generateTestData(100))
	mustPut(t, writable, generateTestData(200))
	mustPut(t, writable, generateTestData(300))

	stats, err := reporter.GetStats(testContext())
	require.NoError(t, err)

	assert.Equal(t, uint64(600), stats.UsedBytes)
	assert.Equal(t, uint64(3), stats.ObjectCount)
}

func (suite *StoreTestSuite) testGetStatsAfterDelete(t *testing.T) {
	writable, reporter := suite.newReporter(t)

	mustPut(t, writable, generateTestData(100))
	hash2 := mustPut(t, writable, generateTestData(200))
	mustPut(t, writable, generateTestData(300))

	mustDelete(t, writable, hash2)

	stats, err := reporter.GetStats(testContext())
	require.NoError(t, err)

	assert.Equal(t, uint64(400), stats.UsedBytes)
	assert.Equal(t, uint64(2), stats.ObjectCount)
}
