package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alarms "noc-console/internal/alarms/domain"
)

func TestFetchIsDeterministicPerSeed(t *testing.T) {
	ctx := context.Background()

	a, err := NewGenerator(Options{Count: 25, Seed: 42}).Fetch(ctx)
	require.NoError(t, err)
	b, err := NewGenerator(Options{Count: 25, Seed: 42}).Fetch(ctx)
	require.NoError(t, err)

	require.Len(t, a, 25)
	for i := range a {
		assert.Equal(t, a[i].GlobalAlarmID, b[i].GlobalAlarmID)
		assert.Equal(t, a[i].Severity, b[i].Severity)
		assert.Equal(t, a[i].ObjectName, b[i].ObjectName)
	}
}

func TestBatchForcedSeverityCountsAreExact(t *testing.T) {
	gen := NewGenerator(Options{Seed: 7})
	batch := gen.Batch(80, 5, 10)
	require.Len(t, batch, 80)

	var critical, major int
	for _, a := range batch {
		switch a.Severity {
		case alarms.SeverityCritical:
			critical++
		case alarms.SeverityMajor:
			major++
		}
	}
	assert.Equal(t, 5, critical)
	assert.Equal(t, 10, major)
}

func TestGeneratedRecordsNormalize(t *testing.T) {
	gen := NewGenerator(Options{Count: 40, Seed: 1})
	batch, err := gen.Fetch(context.Background())
	require.NoError(t, err)

	for i := range batch {
		record := batch[i]
		require.NoError(t, record.Normalize(record.CreatedAt))
		assert.NoError(t, record.Validate())
		assert.NotEmpty(t, record.Hierarchy.Region)
		assert.NotEmpty(t, record.RawVendorData)
	}
}

func TestIDsAreUniqueAcrossFetches(t *testing.T) {
	gen := NewGenerator(Options{Count: 30, Seed: 3})
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		batch, err := gen.Fetch(ctx)
		require.NoError(t, err)
		for _, a := range batch {
			assert.False(t, seen[a.GlobalAlarmID], "duplicate id %s", a.GlobalAlarmID)
			seen[a.GlobalAlarmID] = true
		}
	}
	assert.Len(t, seen, 90)
}
