package filtering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alarms "noc-console/internal/alarms/domain"
	"noc-console/internal/feed/mock"
)

func fixtureAlarms() []alarms.Alarm {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return []alarms.Alarm{
		{
			GlobalAlarmID: "ALM-1",
			Severity:      alarms.SeverityCritical,
			AlarmType:     "link-down",
			Category:      "transmission",
			Technologies:  []string{"5G"},
			SourceSystem:  "huawei-u2020",
			Title:         "link-down on north-node-01",
			ObjectName:    "north-node-01",
			Hierarchy:     alarms.Hierarchy{Region: "north", Site: "north-site-01", Node: "north-node-01"},
			CreatedAt:     created,
			UpdatedAt:     created,
		},
		{
			GlobalAlarmID:  "ALM-2",
			Severity:       alarms.SeverityMajor,
			AlarmType:      "cell-outage",
			Category:       "radio",
			Technologies:   []string{"4G", "5G"},
			SourceSystem:   "ericsson-enm",
			Title:          "cell-outage on south-node-02",
			ObjectName:     "south-node-02",
			Hierarchy:      alarms.Hierarchy{Region: "south", Site: "south-site-02", Node: "south-node-02"},
			CreatedAt:      created,
			UpdatedAt:      created,
			Acknowledged:   true,
			AcknowledgedAt: created.Add(time.Minute),
		},
		{
			GlobalAlarmID: "ALM-3",
			Severity:      alarms.SeverityMinor,
			AlarmType:     "high-temperature",
			Category:      "environment",
			Technologies:  []string{"fiber"},
			SourceSystem:  "nokia-netact",
			Title:         "high-temperature on north-node-07",
			Description:   "cabinet temperature above 45C",
			ObjectName:    "north-node-07",
			Hierarchy:     alarms.Hierarchy{Region: "north", Site: "north-site-03", Node: "north-node-07"},
			CreatedAt:     created,
			UpdatedAt:     created,
		},
	}
}

func ids(in []alarms.Alarm) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		out = append(out, a.GlobalAlarmID)
	}
	return out
}

func TestApplyEmptyFilterPassesEverything(t *testing.T) {
	in := fixtureAlarms()
	out := Apply(in, FilterState{}, HierarchyFilter{})
	assert.Equal(t, ids(in), ids(out))
}

func TestApplySeverityIsORWithinDimension(t *testing.T) {
	out := Apply(fixtureAlarms(), FilterState{
		Severities: []alarms.Severity{alarms.SeverityCritical, alarms.SeverityMajor},
	}, HierarchyFilter{})
	assert.Equal(t, []string{"ALM-1", "ALM-2"}, ids(out))
}

func TestApplyDimensionsCombineWithAND(t *testing.T) {
	out := Apply(fixtureAlarms(), FilterState{
		Severities:    []alarms.Severity{alarms.SeverityCritical, alarms.SeverityMajor},
		SourceSystems: []string{"ericsson-enm"},
	}, HierarchyFilter{})
	assert.Equal(t, []string{"ALM-2"}, ids(out))
}

func TestApplyTechnologiesIntersect(t *testing.T) {
	out := Apply(fixtureAlarms(), FilterState{Technologies: []string{"5G"}}, HierarchyFilter{})
	assert.Equal(t, []string{"ALM-1", "ALM-2"}, ids(out))

	out = Apply(fixtureAlarms(), FilterState{Technologies: []string{"3G"}}, HierarchyFilter{})
	assert.Empty(t, out)
}

func TestApplySearchIsCaseInsensitiveSubstring(t *testing.T) {
	t.Run("matches title", func(t *testing.T) {
		out := Apply(fixtureAlarms(), FilterState{SearchText: "LINK-DOWN"}, HierarchyFilter{})
		assert.Equal(t, []string{"ALM-1"}, ids(out))
	})

	t.Run("matches description", func(t *testing.T) {
		out := Apply(fixtureAlarms(), FilterState{SearchText: "cabinet temperature"}, HierarchyFilter{})
		assert.Equal(t, []string{"ALM-3"}, ids(out))
	})

	t.Run("matches alarm id", func(t *testing.T) {
		out := Apply(fixtureAlarms(), FilterState{SearchText: "alm-2"}, HierarchyFilter{})
		assert.Equal(t, []string{"ALM-2"}, ids(out))
	})

	t.Run("whitespace only is no constraint", func(t *testing.T) {
		out := Apply(fixtureAlarms(), FilterState{SearchText: "   "}, HierarchyFilter{})
		assert.Len(t, out, 3)
	})
}

func TestApplyAckFilter(t *testing.T) {
	t.Run("acknowledged only", func(t *testing.T) {
		var state FilterState
		state.SetAckFilter(true, false)
		out := Apply(fixtureAlarms(), state, HierarchyFilter{})
		assert.Equal(t, []string{"ALM-2"}, ids(out))
	})

	t.Run("unacknowledged only", func(t *testing.T) {
		var state FilterState
		state.SetAckFilter(false, true)
		out := Apply(fixtureAlarms(), state, HierarchyFilter{})
		assert.Equal(t, []string{"ALM-1", "ALM-3"}, ids(out))
	})

	t.Run("acknowledged wins when both flags forced", func(t *testing.T) {
		state := FilterState{ShowAcknowledgedOnly: true, ShowUnacknowledgedOnly: true}
		out := Apply(fixtureAlarms(), state, HierarchyFilter{})
		assert.Equal(t, []string{"ALM-2"}, ids(out))
	})

	t.Run("setter keeps flags mutually exclusive", func(t *testing.T) {
		var state FilterState
		state.SetAckFilter(true, true)
		assert.True(t, state.ShowAcknowledgedOnly)
		assert.False(t, state.ShowUnacknowledgedOnly)
	})
}

func TestApplyHierarchyFilter(t *testing.T) {
	out := Apply(fixtureAlarms(), FilterState{}, HierarchyFilter{Region: "north"})
	assert.Equal(t, []string{"ALM-1", "ALM-3"}, ids(out))

	out = Apply(fixtureAlarms(), FilterState{}, HierarchyFilter{Region: "north", Node: "north-node-07"})
	assert.Equal(t, []string{"ALM-3"}, ids(out))
}

func TestApplyPreservesInputOrder(t *testing.T) {
	in := fixtureAlarms()
	out := Apply(in, FilterState{Severities: []alarms.Severity{
		alarms.SeverityMinor, alarms.SeverityCritical,
	}}, HierarchyFilter{})
	assert.Equal(t, []string{"ALM-1", "ALM-3"}, ids(out))
}

func TestApplyForcedSeverityScenario(t *testing.T) {
	gen := mock.NewGenerator(mock.Options{Seed: 7})
	batch := gen.Batch(80, 5, 10)
	require.Len(t, batch, 80)

	out := Apply(batch, FilterState{
		Severities: []alarms.Severity{alarms.SeverityCritical, alarms.SeverityMajor},
	}, HierarchyFilter{})
	assert.Len(t, out, 15)
}
