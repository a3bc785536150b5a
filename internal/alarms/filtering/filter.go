// Package filtering implements the multi-dimensional alarm filter pipeline.
// Within one dimension membership is OR and an empty selection means "no
// constraint"; across dimensions composition is AND. The engine is pure and
// preserves input order.
package filtering

import (
	"strings"

	alarms "noc-console/internal/alarms/domain"
)

// FilterState is pure configuration for one filter pass. Dimensions are
// explicit named sets so a new dimension cannot be added without the engine
// seeing it.
type FilterState struct {
	Severities    []alarms.Severity `json:"severities,omitempty"`
	AlarmTypes    []string          `json:"alarm_types,omitempty"`
	Categories    []string          `json:"categories,omitempty"`
	Technologies  []string          `json:"technologies,omitempty"`
	SourceSystems []string          `json:"source_systems,omitempty"`

	SearchText string `json:"search_text,omitempty"`

	// The two ack booleans are mutually exclusive intents. SetAckFilter
	// guards the combination; if both are somehow true, acknowledged-only
	// wins.
	ShowAcknowledgedOnly   bool `json:"show_acknowledged_only,omitempty"`
	ShowUnacknowledgedOnly bool `json:"show_unacknowledged_only,omitempty"`
}

// SetAckFilter sets the acknowledgment filter, keeping the two booleans
// mutually exclusive.
func (f *FilterState) SetAckFilter(acknowledgedOnly, unacknowledgedOnly bool) {
	if acknowledgedOnly {
		unacknowledgedOnly = false
	}
	f.ShowAcknowledgedOnly = acknowledgedOnly
	f.ShowUnacknowledgedOnly = unacknowledgedOnly
}

// HierarchyFilter is a set of exact-match topology constraints applied after
// the FilterState dimensions.
type HierarchyFilter struct {
	Region  string `json:"region,omitempty"`
	Cluster string `json:"cluster,omitempty"`
	Site    string `json:"site,omitempty"`
	Node    string `json:"node,omitempty"`
}

// Apply returns the alarms passing every active constraint, in input order.
// The input is never mutated.
func Apply(in []alarms.Alarm, state FilterState, hier HierarchyFilter) []alarms.Alarm {
	out := make([]alarms.Alarm, 0, len(in))
	for _, alarm := range in {
		if !Matches(alarm, state, hier) {
			continue
		}
		out = append(out, alarm)
	}
	return out
}

// Matches reports whether one alarm passes the filter.
func Matches(a alarms.Alarm, state FilterState, hier HierarchyFilter) bool {
	if !severityIn(a.Severity, state.Severities) {
		return false
	}
	if !valueIn(a.AlarmType, state.AlarmTypes) {
		return false
	}
	if !valueIn(a.Category, state.Categories) {
		return false
	}
	if !anyIntersect(a.Technologies, state.Technologies) {
		return false
	}
	if !valueIn(a.SourceSystem, state.SourceSystems) {
		return false
	}
	if !matchesAck(a, state) {
		return false
	}
	if !matchesSearch(a, state.SearchText) {
		return false
	}
	return matchesHierarchy(a.Hierarchy, hier)
}

func severityIn(value alarms.Severity, selected []alarms.Severity) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if value == s {
			return true
		}
	}
	return false
}

func valueIn(value string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if value == s {
			return true
		}
	}
	return false
}

// anyIntersect is OR inside the set-valued technologies dimension: one shared
// technology is enough.
func anyIntersect(values, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, v := range values {
		for _, s := range selected {
			if v == s {
				return true
			}
		}
	}
	return false
}

func matchesAck(a alarms.Alarm, state FilterState) bool {
	// Acknowledged-only takes precedence when both flags are set; the
	// setter keeps that combination out, this guards direct struct use.
	if state.ShowAcknowledgedOnly {
		return a.Acknowledged
	}
	if state.ShowUnacknowledgedOnly {
		return !a.Acknowledged
	}
	return true
}

func matchesSearch(a alarms.Alarm, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range []string{a.Title, a.Description, a.ObjectName, a.GlobalAlarmID} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func matchesHierarchy(h alarms.Hierarchy, f HierarchyFilter) bool {
	if f.Region != "" && h.Region != f.Region {
		return false
	}
	if f.Cluster != "" && h.Cluster != f.Cluster {
		return false
	}
	if f.Site != "" && h.Site != f.Site {
		return false
	}
	if f.Node != "" && h.Node != f.Node {
		return false
	}
	return true
}
