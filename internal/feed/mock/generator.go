// Package mock is a deterministic stand-in for a real vendor alarm feed.
// It implements the same consumption contract as the production adapters, so
// the console and its tests can run without any northbound connectivity.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	alarms "noc-console/internal/alarms/domain"
)

// Options shape one generated batch.
type Options struct {
	Count          int
	ForcedCritical int
	ForcedMajor    int
	Seed           int64
}

var severities = []alarms.Severity{
	alarms.SeverityCritical,
	alarms.SeverityMajor,
	alarms.SeverityMinor,
	alarms.SeverityWarning,
	alarms.SeverityInfo,
}

var alarmTypes = []string{
	"link-down", "high-temperature", "cell-outage", "sync-loss",
	"power-failure", "license-expiry", "config-mismatch", "packet-loss",
}

var categories = []string{"transmission", "radio", "core", "power", "environment"}

var technologies = [][]string{
	{"5G"}, {"4G"}, {"4G", "5G"}, {"3G", "4G"}, {"fiber"}, {"microwave"},
}

var sourceSystems = []string{"huawei-u2020", "ericsson-enm", "nokia-netact", "zte-netnumen"}

var regions = []string{"north", "south", "east", "west"}

// Generator produces deterministic synthetic alarm batches. The same seed
// always yields the same sequence, which is what makes scenario tests
// reproducible.
type Generator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	opts Options
	seq  int
	base time.Time
}

// NewGenerator constructs a generator.
func NewGenerator(opts Options) *Generator {
	if opts.Count <= 0 {
		opts.Count = 40
	}
	return &Generator{
		rng:  rand.New(rand.NewSource(opts.Seed)),
		opts: opts,
		base: time.Now().UTC(),
	}
}

// Fetch implements feed.Source.
func (g *Generator) Fetch(_ context.Context) ([]alarms.Alarm, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.batchLocked(g.opts.Count, g.opts.ForcedCritical, g.opts.ForcedMajor), nil
}

// Batch generates n alarms with the given number of forced critical and major
// severities, useful as a deterministic fixture.
func (g *Generator) Batch(n, forcedCritical, forcedMajor int) []alarms.Alarm {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.batchLocked(n, forcedCritical, forcedMajor)
}

func (g *Generator) batchLocked(n, forcedCritical, forcedMajor int) []alarms.Alarm {
	out := make([]alarms.Alarm, 0, n)
	for i := 0; i < n; i++ {
		g.seq++
		severity := severities[g.rng.Intn(len(severities))]
		switch {
		case i < forcedCritical:
			severity = alarms.SeverityCritical
		case i < forcedCritical+forcedMajor:
			severity = alarms.SeverityMajor
		default:
			// Keep the random tail away from the forced severities so a
			// forced count is exact, not a lower bound.
			for severity == alarms.SeverityCritical || severity == alarms.SeverityMajor {
				severity = severities[g.rng.Intn(len(severities))]
			}
		}

		region := regions[g.rng.Intn(len(regions))]
		site := fmt.Sprintf("%s-site-%02d", region, g.rng.Intn(20))
		node := fmt.Sprintf("%s-node-%02d", site, g.rng.Intn(8))
		alarmType := alarmTypes[g.rng.Intn(len(alarmTypes))]
		source := sourceSystems[g.rng.Intn(len(sourceSystems))]
		created := g.base.Add(-time.Duration(g.rng.Intn(120)) * time.Minute)

		out = append(out, alarms.Alarm{
			GlobalAlarmID:   fmt.Sprintf("ALM-%06d", g.seq),
			VendorAlarmID:   fmt.Sprintf("%d", 10000+g.rng.Intn(90000)),
			VendorAlarmCode: fmt.Sprintf("VC-%03d", g.rng.Intn(1000)),
			SourceSystem:    source,
			Severity:        severity,
			AlarmType:       alarmType,
			Category:        categories[g.rng.Intn(len(categories))],
			Technologies:    technologies[g.rng.Intn(len(technologies))],
			ObjectType:      "node",
			ObjectName:      node,
			Hierarchy: alarms.Hierarchy{
				Region:  region,
				Cluster: region + "-cluster",
				Site:    site,
				Node:    node,
			},
			Title:       fmt.Sprintf("%s on %s", alarmType, node),
			Description: fmt.Sprintf("%s reported %s (%s)", source, alarmType, severity),
			CreatedAt:   created,
			UpdatedAt:   created,
			RawVendorData: map[string]string{
				"probable_cause": alarmType,
				"vendor_payload": fmt.Sprintf("raw-%05d", g.rng.Intn(100000)),
			},
		})
	}
	return out
}
