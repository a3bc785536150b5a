// Package feed defines the consumption contract between the console core and
// whatever produces normalized alarm records. The mock generator, the REST
// adapter, and the stream consumer are interchangeable behind Source; a real
// vendor-normalization adapter can be swapped in without core changes.
package feed

import (
	"context"
	"time"

	alarms "noc-console/internal/alarms/domain"
)

// Source supplies the current batch of well-formed alarm records.
type Source interface {
	Fetch(ctx context.Context) ([]alarms.Alarm, error)
}

// HistoricalSource serves alarm records for a past time range, used by
// historical replay mode.
type HistoricalSource interface {
	FetchRange(ctx context.Context, start, end time.Time) ([]alarms.Alarm, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]alarms.Alarm, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context) ([]alarms.Alarm, error) {
	return f(ctx)
}
