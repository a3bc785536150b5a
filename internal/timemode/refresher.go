package timemode

import (
	"context"
	"time"

	"go.uber.org/zap"

	"noc-console/internal/alarms/application"
	alarms "noc-console/internal/alarms/domain"
	"noc-console/internal/feed"
	"noc-console/internal/observability/metrics"
)

// Ingestor receives one fetched batch. Satisfied by the alarm store.
type Ingestor interface {
	Ingest(ctx context.Context, records []alarms.Alarm) application.IngestReport
}

// Refresher drives the periodic re-ingest in live mode. It is the only
// asynchronous unit in the system; every tick runs fetch-then-ingest to
// completion before consumers see the new snapshot, and a mode transition
// cancels the in-flight attempt through the controller.
type Refresher struct {
	controller *Controller
	ingestor   Ingestor
	source     feed.Source
	clock      Clock
	logger     *zap.Logger
}

// NewRefresher constructs a refresher bound to one controller and source.
func NewRefresher(controller *Controller, ingestor Ingestor, source feed.Source, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		controller: controller,
		ingestor:   ingestor,
		source:     source,
		clock:      controller.clock,
		logger:     logger,
	}
}

// Start runs the refresh loop until ctx is cancelled. Ticks outside live
// mode, or while paused, are skipped; the controller gates eligibility.
func (r *Refresher) Start(ctx context.Context) {
	if r == nil || r.controller == nil || r.source == nil {
		return
	}
	ticker := time.NewTicker(r.controller.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				r.logger.Warn("refresh cycle failed", zap.Error(err))
			}
		}
	}
}

// RefreshOnce runs a single refresh cycle. A fetch failure is recoverable: the
// refreshing flag is cleared, the last-refresh timestamp stays put so the
// staleness is visible, and the next tick retries.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	tickCtx, epoch, ok := r.controller.BeginRefresh(ctx)
	if !ok {
		return nil
	}

	started := r.clock.Now()
	records, err := r.source.Fetch(tickCtx)
	if err != nil {
		r.controller.FinishRefresh(epoch, started, err)
		metrics.ObserveRefresh(err, r.clock.Now().Sub(started))
		return err
	}
	if tickCtx.Err() != nil {
		// Cancelled mid-flight by a mode transition; the stale batch must
		// not reach the frozen view.
		return nil
	}

	// The ingestor re-checks tickCtx under its own lock, so a transition
	// landing between here and the apply still drops the batch.
	report := r.ingestor.Ingest(tickCtx, records)
	completed := r.clock.Now()
	r.controller.FinishRefresh(epoch, completed, nil)
	metrics.ObserveRefresh(nil, completed.Sub(started))
	r.logger.Debug("refresh cycle complete",
		zap.Int("accepted", report.Accepted),
		zap.Int("updated", report.Updated),
		zap.Int("rejected", report.Rejected),
	)
	return nil
}
