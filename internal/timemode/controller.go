// Package timemode governs whether the console is live-polling, frozen on a
// snapshot, or replaying a historical range. The controller owns the only
// cancellable unit in the system: the pending refresh task.
package timemode

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"noc-console/internal/observability/metrics"
)

// Mode is the viewing mode of the console.
type Mode string

const (
	ModeLive       Mode = "live"
	ModeSnapshot   Mode = "snapshot"
	ModeHistorical Mode = "historical"
)

// Valid returns true for a supported mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeLive, ModeSnapshot, ModeHistorical:
		return true
	default:
		return false
	}
}

// DefaultInterval is the live-mode refresh cadence.
const DefaultInterval = 5 * time.Second

var (
	// ErrInvalidRange indicates a range whose start is not strictly before
	// its end, or with an unset bound.
	ErrInvalidRange = errors.New("timemode: invalid time range")
	// ErrNotInMode indicates an operation only allowed in another mode.
	ErrNotInMode = errors.New("timemode: operation not allowed in current mode")
)

// TimeRange is an ISO-8601 start/end pair.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate requires start strictly before end.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() || !r.Start.Before(r.End) {
		return ErrInvalidRange
	}
	return nil
}

// PresetRange builds a historical range ending at now. The console offers
// 1h/6h/24h presets; any positive duration is accepted for custom ranges.
func PresetRange(now time.Time, span time.Duration) TimeRange {
	return TimeRange{Start: now.Add(-span), End: now}
}

// State is the externally visible controller state.
type State struct {
	Mode            Mode       `json:"mode"`
	LastRefresh     time.Time  `json:"last_refresh"`
	IsRefreshing    bool       `json:"is_refreshing"`
	IsPaused        bool       `json:"is_paused"`
	SnapshotRange   *TimeRange `json:"snapshot_range,omitempty"`
	HistoricalRange *TimeRange `json:"historical_range,omitempty"`
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Controller is the time-mode state machine. Transitions are operator-driven
// only; nothing in the core switches mode automatically.
type Controller struct {
	mu    sync.Mutex
	state State

	// epoch fences refresh completions: a transition bumps it, and a
	// completion carrying a stale epoch is dropped so a refresh started in
	// the old mode can never touch the new one.
	epoch         uint64
	refreshCancel context.CancelFunc

	interval time.Duration
	clock    Clock
	logger   *zap.Logger
}

// ControllerOption customizes the controller.
type ControllerOption func(*Controller)

// WithClock assigns a clock.
func WithClock(clock Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clock
	}
}

// NewController constructs a controller starting in live mode.
func NewController(interval time.Duration, logger *zap.Logger, opts ...ControllerOption) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		interval: interval,
		clock:    systemClock{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = State{Mode: ModeLive, LastRefresh: c.clock.Now()}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.state
	if c.state.SnapshotRange != nil {
		r := *c.state.SnapshotRange
		out.SnapshotRange = &r
	}
	if c.state.HistoricalRange != nil {
		r := *c.state.HistoricalRange
		out.HistoricalRange = &r
	}
	return out
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode
}

// EnterLive switches to live mode and re-enables auto-refresh.
func (c *Controller) EnterLive() {
	c.mu.Lock()
	c.transitionLocked(ModeLive)
	c.mu.Unlock()
}

// EnterSnapshot freezes the view at the current instant. The frozen window
// starts as nil; the operator narrows it afterwards with SetSnapshotRange.
func (c *Controller) EnterSnapshot() {
	c.mu.Lock()
	c.transitionLocked(ModeSnapshot)
	c.state.SnapshotRange = nil
	c.mu.Unlock()
}

// EnterHistorical switches to replay of the given past range. An invalid
// range rejects the transition and leaves the controller untouched.
func (c *Controller) EnterHistorical(r TimeRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.transitionLocked(ModeHistorical)
	rr := r
	c.state.HistoricalRange = &rr
	// Replay time stands at the range end.
	c.state.LastRefresh = r.End
	c.mu.Unlock()
	return nil
}

// SetSnapshotRange narrows the frozen window. Only valid in snapshot mode; an
// invalid range keeps the previous one.
func (c *Controller) SetSnapshotRange(r TimeRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != ModeSnapshot {
		return ErrNotInMode
	}
	rr := r
	c.state.SnapshotRange = &rr
	return nil
}

// SetHistoricalRange replaces the replay window. Only valid in historical
// mode; an invalid range keeps the previous one.
func (c *Controller) SetHistoricalRange(r TimeRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != ModeHistorical {
		return ErrNotInMode
	}
	rr := r
	c.state.HistoricalRange = &rr
	c.state.LastRefresh = r.End
	return nil
}

// TogglePause flips the operator pause toggle. Only available in live mode;
// toggling never changes mode. Returns the new paused state.
func (c *Controller) TogglePause() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != ModeLive {
		return false, ErrNotInMode
	}
	c.state.IsPaused = !c.state.IsPaused
	if c.state.IsPaused && c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshCancel = nil
		c.state.IsRefreshing = false
	}
	return c.state.IsPaused, nil
}

// AutoRefreshAllowed is the canonical refresh-eligibility check:
// live mode and not paused.
func (c *Controller) AutoRefreshAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode == ModeLive && !c.state.IsPaused
}

// Interval returns the refresh period for the current mode; zero means
// auto-refresh is disabled.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != ModeLive {
		return 0
	}
	return c.interval
}

// ReferenceNow maps wall-clock time into the current mode's frame: wall-clock
// in live mode, the frozen instant or range end otherwise. SLA timers tick
// against this value so a replayed alarm is judged as of the replayed moment.
func (c *Controller) ReferenceNow(wallclock time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.Mode {
	case ModeSnapshot:
		if c.state.SnapshotRange != nil {
			return c.state.SnapshotRange.End
		}
		return c.state.LastRefresh
	case ModeHistorical:
		if c.state.HistoricalRange != nil {
			return c.state.HistoricalRange.End
		}
		return c.state.LastRefresh
	default:
		return wallclock
	}
}

// BeginRefresh opens a refresh attempt. It fails when auto-refresh is not
// allowed or one is already running. The returned context is cancelled by any
// mode transition; the epoch must be handed back to FinishRefresh.
func (c *Controller) BeginRefresh(parent context.Context) (context.Context, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != ModeLive || c.state.IsPaused || c.state.IsRefreshing {
		return nil, 0, false
	}
	ctx, cancel := context.WithCancel(parent)
	c.refreshCancel = cancel
	c.state.IsRefreshing = true
	return ctx, c.epoch, true
}

// FinishRefresh closes a refresh attempt. A failed refresh clears the
// refreshing flag without advancing LastRefresh so staleness stays visible
// and the next tick retries. Completions from a previous epoch are dropped.
func (c *Controller) FinishRefresh(epoch uint64, at time.Time, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.state.IsRefreshing = false
	if c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshCancel = nil
	}
	if err == nil {
		c.state.LastRefresh = at
	}
}

// transitionLocked applies the unconditional reset every transition carries:
// pending refresh cancelled, refreshing and paused flags cleared, refresh
// clock restarted in the new frame. Partially applied refresh state from the
// old mode is meaningless in the new one.
func (c *Controller) transitionLocked(target Mode) {
	if c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshCancel = nil
	}
	c.epoch++
	from := c.state.Mode
	c.state.Mode = target
	c.state.IsRefreshing = false
	c.state.IsPaused = false
	c.state.LastRefresh = c.clock.Now()
	if target != ModeSnapshot {
		c.state.SnapshotRange = nil
	}
	if target != ModeHistorical {
		c.state.HistoricalRange = nil
	}
	metrics.IncModeTransition(string(target))
	c.logger.Info("time mode transition",
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
}
