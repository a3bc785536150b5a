package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	alarms "noc-console/internal/alarms/domain"
	"noc-console/internal/observability/metrics"
)

// Notifier publishes alarm lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Event represents a lifecycle update on the working set.
type Event struct {
	Type  string       `json:"type"`
	Alarm alarms.Alarm `json:"alarm"`
}

const (
	EventIngested     = "ingested"
	EventUpdated      = "updated"
	EventAcknowledged = "acknowledged"
	EventAssigned     = "assigned"
	EventCommented    = "commented"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// IngestReport summarizes one ingest cycle.
type IngestReport struct {
	Accepted int
	Updated  int
	Rejected int
}

// Store holds the authoritative in-memory working set of alarms. All mutation
// funnels through its operation set; filter, SLA, and storm consumers read
// snapshots and never write back. Alarms are never deleted; a cleared alarm
// stays addressable until external retention removes it upstream.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*alarms.Alarm
	order []string

	clock    Clock
	notifier Notifier
	logger   *zap.Logger
}

// StoreOption customizes the store.
type StoreOption func(*Store)

// WithClock assigns a clock.
func WithClock(clock Clock) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithNotifier assigns a lifecycle notifier.
func WithNotifier(notifier Notifier) StoreOption {
	return func(s *Store) {
		s.notifier = notifier
	}
}

// NewStore constructs an empty alarm store.
func NewStore(logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		byID:   make(map[string]*alarms.Alarm),
		clock:  systemClock{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest merges a feed batch into the working set. Malformed records are
// rejected individually; one bad record never aborts the cycle. Existing
// alarms keep their acknowledgment state, assignment, escalation level, and
// comments across cycles.
func (s *Store) Ingest(ctx context.Context, incoming []alarms.Alarm) IngestReport {
	now := s.clock.Now()
	var report IngestReport
	var events []Event

	s.mu.Lock()
	if ctx.Err() != nil {
		// The refresh cycle was cancelled by a mode transition while this
		// batch waited on the lock; it is stale and must not touch the
		// frozen view.
		s.mu.Unlock()
		return report
	}
	for i := range incoming {
		record := incoming[i].Clone()
		if err := record.Normalize(now); err != nil {
			report.Rejected++
			metrics.IncIngestRejected()
			s.logger.Warn("rejected malformed alarm record", zap.Error(err))
			continue
		}

		existing, ok := s.byID[record.GlobalAlarmID]
		if !ok {
			stored := record
			s.byID[stored.GlobalAlarmID] = &stored
			s.order = append(s.order, stored.GlobalAlarmID)
			report.Accepted++
			metrics.IncIngestAccepted()
			events = append(events, Event{Type: EventIngested, Alarm: stored.Clone()})
			continue
		}

		s.mergeLocked(existing, record, now)
		report.Updated++
		metrics.IncIngestAccepted()
		events = append(events, Event{Type: EventUpdated, Alarm: existing.Clone()})
	}
	metrics.SetActiveAlarms(len(s.byID))
	s.mu.Unlock()

	s.dispatch(ctx, events)
	return report
}

// mergeLocked folds a fresh feed record into an existing alarm, preserving
// operator-owned state (invariant: comments are append-only, ack survives
// re-ingest).
func (s *Store) mergeLocked(existing *alarms.Alarm, record alarms.Alarm, now time.Time) {
	existing.Severity = record.Severity
	existing.AlarmType = record.AlarmType
	existing.Category = record.Category
	existing.Technologies = record.Technologies
	existing.ObjectType = record.ObjectType
	existing.ObjectName = record.ObjectName
	existing.Hierarchy = record.Hierarchy
	existing.Title = record.Title
	existing.Description = record.Description
	existing.SourceSystem = record.SourceSystem
	existing.VendorAlarmID = record.VendorAlarmID
	existing.VendorAlarmCode = record.VendorAlarmCode
	existing.RawVendorData = record.RawVendorData

	updated := record.UpdatedAt
	if updated.Before(existing.UpdatedAt) {
		updated = existing.UpdatedAt
	}
	if now.After(updated) {
		updated = now
	}
	existing.UpdatedAt = updated

	// Severity downgrades can strip escalation eligibility.
	if existing.Escalation != "" && existing.Severity != alarms.SeverityMajor && existing.Severity != alarms.SeverityCritical {
		existing.Escalation = ""
	}
}

// Acknowledge marks each matching unacknowledged alarm as acknowledged by
// actor at now. Idempotent per alarm; unknown ids are skipped. Returns the
// number of alarms actually changed.
func (s *Store) Acknowledge(ctx context.Context, ids []string, actor string, now time.Time) int {
	now = now.UTC()
	changed := 0
	var events []Event
	s.mu.Lock()
	for _, id := range ids {
		alarm, ok := s.byID[id]
		if !ok || alarm.Acknowledged {
			continue
		}
		alarm.Acknowledged = true
		alarm.AcknowledgedBy = actor
		alarm.AcknowledgedAt = now
		if now.Before(alarm.CreatedAt) {
			alarm.AcknowledgedAt = alarm.CreatedAt
		}
		if alarm.AcknowledgedAt.After(alarm.UpdatedAt) {
			alarm.UpdatedAt = alarm.AcknowledgedAt
		}
		changed++
		metrics.IncAlarmEvent(EventAcknowledged)
		events = append(events, Event{Type: EventAcknowledged, Alarm: alarm.Clone()})
	}
	s.mu.Unlock()
	s.dispatch(ctx, events)
	return changed
}

// Assign sets the assigned team on each matching alarm. Unknown ids are
// skipped.
func (s *Store) Assign(ctx context.Context, ids []string, team string) int {
	now := s.clock.Now()
	changed := 0
	var events []Event
	s.mu.Lock()
	for _, id := range ids {
		alarm, ok := s.byID[id]
		if !ok {
			continue
		}
		alarm.AssignedTeam = team
		if now.After(alarm.UpdatedAt) {
			alarm.UpdatedAt = now
		}
		changed++
		metrics.IncAlarmEvent(EventAssigned)
		events = append(events, Event{Type: EventAssigned, Alarm: alarm.Clone()})
	}
	s.mu.Unlock()
	s.dispatch(ctx, events)
	return changed
}

// SetEscalation sets the escalation level on matching major/critical alarms.
// Alarms of other severities are skipped, preserving the escalation invariant.
func (s *Store) SetEscalation(ctx context.Context, ids []string, level alarms.EscalationLevel) int {
	if !level.Valid() {
		return 0
	}
	now := s.clock.Now()
	changed := 0
	var events []Event
	s.mu.Lock()
	for _, id := range ids {
		alarm, ok := s.byID[id]
		if !ok {
			continue
		}
		if alarm.Severity != alarms.SeverityMajor && alarm.Severity != alarms.SeverityCritical {
			continue
		}
		alarm.Escalation = level
		if now.After(alarm.UpdatedAt) {
			alarm.UpdatedAt = now
		}
		changed++
		events = append(events, Event{Type: EventUpdated, Alarm: alarm.Clone()})
	}
	s.mu.Unlock()
	s.dispatch(ctx, events)
	return changed
}

// AddComment appends one comment per matching alarm. Empty text is rejected
// synchronously; unknown ids are skipped. Returns the number of comments
// appended.
func (s *Store) AddComment(ctx context.Context, ids []string, text string, severityTag alarms.Severity, actor string, now time.Time) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, alarms.ErrEmptyComment
	}
	now = now.UTC()
	appended := 0
	var events []Event
	s.mu.Lock()
	for _, id := range ids {
		alarm, ok := s.byID[id]
		if !ok {
			continue
		}
		alarm.Comments = append(alarm.Comments, alarms.Comment{
			ID:          uuid.NewString(),
			Author:      actor,
			Timestamp:   now,
			Text:        text,
			SeverityTag: severityTag,
		})
		if now.After(alarm.UpdatedAt) {
			alarm.UpdatedAt = now
		}
		appended++
		metrics.IncAlarmEvent(EventCommented)
		events = append(events, Event{Type: EventCommented, Alarm: alarm.Clone()})
	}
	s.mu.Unlock()
	s.dispatch(ctx, events)
	return appended, nil
}

// Snapshot returns the working set in stable insertion order. The result is a
// deep copy; consumers may not mutate stored state through it.
func (s *Store) Snapshot() []alarms.Alarm {
	s.mu.RLock()
	out := make([]alarms.Alarm, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	s.mu.RUnlock()
	return out
}

// Get returns one alarm by id, or alarms.ErrNotFound.
func (s *Store) Get(id string) (alarms.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alarm, ok := s.byID[id]
	if !ok {
		return alarms.Alarm{}, alarms.ErrNotFound
	}
	return alarm.Clone(), nil
}

// Count returns the size of the working set.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// dispatch delivers the events collected during a mutation. It runs strictly
// after the write lock has been released: the working set is already fully
// updated when the first consumer is invoked, and a slow notifier (a webhook
// timing out, say) cannot stall readers or other mutations.
func (s *Store) dispatch(ctx context.Context, events []Event) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.Notify(ctx, event)
	}
}
