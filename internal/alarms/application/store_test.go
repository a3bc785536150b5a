package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alarms "noc-console/internal/alarms/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func testAlarm(id string, severity alarms.Severity, created time.Time) alarms.Alarm {
	return alarms.Alarm{
		GlobalAlarmID: id,
		SourceSystem:  "ericsson-enm",
		Severity:      severity,
		Technologies:  []string{"4G"},
		Title:         "sync-loss on east-node-03",
		ObjectName:    "east-node-03",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestIngestAcceptsAndRejectsPerRecord(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))

	batch := []alarms.Alarm{
		testAlarm("ALM-1", alarms.SeverityCritical, clock.Now()),
		{Severity: alarms.SeverityMajor, CreatedAt: clock.Now()}, // no identity
		{GlobalAlarmID: "ALM-3", Severity: "bogus", CreatedAt: clock.Now()},
		testAlarm("ALM-4", alarms.SeverityMinor, clock.Now()),
	}

	report := store.Ingest(context.Background(), batch)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, report.Rejected)
	assert.Equal(t, 2, store.Count())
}

func TestIngestPreservesOperatorState(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityCritical, clock.Now())})
	store.Acknowledge(ctx, []string{"ALM-1"}, "operator-1", clock.Now())
	store.Assign(ctx, []string{"ALM-1"}, "transport-noc")
	_, err := store.AddComment(ctx, []string{"ALM-1"}, "field team dispatched", "", "operator-1", clock.Now())
	require.NoError(t, err)

	// Same alarm re-ingested with a new title from the feed.
	clock.Advance(time.Minute)
	update := testAlarm("ALM-1", alarms.SeverityCritical, clock.Now().Add(-time.Minute))
	update.Title = "sync-loss on east-node-03 (persisting)"
	report := store.Ingest(ctx, []alarms.Alarm{update})
	assert.Equal(t, 1, report.Updated)

	got, err := store.Get("ALM-1")
	require.NoError(t, err)
	assert.Equal(t, "sync-loss on east-node-03 (persisting)", got.Title)
	assert.True(t, got.Acknowledged)
	assert.Equal(t, "operator-1", got.AcknowledgedBy)
	assert.Equal(t, "transport-noc", got.AssignedTeam)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "field team dispatched", got.Comments[0].Text)
}

func TestIngestStripsEscalationOnSeverityDowngrade(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityMajor, clock.Now())})
	require.Equal(t, 1, store.SetEscalation(ctx, []string{"ALM-1"}, alarms.EscalationL2))

	downgrade := testAlarm("ALM-1", alarms.SeverityMinor, clock.Now())
	store.Ingest(ctx, []alarms.Alarm{downgrade})

	got, _ := store.Get("ALM-1")
	assert.Equal(t, alarms.SeverityMinor, got.Severity)
	assert.Empty(t, got.Escalation)
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityCritical, clock.Now())})

	first := clock.Now()
	assert.Equal(t, 1, store.Acknowledge(ctx, []string{"ALM-1"}, "operator-1", first))

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 0, store.Acknowledge(ctx, []string{"ALM-1"}, "operator-2", clock.Now()))

	got, _ := store.Get("ALM-1")
	assert.Equal(t, "operator-1", got.AcknowledgedBy)
	assert.Equal(t, first, got.AcknowledgedAt)
}

func TestMutationsSkipUnknownIDs(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityMajor, clock.Now())})

	assert.Equal(t, 1, store.Acknowledge(ctx, []string{"ALM-1", "ALM-404"}, "operator-1", clock.Now()))
	assert.Equal(t, 1, store.Assign(ctx, []string{"ALM-404", "ALM-1"}, "radio-noc"))

	appended, err := store.AddComment(ctx, []string{"ALM-404"}, "note", "", "operator-1", clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, appended)
}

func TestAddCommentRejectsEmptyText(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityMajor, clock.Now())})

	_, err := store.AddComment(ctx, []string{"ALM-1"}, "   ", "", "operator-1", clock.Now())
	assert.ErrorIs(t, err, alarms.ErrEmptyComment)

	got, _ := store.Get("ALM-1")
	assert.Empty(t, got.Comments)
}

func TestCommentsAreAppendOnly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityMajor, clock.Now())})
	_, err := store.AddComment(ctx, []string{"ALM-1"}, "first look", "", "operator-1", clock.Now())
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = store.AddComment(ctx, []string{"ALM-1"}, "confirmed fibre cut", alarms.SeverityCritical, "operator-2", clock.Now())
	require.NoError(t, err)

	// A feed cycle in between must not erase operator history.
	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityMajor, clock.Now())})

	got, _ := store.Get("ALM-1")
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first look", got.Comments[0].Text)
	assert.Equal(t, "confirmed fibre cut", got.Comments[1].Text)
	assert.Equal(t, alarms.SeverityCritical, got.Comments[1].SeverityTag)
	assert.NotEmpty(t, got.Comments[0].ID)
	assert.NotEqual(t, got.Comments[0].ID, got.Comments[1].ID)
}

func TestSetEscalationOnlyMajorAndCritical(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{
		testAlarm("ALM-1", alarms.SeverityCritical, clock.Now()),
		testAlarm("ALM-2", alarms.SeverityInfo, clock.Now()),
	})

	assert.Equal(t, 1, store.SetEscalation(ctx, []string{"ALM-1", "ALM-2"}, alarms.EscalationL3))
	assert.Equal(t, 0, store.SetEscalation(ctx, []string{"ALM-1"}, "L9"))

	got, _ := store.Get("ALM-2")
	assert.Empty(t, got.Escalation)
}

func TestSnapshotIsDetachedAndOrdered(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{
		testAlarm("ALM-2", alarms.SeverityMinor, clock.Now()),
		testAlarm("ALM-1", alarms.SeverityCritical, clock.Now()),
	})

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "ALM-2", snap[0].GlobalAlarmID)
	assert.Equal(t, "ALM-1", snap[1].GlobalAlarmID)

	snap[0].Title = "mutated"
	got, _ := store.Get("ALM-2")
	assert.NotEqual(t, "mutated", got.Title)
}

func TestLifecycleEventsReachNotifier(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	store := NewStore(nil, WithClock(clock), WithNotifier(notifier))
	ctx := context.Background()

	store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityCritical, clock.Now())})
	store.Acknowledge(ctx, []string{"ALM-1"}, "operator-1", clock.Now())
	store.Assign(ctx, []string{"ALM-1"}, "core-noc")
	_, err := store.AddComment(ctx, []string{"ALM-1"}, "raised with vendor", "", "operator-1", clock.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{EventIngested, EventAcknowledged, EventAssigned, EventCommented}, notifier.types())
}

// gateNotifier blocks its first delivery until released, standing in for a
// webhook that is timing out.
type gateNotifier struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (n *gateNotifier) Notify(context.Context, Event) {
	first := false
	n.once.Do(func() { first = true })
	if first {
		close(n.entered)
		<-n.release
	}
}

func TestSlowNotifierDoesNotBlockReads(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	gate := &gateNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(nil, WithClock(clock), WithNotifier(gate))

	ingested := make(chan struct{})
	go func() {
		defer close(ingested)
		store.Ingest(context.Background(), []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityCritical, clock.Now())})
	}()
	<-gate.entered

	// Delivery is in flight; the working set must already be readable.
	snapped := make(chan int, 1)
	go func() { snapped <- len(store.Snapshot()) }()
	select {
	case n := <-snapped:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("snapshot blocked while the notifier was delivering")
	}

	acked := make(chan int, 1)
	go func() { acked <- store.Acknowledge(context.Background(), []string{"ALM-1"}, "operator-1", clock.Now()) }()
	select {
	case n := <-acked:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("acknowledge blocked while the notifier was delivering")
	}

	close(gate.release)
	<-ingested
}

func TestIngestDropsBatchWhenCycleCancelled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(nil, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := store.Ingest(ctx, []alarms.Alarm{testAlarm("ALM-1", alarms.SeverityCritical, clock.Now())})
	assert.Equal(t, IngestReport{}, report)
	assert.Equal(t, 0, store.Count())
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	store := NewStore(nil)
	_, err := store.Get("ALM-404")
	assert.ErrorIs(t, err, alarms.ErrNotFound)
}
