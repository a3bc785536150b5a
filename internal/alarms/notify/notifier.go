package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	alarmapp "noc-console/internal/alarms/application"
	alarms "noc-console/internal/alarms/domain"
)

// Clock provides time for dedupe bookkeeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type sendRecord struct {
	at   time.Time
	hash string
}

// Notifier renders alarm lifecycle events and delivers them through a
// channel. Identical notifications within the dedupe window are suppressed so
// a re-ingest cycle does not spam the on-call channel.
type Notifier struct {
	channel      Channel
	template     *Template
	clock        Clock
	logger       *zap.Logger
	dedupeWindow time.Duration
	minSeverity  alarms.Severity

	mu   sync.Mutex
	sent map[string]sendRecord
}

// Option configures the notifier.
type Option func(*Notifier)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithDedupeWindow suppresses identical notifications within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *Notifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// WithMinSeverity drops events below the given severity.
func WithMinSeverity(severity alarms.Severity) Option {
	return func(n *Notifier) {
		if severity.Valid() {
			n.minSeverity = severity
		}
	}
}

// NewNotifier constructs a notifier.
func NewNotifier(channel Channel, template *Template, logger *zap.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{
		channel:      channel,
		template:     template,
		clock:        systemClock{},
		logger:       logger,
		dedupeWindow: 5 * time.Minute,
		minSeverity:  alarms.SeverityMajor,
		sent:         make(map[string]sendRecord),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements application.Notifier. Delivery failures are logged, never
// propagated; notification is best effort by contract.
func (n *Notifier) Notify(ctx context.Context, event alarmapp.Event) {
	if n == nil || n.channel == nil || n.template == nil {
		return
	}
	if event.Alarm.Severity.Weight() > n.minSeverity.Weight() {
		return
	}
	content, err := n.template.Render(templateData(event))
	if err != nil {
		n.logger.Warn("render notification failed", zap.Error(err))
		return
	}
	if n.isDuplicate(event, content) {
		return
	}
	if err := n.channel.Send(ctx, content); err != nil {
		n.logger.Warn("send notification failed",
			zap.String("alarm_id", event.Alarm.GlobalAlarmID),
			zap.String("event", event.Type),
			zap.Error(err),
		)
	}
}

func (n *Notifier) isDuplicate(event alarmapp.Event, content string) bool {
	sum := sha1.Sum([]byte(content))
	hash := hex.EncodeToString(sum[:])
	key := event.Alarm.GlobalAlarmID + "|" + event.Type
	now := n.clock.Now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if record, ok := n.sent[key]; ok {
		if record.hash == hash && now.Sub(record.at) < n.dedupeWindow {
			return true
		}
	}
	n.sent[key] = sendRecord{at: now, hash: hash}
	return false
}

func templateData(event alarmapp.Event) TemplateData {
	alarm := event.Alarm
	return TemplateData{
		Event:          event.Type,
		EventLabel:     strings.ToUpper(event.Type),
		GlobalAlarmID:  alarm.GlobalAlarmID,
		Title:          alarm.Title,
		Severity:       string(alarm.Severity),
		ObjectName:     alarm.ObjectName,
		SourceSystem:   alarm.SourceSystem,
		CreatedAt:      alarm.CreatedAt.UTC().Format(time.RFC3339),
		AssignedTeam:   alarm.AssignedTeam,
		AcknowledgedBy: alarm.AcknowledgedBy,
	}
}
