package alarms

import (
	"fmt"
	"time"
)

// Validate checks the entity invariants. A validated alarm is safe to hand to
// the filter, SLA, and storm consumers.
func (a Alarm) Validate() error {
	if a.GlobalAlarmID == "" {
		return fmt.Errorf("alarm: %w", ErrMissingIdentity)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("alarm %s: %w: %q", a.GlobalAlarmID, ErrInvalidSeverity, a.Severity)
	}
	if a.CreatedAt.IsZero() {
		return fmt.Errorf("alarm %s: missing created_at", a.GlobalAlarmID)
	}
	if a.UpdatedAt.Before(a.CreatedAt) {
		return fmt.Errorf("alarm %s: updated_at before created_at", a.GlobalAlarmID)
	}
	if a.Acknowledged {
		if a.AcknowledgedAt.IsZero() {
			return fmt.Errorf("alarm %s: acknowledged without acknowledged_at", a.GlobalAlarmID)
		}
		if a.AcknowledgedAt.Before(a.CreatedAt) {
			return fmt.Errorf("alarm %s: acknowledged_at before created_at", a.GlobalAlarmID)
		}
	} else if !a.AcknowledgedAt.IsZero() || a.AcknowledgedBy != "" {
		return fmt.Errorf("alarm %s: ack fields set on unacknowledged alarm", a.GlobalAlarmID)
	}
	if a.Escalation != "" {
		if !a.Escalation.Valid() {
			return fmt.Errorf("alarm %s: invalid escalation level %q", a.GlobalAlarmID, a.Escalation)
		}
		if a.Severity != SeverityMajor && a.Severity != SeverityCritical {
			return fmt.Errorf("alarm %s: escalation level on %s severity", a.GlobalAlarmID, a.Severity)
		}
	}
	return nil
}

// Normalize repairs repairable ingestion defects in place and rejects
// unrepairable ones. Missing identity or severity rejects the record; lesser
// inconsistencies are repaired so one bad field does not drop a whole feed
// cycle.
func (a *Alarm) Normalize(now time.Time) error {
	if a.GlobalAlarmID == "" {
		return fmt.Errorf("alarm: %w", ErrMissingIdentity)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("alarm %s: %w: %q", a.GlobalAlarmID, ErrInvalidSeverity, a.Severity)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now.UTC()
	}
	if a.UpdatedAt.Before(a.CreatedAt) {
		a.UpdatedAt = a.CreatedAt
	}
	if a.Acknowledged && a.AcknowledgedAt.IsZero() {
		// Ack state without a timestamp cannot satisfy the ack invariant.
		a.Acknowledged = false
		a.AcknowledgedBy = ""
	}
	if !a.Acknowledged {
		a.AcknowledgedAt = time.Time{}
		a.AcknowledgedBy = ""
	} else if a.AcknowledgedAt.Before(a.CreatedAt) {
		a.AcknowledgedAt = a.CreatedAt
	}
	if a.Escalation != "" {
		if !a.Escalation.Valid() || (a.Severity != SeverityMajor && a.Severity != SeverityCritical) {
			a.Escalation = ""
		}
	}
	if len(a.Technologies) == 0 {
		a.Technologies = []string{"unknown"}
	}
	return nil
}
