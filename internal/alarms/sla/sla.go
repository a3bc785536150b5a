// Package sla derives escalation timers from alarm severity and
// acknowledgment state. Everything here is pure; evaluations are recomputed
// on every tick and never written back to the alarm.
package sla

import (
	"time"

	alarms "noc-console/internal/alarms/domain"
)

// State classifies where an alarm stands against its SLA deadline.
type State string

const (
	StateOnTrack   State = "on-track"
	StateImminent  State = "escalation-imminent"
	StateEscalated State = "escalated"
)

// ImminentThresholdPercent is the remaining-time percentage below which an
// alarm is flagged escalation-imminent.
const ImminentThresholdPercent = 25.0

const (
	labelBeforeAck = "Escalation Timer"
	labelAfterAck  = "SLA Timer"
)

// Policy maps severity to the SLA duration budget.
type Policy struct {
	Critical time.Duration
	Major    time.Duration
	Default  time.Duration
}

// DefaultPolicy returns the reference severity-to-deadline table.
func DefaultPolicy() Policy {
	return Policy{
		Critical: 15 * time.Minute,
		Major:    30 * time.Minute,
		Default:  60 * time.Minute,
	}
}

// DurationFor selects the SLA budget for a severity.
func (p Policy) DurationFor(severity alarms.Severity) time.Duration {
	switch severity {
	case alarms.SeverityCritical:
		return p.Critical
	case alarms.SeverityMajor:
		return p.Major
	default:
		return p.Default
	}
}

// Evaluation is the derived SLA state of one alarm at one reference instant.
type Evaluation struct {
	Anchor           time.Time     `json:"anchor"`
	Budget           time.Duration `json:"budget"`
	Elapsed          time.Duration `json:"elapsed"`
	Remaining        time.Duration `json:"remaining"`
	PercentRemaining float64       `json:"percent_remaining"`
	State            State         `json:"state"`
	Label            string        `json:"label"`
}

// Evaluate computes the SLA timer for an alarm against a reference now
// (wall-clock in live mode, range end in snapshot/historical modes).
//
// The anchor moves from creation to the acknowledgment instant once the alarm
// is acknowledged, which makes the remaining percentage jump upward at ack
// time. That matches the reference behavior and is kept on purpose.
func Evaluate(a alarms.Alarm, now time.Time, policy Policy) Evaluation {
	budget := policy.DurationFor(a.Severity)

	anchor := a.CreatedAt
	label := labelBeforeAck
	if a.Acknowledged && !a.AcknowledgedAt.IsZero() {
		anchor = a.AcknowledgedAt
		label = labelAfterAck
	}

	elapsed := now.Sub(anchor)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := budget - elapsed
	if remaining < 0 {
		remaining = 0
	}

	percent := 0.0
	if budget > 0 {
		percent = float64(remaining) / float64(budget) * 100
	}

	state := StateOnTrack
	switch {
	case remaining == 0:
		state = StateEscalated
	case percent < ImminentThresholdPercent:
		state = StateImminent
	}

	return Evaluation{
		Anchor:           anchor,
		Budget:           budget,
		Elapsed:          elapsed,
		Remaining:        remaining,
		PercentRemaining: percent,
		State:            state,
		Label:            label,
	}
}
