package alarms

import "time"

// Severity classifies an alarm by operational impact.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityCleared  Severity = "cleared"
)

// Valid returns true when severity is a supported value.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor, SeverityWarning, SeverityInfo, SeverityCleared:
		return true
	default:
		return false
	}
}

// Weight orders severities from most to least urgent. Lower is more urgent.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 2
	case SeverityWarning:
		return 3
	case SeverityInfo:
		return 4
	case SeverityCleared:
		return 5
	default:
		return 6
	}
}

// EscalationLevel is the operator-assigned urgency tier for unresolved
// major/critical alarms.
type EscalationLevel string

const (
	EscalationL1 EscalationLevel = "L1"
	EscalationL2 EscalationLevel = "L2"
	EscalationL3 EscalationLevel = "L3"
	EscalationL4 EscalationLevel = "L4"
)

// Valid returns true when the level is one of L1..L4.
func (l EscalationLevel) Valid() bool {
	switch l {
	case EscalationL1, EscalationL2, EscalationL3, EscalationL4:
		return true
	default:
		return false
	}
}

// Hierarchy locates an alarm in the network topology. Levels are populated at
// ingestion; a present fine level implies the coarser levels logically exist.
type Hierarchy struct {
	Region    string `json:"region,omitempty"`
	Cluster   string `json:"cluster,omitempty"`
	Site      string `json:"site,omitempty"`
	Node      string `json:"node,omitempty"`
	Cell      string `json:"cell,omitempty"`
	Interface string `json:"interface,omitempty"`
}

// Comment is an operator annotation on an alarm. The comment list is
// append-only.
type Comment struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Timestamp   time.Time `json:"timestamp"`
	Text        string    `json:"text"`
	SeverityTag Severity  `json:"severity_tag,omitempty"`
}

// Alarm is a normalized fault record surfaced from a vendor monitoring system.
type Alarm struct {
	GlobalAlarmID   string    `json:"global_alarm_id"`
	VendorAlarmID   string    `json:"vendor_alarm_id,omitempty"`
	VendorAlarmCode string    `json:"vendor_alarm_code,omitempty"`
	SourceSystem    string    `json:"source_system"`
	Severity        Severity  `json:"severity"`
	AlarmType       string    `json:"alarm_type,omitempty"`
	Category        string    `json:"category,omitempty"`
	Technologies    []string  `json:"technologies"`
	ObjectType      string    `json:"object_type,omitempty"`
	ObjectName      string    `json:"object_name,omitempty"`
	Hierarchy       Hierarchy `json:"hierarchy"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`

	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Acknowledged   bool            `json:"acknowledged"`
	AcknowledgedBy string          `json:"acknowledged_by,omitempty"`
	AcknowledgedAt time.Time       `json:"acknowledged_at,omitempty"`
	AssignedTeam   string          `json:"assigned_team,omitempty"`
	Escalation     EscalationLevel `json:"escalation_level,omitempty"`

	Comments []Comment `json:"comments,omitempty"`

	// RawVendorData is vendor-opaque and exposed only in expert mode. The
	// core never interprets its contents.
	RawVendorData map[string]string `json:"raw_vendor_data,omitempty"`
}

// Duration derives how long the alarm has been (or was) active. It is never
// stored; cleared alarms stop accruing at their last update.
func (a Alarm) Duration(now time.Time) time.Duration {
	end := now
	if a.Severity == SeverityCleared && !a.UpdatedAt.IsZero() {
		end = a.UpdatedAt
	}
	if end.Before(a.CreatedAt) {
		return 0
	}
	return end.Sub(a.CreatedAt)
}

// Clone returns a deep copy safe to hand to read-only consumers.
func (a Alarm) Clone() Alarm {
	out := a
	if a.Technologies != nil {
		out.Technologies = append([]string(nil), a.Technologies...)
	}
	if a.Comments != nil {
		out.Comments = append([]Comment(nil), a.Comments...)
	}
	if a.RawVendorData != nil {
		out.RawVendorData = make(map[string]string, len(a.RawVendorData))
		for k, v := range a.RawVendorData {
			out.RawVendorData[k] = v
		}
	}
	return out
}

// Redacted returns a copy with the vendor-opaque payload stripped, for
// callers that have not enabled expert mode.
func (a Alarm) Redacted() Alarm {
	out := a.Clone()
	out.RawVendorData = nil
	return out
}
