// Package postgres reads the external alarm archive that backs historical
// replay mode. The archive is written by the upstream retention pipeline; the
// console only queries it, the in-memory working set is never persisted here.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	alarms "noc-console/internal/alarms/domain"
)

// Archive serves alarm records for past time ranges.
type Archive struct {
	db *sql.DB
}

// NewArchive constructs an archive reader.
func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// FetchRange returns archived alarms created within [start, end), oldest
// first.
func (a *Archive) FetchRange(ctx context.Context, start, end time.Time) ([]alarms.Alarm, error) {
	if a == nil || a.db == nil {
		return nil, errors.New("alarm archive: nil db")
	}
	if !start.Before(end) {
		return nil, errors.New("alarm archive: start must be before end")
	}
	rows, err := a.db.QueryContext(ctx, `
SELECT global_alarm_id, vendor_alarm_id, vendor_alarm_code, source_system,
	severity, alarm_type, category, technologies, object_type, object_name,
	region, cluster, site, node, cell, interface,
	title, description, created_at, updated_at,
	acknowledged, acked_by, acked_at, assigned_team, escalation_level,
	raw_vendor_data
FROM alarm_archive
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alarms.Alarm
	for rows.Next() {
		alarm, err := scanArchivedAlarm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alarm)
	}
	return out, rows.Err()
}

func scanArchivedAlarm(rows *sql.Rows) (alarms.Alarm, error) {
	var (
		alarm        alarms.Alarm
		technologies sql.NullString
		region       sql.NullString
		cluster      sql.NullString
		site         sql.NullString
		node         sql.NullString
		cell         sql.NullString
		iface        sql.NullString
		description  sql.NullString
		ackedBy      sql.NullString
		ackedAt      sql.NullTime
		assignedTeam sql.NullString
		escalation   sql.NullString
		rawVendor    []byte
	)
	err := rows.Scan(
		&alarm.GlobalAlarmID,
		&alarm.VendorAlarmID,
		&alarm.VendorAlarmCode,
		&alarm.SourceSystem,
		&alarm.Severity,
		&alarm.AlarmType,
		&alarm.Category,
		&technologies,
		&alarm.ObjectType,
		&alarm.ObjectName,
		&region,
		&cluster,
		&site,
		&node,
		&cell,
		&iface,
		&alarm.Title,
		&description,
		&alarm.CreatedAt,
		&alarm.UpdatedAt,
		&alarm.Acknowledged,
		&ackedBy,
		&ackedAt,
		&assignedTeam,
		&escalation,
		&rawVendor,
	)
	if err != nil {
		return alarms.Alarm{}, err
	}
	if technologies.Valid && technologies.String != "" {
		alarm.Technologies = strings.Split(technologies.String, ",")
	}
	alarm.Hierarchy = alarms.Hierarchy{
		Region:    region.String,
		Cluster:   cluster.String,
		Site:      site.String,
		Node:      node.String,
		Cell:      cell.String,
		Interface: iface.String,
	}
	alarm.Description = description.String
	alarm.AcknowledgedBy = ackedBy.String
	if ackedAt.Valid {
		alarm.AcknowledgedAt = ackedAt.Time
	}
	alarm.AssignedTeam = assignedTeam.String
	alarm.Escalation = alarms.EscalationLevel(escalation.String)
	if len(rawVendor) > 0 {
		raw := make(map[string]string)
		if err := json.Unmarshal(rawVendor, &raw); err == nil {
			alarm.RawVendorData = raw
		}
	}
	return alarm, nil
}
