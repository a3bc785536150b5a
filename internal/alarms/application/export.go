package application

import (
	"time"
)

// ExportColumns is the stable leading column contract for bulk export.
// Additional columns may be appended after these, never between them.
var ExportColumns = []string{
	"globalAlarmId",
	"severity",
	"title",
	"objectName",
	"createdAt",
	"duration",
	"assignedTeam",
}

// BulkExport projects the selected alarms into ordered tabular rows. It is
// read-only: ids missing from the working set are skipped without error, as
// selections can outlive an ingest cycle.
func (s *Store) BulkExport(ids []string, now time.Time) [][]string {
	rows := make([][]string, 0, len(ids))
	s.mu.RLock()
	for _, id := range ids {
		alarm, ok := s.byID[id]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			alarm.GlobalAlarmID,
			string(alarm.Severity),
			alarm.Title,
			alarm.ObjectName,
			alarm.CreatedAt.UTC().Format(time.RFC3339),
			alarm.Duration(now).Truncate(time.Second).String(),
			alarm.AssignedTeam,
		})
	}
	s.mu.RUnlock()
	return rows
}
