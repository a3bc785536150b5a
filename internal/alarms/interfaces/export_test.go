package interfaces

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"noc-console/internal/alarms/application"
)

var sampleRows = [][]string{
	{"ALM-1", "critical", "link-down on north-node-01", "north-node-01", "2026-03-01T08:00:00Z", "45m0s", "transport-noc"},
	{"ALM-2", "major", "cell-outage, sector \"B\"", "south-node-02", "2026-03-01T08:30:00Z", "15m0s", ""},
}

func TestBuildAlarmsCSV(t *testing.T) {
	data, err := BuildAlarmsCSV(sampleRows)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, application.ExportColumns, records[0])
	assert.Equal(t, sampleRows[0], records[1])
	// Values with commas and quotes survive the round trip.
	assert.Equal(t, `cell-outage, sector "B"`, records[2][2])
}

func TestBuildAlarmsXLSX(t *testing.T) {
	data, err := BuildAlarmsXLSX(sampleRows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("alarms")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, application.ExportColumns, rows[0])
	assert.Equal(t, "ALM-1", rows[1][0])
	assert.Equal(t, "major", rows[2][1])
}

func TestBuildAlarmReportPDF(t *testing.T) {
	summary := ReportSummary{
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Mode:        "live",
		Total:       2,
		Critical:    1,
		Major:       1,
	}
	data, err := BuildAlarmReportPDF(summary, sampleRows)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
