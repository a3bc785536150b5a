package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"noc-console/internal/alarms/application"
)

// BuildAlarmsCSV serializes export rows with the stable column contract in
// the leading position. Values are quoted and comma-joined.
func BuildAlarmsCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(application.ExportColumns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAlarmsXLSX renders export rows into a single-sheet workbook.
func BuildAlarmsXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "alarms"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range application.ExportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, name)
	}
	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReportSummary carries the header block of a PDF alarm report.
type ReportSummary struct {
	GeneratedAt time.Time
	Mode        string
	Total       int
	Critical    int
	Major       int
	Acked       int
}

// BuildAlarmReportPDF renders a minimal PDF report over the exported rows.
func BuildAlarmReportPDF(summary ReportSummary, rows [][]string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Alarm Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("View Mode: %s", summary.Mode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Alarms: %d (critical %d, major %d, acknowledged %d)",
		summary.Total, summary.Critical, summary.Major, summary.Acked))
	pdf.Ln(8)

	widths := []float64{42, 22, 70, 50, 40, 28, 25}
	pdf.SetFont("Arial", "B", 9)
	for i, name := range application.ExportColumns {
		pdf.CellFormat(widths[i], 6, name, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for i, value := range row {
			pdf.CellFormat(widths[i], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
