// Package report renders attendance reports for people: the one-line summary
// shown above the table and the downloadable PDF and spreadsheet files.
package report

import (
	"fmt"

	"rollcall/internal/attendance"
)

// Download formats.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// ContentType returns the MIME type of format and whether it is supported.
func ContentType(format string) (string, bool) {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8", true
	case FormatPDF:
		return "application/pdf", true
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true
	}
	return "", false
}

// Filename is the attachment name for a download.
func Filename(format string) string {
	return "attendance_report." + format
}

// SummaryLine renders the report header exactly as the dashboard shows it.
func SummaryLine(r attendance.Report) string {
	title := r.Title
	if title == "" {
		title = attendance.Placeholder
	}
	return fmt.Sprintf("%s | Total Students: %d | Present: %d | Absent: %d",
		title, r.Summary.TotalStudents, r.Summary.Present, r.Summary.Absent)
}

var columns = []string{"Roll No", "Name", "Status", "Date", "Timestamp"}

func row(e attendance.Entry) []string {
	name := e.Record.Name
	if name == "" {
		name = attendance.Placeholder
	}
	return []string{e.StudentID, name, e.Record.Status, e.Record.Date, e.Record.ReadableTimestamp}
}

// Render produces the download body for format. CSV keeps the exact
// comma-joined encoding; the other formats lay out the same five columns.
func Render(format string, r attendance.Report) ([]byte, error) {
	switch format {
	case FormatCSV:
		return []byte(attendance.EncodeCSV(r.Entries())), nil
	case FormatPDF:
		return PDF(r)
	case FormatXLSX:
		return XLSX(r.Entries())
	}
	return nil, fmt.Errorf("report: unsupported format %q", format)
}
