package attendance

import (
	"fmt"
	"time"
)

// Status values tallied by Summarize. Any other status is stored and listed
// but counted in neither total.
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

const (
	DateLayout = "2006-01-02"
	// Placeholder is shown in place of a value the backend did not provide.
	Placeholder = "—"
)

// Record is a single attendance event. Records are never mutated once appended.
type Record struct {
	StudentID         string    `json:"student_id"`
	Name              string    `json:"name"`
	Status            string    `json:"status"`
	Date              string    `json:"date"`
	Timestamp         time.Time `json:"timestamp"`
	ReadableTimestamp string    `json:"readable_timestamp"`
}

// NewRecord builds the record for a validated submission at instant now.
// The readable timestamp is rendered once here and stored alongside.
func NewRecord(in Submission, now time.Time, locale Locale) Record {
	return Record{
		StudentID:         in.StudentID,
		Name:              in.Name,
		Status:            in.Status,
		Date:              locale.Date(now),
		Timestamp:         now.UTC(),
		ReadableTimestamp: locale.FormatTimestamp(now),
	}
}

// Entry pairs a record with the student key it is filed under.
type Entry struct {
	StudentID string `json:"student_id"`
	Record    Record `json:"record"`
}

// Summary is the present/absent tally over a whole collection.
type Summary struct {
	TotalStudents int `json:"total_students"`
	Present       int `json:"present"`
	Absent        int `json:"absent"`
}

// Report is what a backend hands the UI: a title, the tally and, when
// available, the detailed records. Students is nil when details are not
// available yet.
type Report struct {
	Title    string
	Summary  Summary
	Students *Collection
}

// Entries flattens the detailed records, or returns nil when there are none.
func (r Report) Entries() []Entry {
	if r.Students == nil {
		return nil
	}
	return r.Students.Entries()
}

// ReportTitle names the report after the month of t, e.g. "Attendance Report – May 2024".
func ReportTitle(t time.Time) string {
	return fmt.Sprintf("Attendance Report – %s", t.Format("January 2006"))
}
