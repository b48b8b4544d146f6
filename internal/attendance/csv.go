package attendance

import "strings"

// CSVHeader is the first line of every export.
const CSVHeader = "Roll No,Name,Status,Date,Timestamp"

// EncodeCSV renders entries one row each, fields joined by commas. Fields are
// written as-is: a value containing a comma or newline yields a malformed row.
// Use MalformedRows to detect those.
func EncodeCSV(entries []Entry) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(strings.Join(csvFields(e), ","))
	}
	return b.String()
}

func csvFields(e Entry) []string {
	return []string{e.StudentID, e.Record.Name, e.Record.Status, e.Record.Date, e.Record.ReadableTimestamp}
}

// MalformedRows returns the indexes of entries whose CSV row will not split
// back into five fields.
func MalformedRows(entries []Entry) []int {
	var out []int
	for i, e := range entries {
		for _, f := range csvFields(e) {
			if strings.ContainsAny(f, ",\r\n") {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
