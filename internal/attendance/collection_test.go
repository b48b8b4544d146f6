package attendance

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCollectionJSONKeepsOrder(t *testing.T) {
	c := NewCollection()
	for _, id := range []string{"30", "4", "200", "4"} {
		c.Append(Record{StudentID: id, Name: "n" + id, Status: StatusPresent})
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `{"30":`) {
		t.Fatalf("unexpected encoding %s", data)
	}

	var back Collection
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(back.Students(), ","); got != "30,4,200" {
		t.Fatalf("Students = %s", got)
	}
	if back.RecordCount() != 4 {
		t.Fatalf("RecordCount = %d", back.RecordCount())
	}
}

func TestCollectionUnmarshalFilesRecordsUnderKey(t *testing.T) {
	// Records from the older service carry only date and status.
	payload := `{"12":[{"date":"2024-05-01","status":"Present"}],"13":[{"student_id":"x","date":"2024-05-01","status":"Absent"}]}`
	var c Collection
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		t.Fatal(err)
	}
	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[1].Record.StudentID != "13" {
		t.Errorf("record student id = %q, want key", entries[1].Record.StudentID)
	}
	if c.Summarize() != (Summary{TotalStudents: 2, Present: 1, Absent: 1}) {
		t.Errorf("Summarize = %+v", c.Summarize())
	}
}

func TestCollectionUnmarshalRejectsNonObject(t *testing.T) {
	for _, payload := range []string{`[]`, `"x"`, `{"1":"Present"}`} {
		var c Collection
		if err := json.Unmarshal([]byte(payload), &c); err == nil {
			t.Errorf("%s: expected error", payload)
		}
	}
}

func TestCollectionCloneIsIndependent(t *testing.T) {
	c := NewCollection()
	c.Append(Record{StudentID: "1", Status: StatusPresent})
	clone := c.Clone()
	clone.Append(Record{StudentID: "1", Status: StatusAbsent})
	clone.Append(Record{StudentID: "2", Status: StatusAbsent})

	if c.RecordCount() != 1 || c.Len() != 1 {
		t.Fatalf("original changed: %d records, %d students", c.RecordCount(), c.Len())
	}
}

func TestSummaryBounds(t *testing.T) {
	c := NewCollection()
	statuses := []string{"Present", "Absent", "Excused", "Present", ""}
	for i, st := range statuses {
		c.Append(Record{StudentID: string(rune('a' + i%2)), Status: st})
	}
	s := c.Summarize()
	if s.Present+s.Absent > c.RecordCount() {
		t.Fatalf("tally %d exceeds records %d", s.Present+s.Absent, c.RecordCount())
	}
	if s.Present != 2 || s.Absent != 1 || s.TotalStudents != 2 {
		t.Fatalf("Summarize = %+v", s)
	}
}
