package attendance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection maps a student id to that student's records. Students keep the
// order in which they were first seen and records keep insertion order; both
// orders survive a JSON round trip. The zero value is an empty collection.
type Collection struct {
	order   []string
	records map[string][]Record
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{records: make(map[string][]Record)}
}

func (c *Collection) ensure(studentID string) {
	if c.records == nil {
		c.records = make(map[string][]Record)
	}
	if _, ok := c.records[studentID]; !ok {
		c.order = append(c.order, studentID)
		c.records[studentID] = nil
	}
}

// Append files rec under rec.StudentID, creating the student on first use.
func (c *Collection) Append(rec Record) {
	c.ensure(rec.StudentID)
	c.records[rec.StudentID] = append(c.records[rec.StudentID], rec)
}

// Len is the number of distinct students.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// RecordCount is the number of records across all students.
func (c *Collection) RecordCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, recs := range c.records {
		n += len(recs)
	}
	return n
}

// Students returns the student ids in collection order.
func (c *Collection) Students() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Records returns a copy of the records filed under studentID.
func (c *Collection) Records(studentID string) []Record {
	if c == nil {
		return nil
	}
	return append([]Record(nil), c.records[studentID]...)
}

// Entries flattens the collection: students in order, then each student's
// records in insertion order.
func (c *Collection) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, 0, c.RecordCount())
	for _, id := range c.order {
		for _, rec := range c.records[id] {
			out = append(out, Entry{StudentID: id, Record: rec})
		}
	}
	return out
}

// Summarize tallies the collection in a single pass.
func (c *Collection) Summarize() Summary {
	s := Summary{TotalStudents: c.Len()}
	if c == nil {
		return s
	}
	for _, id := range c.order {
		for _, rec := range c.records[id] {
			switch rec.Status {
			case StatusPresent:
				s.Present++
			case StatusAbsent:
				s.Absent++
			}
		}
	}
	return s
}

// Clone returns a copy that can be appended to without affecting c.
func (c *Collection) Clone() *Collection {
	out := NewCollection()
	if c == nil {
		return out
	}
	out.order = append(out.order, c.order...)
	for id, recs := range c.records {
		out.records[id] = append([]Record(nil), recs...)
	}
	return out
}

// MarshalJSON encodes the collection as an object keyed by student id, in
// collection order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if c != nil {
		for i, id := range c.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(id)
			if err != nil {
				return nil, err
			}
			recs := c.records[id]
			if recs == nil {
				recs = []Record{}
			}
			val, err := json.Marshal(recs)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by student id, keeping key order.
// Every record is filed under its key regardless of any student_id it carries.
func (c *Collection) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = Collection{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("attendance: collection must be a JSON object")
	}

	next := Collection{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("attendance: unexpected key %v", tok)
		}
		var recs []Record
		if err := dec.Decode(&recs); err != nil {
			return fmt.Errorf("attendance: records for student %q: %w", id, err)
		}
		next.ensure(id)
		for _, rec := range recs {
			rec.StudentID = id
			next.Append(rec)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = next
	return nil
}
