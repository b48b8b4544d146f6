package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rollcall/internal/attendance"
	"rollcall/internal/server"
	"rollcall/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

var testNow = time.Date(2024, time.May, 1, 10, 30, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newClient(url string) *Client {
	return New(url, 2*time.Second, WithLogger(quietLogger()), WithClock(attendance.FixedClock(testNow)))
}

func fakeService(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newClient(srv.URL)
}

func TestReportWithoutStudents(t *testing.T) {
	c := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate_report" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"report":"Attendance Report – May 2024","total_students":3,"present":5,"absent":2}`)
	})

	r, err := c.Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.Students != nil {
		t.Fatal("Students should be nil when the payload has none")
	}
	if r.Summary != (attendance.Summary{TotalStudents: 3, Present: 5, Absent: 2}) {
		t.Fatalf("Summary = %+v", r.Summary)
	}
	entries, err := c.List(context.Background())
	if err != nil || len(entries) != 0 {
		t.Fatalf("List = %v, %v", entries, err)
	}
}

func TestReportMissingFieldsUsePlaceholders(t *testing.T) {
	c := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"present":4}`)
	})
	r, err := c.Report(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != attendance.Placeholder || r.Summary != (attendance.Summary{Present: 4}) {
		t.Fatalf("Report = %+v", r)
	}
}

func TestReportMalformed(t *testing.T) {
	for _, body := range []string{`not json`, `[1,2]`, `{"present":"many"}`, `{"students":["x"]}`, ``} {
		c := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		_, err := c.Report(context.Background())
		if attendance.KindOf(err) != attendance.KindMalformedResponse {
			t.Errorf("body %q: err = %v, want malformed response", body, err)
		}
	}
}

func TestSubmitDuplicateRollNumber(t *testing.T) {
	c := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"Duplicate roll number"}`)
	})

	_, err := c.Submit(context.Background(), attendance.Submission{StudentID: "12", Name: "Asha", Status: "Present"})
	var e *attendance.Error
	if !errors.As(err, &e) || e.Kind != attendance.KindNetwork {
		t.Fatalf("err = %v, want network error", err)
	}
	if e.Error() != "Duplicate roll number" || e.StatusCode != http.StatusConflict {
		t.Fatalf("err = %q (%d)", e.Error(), e.StatusCode)
	}
}

func TestSubmitSendsNumericID(t *testing.T) {
	c := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
			return
		}
		if body["student_id"] != float64(12) || body["name"] != "Asha" || body["status"] != "Present" {
			t.Errorf("body = %v", body)
		}
		_, _ = io.WriteString(w, `{"message":"Attendance marked for student 12"}`)
	})

	rec, err := c.Submit(context.Background(), attendance.Submission{StudentID: " 12 ", Name: "Asha", Status: "Present"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.StudentID != "12" || rec.Date != "2024-05-01" || rec.ReadableTimestamp != "5/1/2024 10:30:00 AM" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestSubmitValidatesBeforeCalling(t *testing.T) {
	called := false
	c := fakeService(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	for _, in := range []attendance.Submission{
		{StudentID: "", Name: "Asha", Status: "Present"},
		{StudentID: "12", Name: "", Status: "Present"},
		{StudentID: "A-12", Name: "Asha", Status: "Present"},
	} {
		if _, err := c.Submit(context.Background(), in); !attendance.IsValidation(err) {
			t.Errorf("Submit(%+v) err = %v, want validation error", in, err)
		}
	}
	if called {
		t.Fatal("service called for invalid input")
	}
}

func TestUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url).Report(context.Background())
	if attendance.KindOf(err) != attendance.KindNetwork {
		t.Fatalf("err = %v, want network error", err)
	}
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := New(srv.URL, 50*time.Millisecond, WithLogger(quietLogger()))
	if _, err := c.Summarize(context.Background()); attendance.KindOf(err) != attendance.KindNetwork {
		t.Fatalf("err = %v, want network error", err)
	}
}

// Runs the client against the real API handler backed by a local store.
func TestAgainstServer(t *testing.T) {
	ctx := context.Background()
	local, err := attendance.NewLocalStore(ctx, store.NewMemory(), attendance.Options{
		Clock:  attendance.FixedClock(testNow),
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	server.New(local, nil, quietLogger(), nil).Register(r)
	srv := httptest.NewServer(r)
	defer srv.Close()
	c := newClient(srv.URL)

	for _, in := range []attendance.Submission{
		{StudentID: "12", Name: "Asha", Status: "Present"},
		{StudentID: "12", Name: "Asha", Status: "Absent"},
		{StudentID: "13", Name: "Ravi", Status: "Present"},
	} {
		if _, err := c.Submit(ctx, in); err != nil {
			t.Fatalf("Submit(%+v): %v", in, err)
		}
	}

	sum, err := c.Summarize(ctx)
	if err != nil || sum != (attendance.Summary{TotalStudents: 2, Present: 2, Absent: 1}) {
		t.Fatalf("Summarize = %+v, %v", sum, err)
	}
	entries, _ := c.List(ctx)
	want, _ := local.List(ctx)
	if len(entries) != len(want) {
		t.Fatalf("List len = %d, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i].StudentID != want[i].StudentID || entries[i].Record.Status != want[i].Record.Status {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}

	hist, err := c.History(ctx, "12")
	if err != nil || len(hist) != 2 {
		t.Fatalf("History = %v, %v", hist, err)
	}

	csv, err := c.ExportCSV(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(csv, "\n"); len(lines) != 4 || lines[0] != attendance.CSVHeader {
		t.Fatalf("csv = %q", csv)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if sum, _ := c.Summarize(ctx); sum != (attendance.Summary{}) {
		t.Fatalf("Summarize after clear = %+v", sum)
	}
	if _, err := c.Download(ctx, "docx"); attendance.KindOf(err) != attendance.KindNetwork {
		t.Fatalf("unsupported download err = %v", err)
	}
}

func TestExportURL(t *testing.T) {
	c := New("http://127.0.0.1:5000/", time.Second)
	if got := c.ExportURL("pdf"); got != "http://127.0.0.1:5000/generate_report?export=pdf" {
		t.Fatalf("ExportURL = %q", got)
	}
}
