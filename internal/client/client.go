// Package client implements attendance.Store against a remote attendance
// service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rollcall/internal/attendance"
)

// Client calls the attendance service. Every request is bounded by the
// timeout given to New.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	clock  attendance.Clock
	locale attendance.Locale
	log    logrus.FieldLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithClock sets the clock used when the service does not echo the record.
func WithClock(c attendance.Clock) Option { return func(cl *Client) { cl.clock = c } }

// WithLocale sets the locale used when the service does not echo the record.
func WithLocale(l attendance.Locale) Option { return func(cl *Client) { cl.locale = l } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(cl *Client) { cl.log = l } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(cl *Client) { cl.HTTP = h } }

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		clock:   attendance.SystemClock(),
		locale:  attendance.DefaultLocale(),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ attendance.Store = (*Client)(nil)

type reportPayload struct {
	Report        *string                `json:"report"`
	TotalStudents *int                   `json:"total_students"`
	Present       *int                   `json:"present"`
	Absent        *int                   `json:"absent"`
	Students      *attendance.Collection `json:"students"`
}

type markRequest struct {
	StudentID int    `json:"student_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

type markResponse struct {
	Message string             `json:"message"`
	Record  *attendance.Record `json:"record"`
}

type historyResponse struct {
	StudentID json.RawMessage     `json:"student_id"`
	Records   []attendance.Record `json:"attendance"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Report fetches GET /generate_report. Missing summary fields fall back to
// placeholders; a missing students object leaves Students nil.
func (c *Client) Report(ctx context.Context) (attendance.Report, error) {
	var p reportPayload
	if err := c.doJSON(ctx, http.MethodGet, "/generate_report", nil, &p); err != nil {
		return attendance.Report{}, err
	}

	var missing []string
	r := attendance.Report{Title: attendance.Placeholder, Students: p.Students}
	if p.Report != nil {
		r.Title = *p.Report
	} else {
		missing = append(missing, "report")
	}
	for _, f := range []struct {
		name string
		src  *int
		dst  *int
	}{
		{"total_students", p.TotalStudents, &r.Summary.TotalStudents},
		{"present", p.Present, &r.Summary.Present},
		{"absent", p.Absent, &r.Summary.Absent},
	} {
		if f.src == nil {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = *f.src
	}
	if len(missing) > 0 {
		c.log.WithField("fields", missing).Warn("report response missing fields, using placeholders")
	}
	return r, nil
}

func (c *Client) Summarize(ctx context.Context) (attendance.Summary, error) {
	r, err := c.Report(ctx)
	if err != nil {
		return attendance.Summary{}, err
	}
	return r.Summary, nil
}

func (c *Client) List(ctx context.Context) ([]attendance.Entry, error) {
	r, err := c.Report(ctx)
	if err != nil {
		return nil, err
	}
	return r.Entries(), nil
}

// History fetches GET /get_attendance for one student.
func (c *Client) History(ctx context.Context, studentID string) ([]attendance.Record, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, attendance.NewValidationError("student_id")
	}
	var resp historyResponse
	path := "/get_attendance?" + url.Values{"student_id": {studentID}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Records {
		resp.Records[i].StudentID = studentID
	}
	return resp.Records, nil
}

// Submit posts to /mark_attendance. The service keys students by number, so a
// non-numeric id is rejected before any request is made.
func (c *Client) Submit(ctx context.Context, in attendance.Submission) (attendance.Record, error) {
	in, err := in.Validate()
	if err != nil {
		return attendance.Record{}, err
	}
	id, err := strconv.Atoi(in.StudentID)
	if err != nil {
		return attendance.Record{}, &attendance.Error{
			Kind:    attendance.KindValidation,
			Message: "student_id must be a number",
			Fields:  []string{"student_id"},
		}
	}

	var resp markResponse
	body := markRequest{StudentID: id, Name: in.Name, Status: in.Status}
	if err := c.doJSON(ctx, http.MethodPost, "/mark_attendance", body, &resp); err != nil {
		return attendance.Record{}, err
	}
	if resp.Record != nil {
		return *resp.Record, nil
	}
	return attendance.NewRecord(in, c.clock.Now(), c.locale), nil
}

// Clear calls DELETE /attendance.
func (c *Client) Clear(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/attendance", nil, nil)
}

// ExportCSV downloads GET /generate_report?export=csv.
func (c *Client) ExportCSV(ctx context.Context) (string, error) {
	data, err := c.Download(ctx, "csv")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Download fetches an export of the given format from the service.
func (c *Client) Download(ctx context.Context, format string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/generate_report?export="+url.QueryEscape(format), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, attendance.NewNetworkError(resp.StatusCode, "", err)
	}
	return data, nil
}

// ExportURL is where a browser can download the format directly.
func (c *Client) ExportURL(format string) string {
	return c.BaseURL + "/generate_report?export=" + url.QueryEscape(format)
}

// do sends the request and turns transport failures and non-2xx statuses
// into network errors. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("attendance service unreachable")
		return nil, attendance.NewNetworkError(0, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return nil, attendance.NewNetworkError(resp.StatusCode, eb.Error, nil)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return attendance.NewMalformedResponseError(path, err)
	}
	return nil
}
