// Package web serves the attendance dashboard: the mark-attendance form, the
// summary line, the record table and the download links, rendered on the
// server from any attendance.Store.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/sirupsen/logrus"

	"rollcall/internal/attendance"
	"rollcall/internal/metrics"
	"rollcall/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	noDetailsText = "⚠️ No detailed student records yet"
	loadErrorText = "⚠️ Error fetching data."
)

// Config wires a Dashboard.
type Config struct {
	Store   attendance.Store
	Metrics *metrics.Collectors
	Logger  logrus.FieldLogger
	// ExportURL, when set, sends downloads to another host instead of
	// rendering them here.
	ExportURL func(format string) string
}

// Dashboard renders the attendance page.
type Dashboard struct {
	store     attendance.Store
	metrics   *metrics.Collectors
	log       logrus.FieldLogger
	exportURL func(format string) string
}

func New(cfg Config) *Dashboard {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dashboard{store: cfg.Store, metrics: cfg.Metrics, log: log, exportURL: cfg.ExportURL}
}

// Register mounts the dashboard routes on r.
func (d *Dashboard) Register(r gin.IRoutes) {
	r.GET("/", d.Index)
	r.POST("/", d.Mark)
	r.POST("/reset", d.Reset)
	r.GET("/download/:format", d.Download)
}

type row struct {
	StudentID string
	Name      string
	Status    string
	Date      string
	Timestamp string
}

type page struct {
	Summary     string
	LoadError   bool
	Rows        []row
	Placeholder string
	Statuses    []string
	Form        attendance.Submission
	FormError   string
	Notice      string
}

func orPlaceholder(s string) string {
	if s == "" {
		return attendance.Placeholder
	}
	return s
}

// load builds the page from the store. A failing store yields an explicit
// error state rather than an empty table.
func (d *Dashboard) load(ctx context.Context) page {
	p := page{
		Statuses:    []string{attendance.StatusPresent, attendance.StatusAbsent},
		Placeholder: noDetailsText,
	}
	r, err := d.store.Report(ctx)
	if err != nil {
		d.log.WithError(err).Warn("load attendance report failed")
		p.Summary = fmt.Sprintf("%s %s", loadErrorText, err.Error())
		p.LoadError = true
		p.Placeholder = attendance.Placeholder
		return p
	}
	p.Summary = report.SummaryLine(r)
	for _, e := range r.Entries() {
		p.Rows = append(p.Rows, row{
			StudentID: e.StudentID,
			Name:      orPlaceholder(e.Record.Name),
			Status:    orPlaceholder(e.Record.Status),
			Date:      orPlaceholder(e.Record.Date),
			Timestamp: orPlaceholder(e.Record.ReadableTimestamp),
		})
	}
	return p
}

func (d *Dashboard) render(c *gin.Context, code int, p page) {
	c.Render(code, render.HTML{Template: pageTemplate, Name: "dashboard", Data: p})
}

func (d *Dashboard) Index(c *gin.Context) {
	p := d.load(c.Request.Context())
	if id := c.Query("marked"); id != "" {
		p.Notice = fmt.Sprintf("Attendance marked for student %s", id)
	}
	d.render(c, http.StatusOK, p)
}

// Mark handles the form. Failures re-render the page with the message next
// to the form and the user's input kept.
func (d *Dashboard) Mark(c *gin.Context) {
	in := attendance.Submission{
		StudentID: c.PostForm("student_id"),
		Name:      c.PostForm("name"),
		Status:    c.PostForm("status"),
	}
	rec, err := d.store.Submit(c.Request.Context(), in)
	if err != nil {
		p := d.load(c.Request.Context())
		p.Form = in
		p.FormError = err.Error()
		d.render(c, errorStatus(err), p)
		return
	}
	c.Redirect(http.StatusSeeOther, "/?marked="+url.QueryEscape(rec.StudentID))
}

func (d *Dashboard) Reset(c *gin.Context) {
	if err := d.store.Clear(c.Request.Context()); err != nil {
		d.log.WithError(err).Error("reset attendance failed")
		p := d.load(c.Request.Context())
		p.FormError = err.Error()
		d.render(c, errorStatus(err), p)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (d *Dashboard) Download(c *gin.Context) {
	format := strings.ToLower(c.Param("format"))
	ct, ok := report.ContentType(format)
	if !ok {
		c.String(http.StatusNotFound, "unknown download format %q", format)
		return
	}
	if d.exportURL != nil {
		c.Redirect(http.StatusFound, d.exportURL(format))
		return
	}

	ctx := c.Request.Context()
	var body []byte
	if format == report.FormatCSV {
		out, err := d.store.ExportCSV(ctx)
		if err != nil {
			d.downloadFailed(c, err)
			return
		}
		body = []byte(out)
	} else {
		r, err := d.store.Report(ctx)
		if err != nil {
			d.downloadFailed(c, err)
			return
		}
		if body, err = report.Render(format, r); err != nil {
			d.downloadFailed(c, err)
			return
		}
		d.metrics.ObserveExport(format)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(format)))
	c.Data(http.StatusOK, ct, body)
}

func (d *Dashboard) downloadFailed(c *gin.Context, err error) {
	d.log.WithError(err).Error("download failed")
	p := d.load(c.Request.Context())
	p.FormError = "Download failed: " + err.Error()
	d.render(c, errorStatus(err), p)
}

func errorStatus(err error) int {
	switch attendance.KindOf(err) {
	case attendance.KindValidation:
		return http.StatusUnprocessableEntity
	case attendance.KindNetwork, attendance.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
