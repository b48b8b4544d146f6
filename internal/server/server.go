// Package server exposes an attendance.Store over the attendance service's
// HTTP contract.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rollcall/internal/attendance"
	"rollcall/internal/metrics"
	"rollcall/internal/report"
)

// Handler serves the attendance API.
type Handler struct {
	store   attendance.Store
	metrics *metrics.Collectors
	log     logrus.FieldLogger
	health  func(ctx context.Context) error
}

// New builds a handler. health reports the backing storage state for
// /healthz and may be nil.
func New(store attendance.Store, m *metrics.Collectors, log logrus.FieldLogger, health func(ctx context.Context) error) *Handler {
	return &Handler{store: store, metrics: m, log: log, health: health}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.Healthz)
	r.GET("/generate_report", h.GenerateReport)
	r.POST("/mark_attendance", h.MarkAttendance)
	r.GET("/get_attendance", h.GetAttendance)
	r.DELETE("/attendance", h.ClearAttendance)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.WithError(err).Warn("storage health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": false})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "Attendance System is running!", "store": true})
}

// ---------- Report ----------

type reportResponse struct {
	Report        string                 `json:"report"`
	TotalStudents int                    `json:"total_students"`
	Present       int                    `json:"present"`
	Absent        int                    `json:"absent"`
	Students      *attendance.Collection `json:"students,omitempty"`
}

// GenerateReport answers with the JSON report, or with an attachment when
// ?export= names a download format.
func (h *Handler) GenerateReport(c *gin.Context) {
	format := strings.ToLower(c.Query("export"))
	if format == report.FormatCSV {
		out, err := h.store.ExportCSV(c.Request.Context())
		if err != nil {
			h.writeError(c, err)
			return
		}
		attach(c, format, []byte(out))
		return
	}

	r, err := h.store.Report(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	switch format {
	case "", "json", "false":
		c.JSON(http.StatusOK, reportResponse{
			Report:        r.Title,
			TotalStudents: r.Summary.TotalStudents,
			Present:       r.Summary.Present,
			Absent:        r.Summary.Absent,
			Students:      r.Students,
		})
	case report.FormatPDF, report.FormatXLSX:
		body, err := report.Render(format, r)
		if err != nil {
			h.log.WithError(err).WithField("format", format).Error("render export failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		h.metrics.ObserveExport(format)
		attach(c, format, body)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported export format %q", format)})
	}
}

func attach(c *gin.Context, format string, body []byte) {
	ct, _ := report.ContentType(format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(format)))
	c.Data(http.StatusOK, ct, body)
}

// ---------- Mark Attendance ----------

// studentID accepts the id as a JSON number or string.
type studentID string

func (s *studentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = studentID(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.New("student_id must be a number or string")
		}
		*s = studentID(canonicalNumber(n))
	}
	return nil
}

// canonicalNumber renders whole numbers without a fraction or exponent so
// 12, 12.0 and 1.2e1 name the same student.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

type markRequest struct {
	StudentID studentID `json:"student_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	rec, err := h.store.Submit(c.Request.Context(), attendance.Submission{
		StudentID: string(req.StudentID),
		Name:      req.Name,
		Status:    req.Status,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Attendance marked for student %s", rec.StudentID),
		"status":  rec.Status,
		"record":  rec,
	})
}

// ---------- History / Reset ----------

func (h *Handler) GetAttendance(c *gin.Context) {
	id := strings.TrimSpace(c.Query("student_id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id required"})
		return
	}
	records, err := h.store.History(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"student_id": id, "attendance": records})
}

func (h *Handler) ClearAttendance(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	h.log.Info("attendance cleared")
	c.JSON(http.StatusOK, gin.H{"message": "Attendance cleared"})
}

// writeError maps store errors to statuses; the body is always {"error": ...}.
func (h *Handler) writeError(c *gin.Context, err error) {
	var e *attendance.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case attendance.KindValidation:
			c.JSON(http.StatusBadRequest, gin.H{"error": e.Error()})
			return
		case attendance.KindNetwork, attendance.KindMalformedResponse:
			c.JSON(http.StatusBadGateway, gin.H{"error": e.Error()})
			return
		}
	}
	_ = c.Error(err)
	h.log.WithError(err).WithField("path", c.FullPath()).Error("attendance store failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
