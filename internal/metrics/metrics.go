package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
)

// Collectors groups the service's Prometheus metrics. A nil *Collectors is
// valid and records nothing.
type Collectors struct {
	gatherer           prometheus.Gatherer
	Submissions        *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	Exports            *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New registers the collectors with a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		gatherer: reg,
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_submissions_total",
			Help: "Attendance records stored, by status class.",
		}, []string{"status"}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_validation_failures_total",
			Help: "Submissions rejected for missing fields.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_exports_total",
			Help: "Report downloads, by format.",
		}, []string{"format"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendance_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		c.Submissions,
		c.ValidationFailures,
		c.Exports,
		c.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveExport counts one download of format.
func (c *Collectors) ObserveExport(format string) {
	if c == nil {
		return
	}
	c.Exports.WithLabelValues(format).Inc()
}

func statusClass(status string) string {
	switch status {
	case attendance.StatusPresent:
		return "present"
	case attendance.StatusAbsent:
		return "absent"
	default:
		return "other"
	}
}

// GinMiddleware times every request under its route template.
func (c *Collectors) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}
		start := time.Now()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.RequestDuration.
			WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// InstrumentStore wraps s so submissions, validation failures and CSV
// exports are counted.
func (c *Collectors) InstrumentStore(s attendance.Store) attendance.Store {
	if c == nil {
		return s
	}
	return &instrumented{Store: s, m: c}
}

type instrumented struct {
	attendance.Store
	m *Collectors
}

func (i *instrumented) Submit(ctx context.Context, in attendance.Submission) (attendance.Record, error) {
	rec, err := i.Store.Submit(ctx, in)
	switch {
	case attendance.IsValidation(err):
		i.m.ValidationFailures.Inc()
	case err == nil:
		i.m.Submissions.WithLabelValues(statusClass(rec.Status)).Inc()
	}
	return rec, err
}

func (i *instrumented) ExportCSV(ctx context.Context) (string, error) {
	out, err := i.Store.ExportCSV(ctx)
	if err == nil {
		i.m.ObserveExport("csv")
	}
	return out, err
}
