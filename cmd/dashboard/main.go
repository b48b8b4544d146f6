// Command dashboard serves the attendance page on its own. STORE_MODE selects
// where records live: "local" keeps them in the configured key-value store,
// "remote" talks to an attendance service at REMOTE_URL. It listens on
// DASHBOARD_PORT so it can run beside the service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rollcall/internal/attendance"
	"rollcall/internal/client"
	"rollcall/internal/config"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/logging"
	"rollcall/internal/metrics"
	"rollcall/internal/server"
	"rollcall/internal/store"
	"rollcall/internal/web"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Production())
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("dashboard failed")
	}
}

func run(cfg config.App, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	locale, err := attendance.NewLocale(cfg.Locale, loc)
	if err != nil {
		return err
	}

	var (
		st        attendance.Store
		exportURL func(string) string
		health    = func(context.Context) error { return nil }
	)
	switch cfg.StoreMode {
	case config.ModeLocal:
		kv, err := store.Open(ctx, store.Options{
			Backend:     cfg.KVBackend,
			RedisAddr:   cfg.RedisAddr,
			DatabaseURL: cfg.DatabaseURL,
			SQLitePath:  cfg.SQLitePath,
		})
		if err != nil {
			return err
		}
		defer func() { _ = kv.Close() }()
		st, err = attendance.NewLocalStore(ctx, kv, attendance.Options{Key: cfg.KVKey, Locale: locale, Logger: log})
		if err != nil {
			return err
		}
		health = kv.Ping
	case config.ModeRemote:
		c := client.New(cfg.RemoteURL, cfg.RemoteTimeout, client.WithLocale(locale), client.WithLogger(log))
		st, exportURL = c, c.ExportURL
		health = func(ctx context.Context) error {
			_, err := c.Summarize(ctx)
			return err
		}
		log.WithField("remote", cfg.RemoteURL).Info("using remote attendance service")
	default:
		return fmt.Errorf("unknown STORE_MODE %q", cfg.StoreMode)
	}

	m := metrics.New()
	st = m.InstrumentStore(st)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(log, "/healthz", "/metrics"))
	r.Use(m.GinMiddleware())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		if err := health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mode": cfg.StoreMode, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": cfg.StoreMode})
	})
	web.New(web.Config{Store: st, Metrics: m, Logger: log, ExportURL: exportURL}).Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.DashboardPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.Serve(ctx, srv, log)
}
