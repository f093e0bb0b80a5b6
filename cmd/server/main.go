package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leadtrack/attribution/internal/attribution"
	"github.com/leadtrack/attribution/internal/config"
	"github.com/leadtrack/attribution/internal/httpx"
	"github.com/leadtrack/attribution/internal/ingest"
	"github.com/leadtrack/attribution/internal/recorder"
	"github.com/leadtrack/attribution/internal/report"
	"github.com/leadtrack/attribution/internal/scheduler"
	"github.com/leadtrack/attribution/internal/store"
)

func main() {
	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	defaultModel, err := attribution.Parse(cfg.Model)
	if err != nil {
		logger.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.SQLitePath)
		if err != nil {
			logger.Error("recorder", slog.String("err", err.Error()))
			os.Exit(1)
		}
		rec = sr
		logger.Info("conversion recorder opened", slog.String("path", cfg.SQLitePath))
	}
	defer rec.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore(defaultModel)
	etl := ingest.NewETL(cl, st, rec, logger, cfg)
	rep := report.NewService(st)

	if cfg.IngestCron != "" {
		sched := scheduler.New(ctx, etl, logger)
		if err := sched.Start(cfg.IngestCron); err != nil {
			logger.Error("scheduler", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(logger, st, rep, etl, rec),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", slog.String("port", cfg.Port), slog.String("default_model", defaultModel.Name()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
