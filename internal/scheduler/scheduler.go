// Package scheduler runs the feed ingest on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/leadtrack/attribution/internal/ingest"
)

type Scheduler struct {
	cron *cron.Cron
	etl  *ingest.ETL
	log  *slog.Logger
	ctx  context.Context
}

func New(ctx context.Context, etl *ingest.ETL, log *slog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), etl: etl, log: log, ctx: ctx}
}

// Start registers the ingest job and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.etl.Run(s.ctx, nil); err != nil {
			s.log.Error("scheduled ingest failed", slog.String("err", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("ingest scheduler started", slog.String("cron", spec))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
