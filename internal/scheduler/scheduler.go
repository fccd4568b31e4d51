package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/northriverboats/gear-inventory-check/internal/config"
	"github.com/northriverboats/gear-inventory-check/internal/service/inventory"
)

// Scheduler runs the snapshot pipeline on the configured cron schedule when
// the tool runs in daemon mode.
type Scheduler struct {
	cron   *cron.Cron
	svc    *inventory.Service
	cfg    config.ReportingConfig
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.ReportingConfig, svc *inventory.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 standard parser: 5 fields (min, hour, dom, month, dow),
	// evaluated in local time, matching the store's local day boundaries.
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the daily snapshot job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runSnapshot)
	if err != nil {
		s.logger.Error("failed to schedule snapshot run", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runSnapshot() {
	s.logger.Info("running scheduled snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.svc.Run(ctx, inventory.RunOptions{Email: true}); err != nil {
		s.logger.Error("scheduled snapshot failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled snapshot completed")
}
