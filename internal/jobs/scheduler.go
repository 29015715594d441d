package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/DriveNow-Rentals/service-booking/pkg/config"
)

// Scheduler manages cron scheduling for the maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *JobRunner
	logger *zap.Logger
}

// NewScheduler creates a scheduler and registers the jobs under the given
// cron specs.
func NewScheduler(jobRunner *JobRunner, cfg config.SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:   c,
		jobs:   jobRunner,
		logger: logger,
	}

	if _, err := c.AddFunc(cfg.ReconcileAvailability, jobRunner.ReconcileVehicleAvailability); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cfg.ActivateDueBookings, jobRunner.ActivateDueBookings); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cfg.CompleteOverdue, jobRunner.CompleteOverdueBookings); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}
