// Package scheduler runs periodic background jobs such as the kernel
// status sampler.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler wraps a gocron scheduler with zap logging.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
}

// New creates a scheduler. Jobs do not run until Start is called.
func New(logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.Named("scheduler"),
	}, nil
}

// Every registers fn to run every interval. Runs never overlap: a tick that
// arrives while fn is still running is skipped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("job %q: interval must be positive, got %s", name, interval)
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to schedule job %q: %w", name, err)
	}

	s.logger.Debug("Scheduled job",
		zap.String("job", name),
		zap.Duration("interval", interval),
		zap.String("job_id", job.ID().String()))
	return job.ID().String(), nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", zap.Int("jobs", s.Jobs()))
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
