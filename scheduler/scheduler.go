package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named maintenance task.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs maintenance jobs on cron schedules. A job still running
// when its next tick fires is skipped.
type Scheduler struct {
	logger *slog.Logger
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job. An empty schedule disables it.
func (s *Scheduler) Add(job Job) error {
	if job.Schedule == "" {
		s.logger.Info("Scheduled job disabled", slog.String("job", job.Name))
		return nil
	}
	_, err := s.cron.AddFunc(job.Schedule, func() {
		s.execute(job)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}
	s.logger.Info("Scheduled job registered",
		slog.String("job", job.Name),
		slog.String("schedule", job.Schedule))
	return nil
}

func (s *Scheduler) execute(job Job) {
	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("Scheduled job failed",
			slog.String("job", job.Name),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("Scheduled job finished",
		slog.String("job", job.Name),
		slog.Duration("elapsed", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting maintenance scheduler...")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
