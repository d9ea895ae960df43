// Package jobs runs periodic background work.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type entry struct {
	job        Job
	interval   time.Duration
	runOnStart bool
}

// Scheduler runs each registered job on its own fixed interval. A job never
// overlaps itself: ticks that arrive while it is running are dropped.
type Scheduler struct {
	entries []entry
	logger  *zap.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Every registers job to run every interval, and once immediately when
// runOnStart is set. It must be called before Start.
func (s *Scheduler) Every(job Job, interval time.Duration, runOnStart bool) error {
	if interval <= 0 {
		return errors.New("job interval must be positive")
	}

	s.entries = append(s.entries, entry{job: job, interval: interval, runOnStart: runOnStart})

	return nil
}

// Start launches every registered job.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, e := range s.entries {
		s.wg.Add(1)

		go s.loop(ctx, e)
	}

	s.logger.Info("scheduler started", zap.Int("jobs", len(s.entries)))

	return nil
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	if e.runOnStart {
		s.run(ctx, e.job)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, e.job)

			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", zap.String("job", job.Name()), zap.Any("panic", r))
		}
	}()

	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed",
			zap.String("job", job.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)

		return
	}

	s.logger.Debug("job finished", zap.String("job", job.Name()), zap.Duration("elapsed", time.Since(start)))
}

// Shutdown stops scheduling and waits for running jobs to return.
func (s *Scheduler) Shutdown() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	s.wg.Wait()

	return nil
}
