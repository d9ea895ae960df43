package writebehind

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/likes-go/internal/likes"
	"go.uber.org/zap"
)

// CompensationConfig tunes the compensation job.
type CompensationConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"runOnStart"`
}

// DefaultCompensationConfig replays leftovers once a day and at startup.
func DefaultCompensationConfig() CompensationConfig {
	return CompensationConfig{
		Interval:   24 * time.Hour,
		RunOnStart: true,
	}
}

// Compensator replays slices the regular sync left behind.
type Compensator struct {
	log    likes.EventLog
	syncer *Syncer
	cfg    CompensationConfig
	logger *zap.Logger
}

// NewCompensator creates the compensation job.
func NewCompensator(log likes.EventLog, syncer *Syncer, cfg CompensationConfig, logger *zap.Logger) *Compensator {
	return &Compensator{
		log:    log,
		syncer: syncer,
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Compensator) Name() string { return "slice-compensation" }

// Interval returns how often Run should be scheduled.
func (c *Compensator) Interval() time.Duration { return c.cfg.Interval }

// RunOnStart reports whether the job should also run once at startup.
func (c *Compensator) RunOnStart() bool { return c.cfg.RunOnStart }

// Run replays every leftover slice in label order, skipping the slices newer
// than the sync target. A failing slice does not stop the pass.
func (c *Compensator) Run(ctx context.Context) error {
	slices, err := c.log.Slices(ctx)
	if err != nil {
		return err
	}

	unsettled := c.syncer.unsettled()

	var (
		errs    []error
		replays int
	)

	for _, slice := range slices {
		if _, ok := unsettled[slice]; ok {
			continue
		}

		if err := slice.Validate(); err != nil {
			c.logger.Warn("skipping unrecognized slice", zap.String("slice", string(slice)))

			continue
		}

		if _, err := c.syncer.SyncSlice(ctx, slice); err != nil {
			errs = append(errs, err)

			continue
		}

		replays++
	}

	c.logger.Info("compensation finished",
		zap.Int("found", len(slices)),
		zap.Int("replayed", replays),
		zap.Int("failed", len(errs)),
	)

	return errors.Join(errs...)
}
