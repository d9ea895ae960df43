package writebehind

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	gonanoid "github.com/jaevor/go-nanoid"
	"github.com/serroba/likes-go/internal/events"
	"github.com/serroba/likes-go/internal/likes"
	"github.com/serroba/likes-go/internal/messaging"
	"go.uber.org/zap"
)

const (
	runIDLength          = 12
	defaultDeleteTimeout = 5 * time.Second
	defaultSyncTimeout   = 30 * time.Second
)

// Config tunes the sync job.
type Config struct {
	// Granularity is the width of a time slice.
	Granularity time.Duration `yaml:"granularity"`
	// Interval is how often the job runs.
	Interval time.Duration `yaml:"interval"`
	// Lag is subtracted from the current time to pick the slice to sync. It
	// must be at least MinLag so a toggle that picked its slice just before a
	// boundary has landed before the slice is drained.
	Lag time.Duration `yaml:"lag"`
	// Timeout bounds one drain-and-commit pass.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig syncs, every 10 seconds, the 10 second slice that ended
// 10 to 20 seconds ago.
func DefaultConfig() Config {
	return Config{
		Granularity: likes.DefaultGranularity,
		Interval:    likes.DefaultGranularity,
		Lag:         2 * likes.DefaultGranularity,
		Timeout:     defaultSyncTimeout,
	}
}

// MinLag is the shortest accepted Lag: one slice still open plus one slice
// that closed less than a granularity ago.
func (c Config) MinLag() time.Duration {
	return 2 * c.Granularity
}

// Result summarizes one synced slice.
type Result struct {
	RunID    string
	Slice    likes.TimeSlice
	Inserted int64
	Deleted  int64
	Counts   likes.AggregateCount
	Skipped  int
}

// Syncer drains closed slices of the event log into the durable store.
type Syncer struct {
	log     likes.EventLog
	repo    likes.Repository
	cfg     Config
	now     func() time.Time
	publish messaging.Publish[events.SliceSyncedEvent]
	logger  *zap.Logger
	runID   func() string
	deletes sync.WaitGroup
}

// NewSyncer creates the sync job. A nil clock defaults to time.Now.
func NewSyncer(
	log likes.EventLog,
	repo likes.Repository,
	cfg Config,
	clock func() time.Time,
	publish messaging.Publish[events.SliceSyncedEvent],
	logger *zap.Logger,
) (*Syncer, error) {
	if cfg.Lag < cfg.MinLag() {
		return nil, fmt.Errorf("sync lag %s is shorter than %s", cfg.Lag, cfg.MinLag())
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSyncTimeout
	}

	if clock == nil {
		clock = time.Now
	}

	runID, err := gonanoid.Standard(runIDLength)
	if err != nil {
		return nil, fmt.Errorf("create run id generator: %w", err)
	}

	return &Syncer{
		log:     log,
		repo:    repo,
		cfg:     cfg,
		now:     clock,
		publish: publish,
		logger:  logger,
		runID:   runID,
	}, nil
}

func (s *Syncer) Name() string { return "slice-sync" }

// Interval returns how often Run should be scheduled.
func (s *Syncer) Interval() time.Duration { return s.cfg.Interval }

// Target returns the slice the next run will sync.
func (s *Syncer) Target() likes.TimeSlice {
	return likes.SliceOf(s.now().Add(-s.cfg.Lag), s.cfg.Granularity)
}

// unsettled returns the slices newer than Target: the open slice and those
// in-flight toggles may still write to.
func (s *Syncer) unsettled() map[likes.TimeSlice]struct{} {
	now := s.now()
	out := make(map[likes.TimeSlice]struct{})

	for d := time.Duration(0); d < s.cfg.Lag; d += s.cfg.Granularity {
		out[likes.SliceOf(now.Add(-d), s.cfg.Granularity)] = struct{}{}
	}

	delete(out, s.Target())

	return out
}

// Run syncs the most recent settled slice. Failures leave the slice in place
// for compensation.
func (s *Syncer) Run(ctx context.Context) error {
	_, err := s.SyncSlice(ctx, s.Target())

	return err
}

// SyncSlice drains slice, applies it in one durable transaction and then
// deletes it in the background. An absent slice is a no-op. The pass does not
// stop when ctx is cancelled; it is bounded by the configured timeout.
func (s *Syncer) SyncSlice(ctx context.Context, slice likes.TimeSlice) (Result, error) {
	result := Result{RunID: s.runID(), Slice: slice}
	logger := s.logger.With(zap.String("run_id", result.RunID), zap.String("slice", string(slice)))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	fields, err := s.log.Drain(ctx, slice)
	if err != nil {
		logger.Error("failed to drain slice", zap.Error(err))

		return result, fmt.Errorf("drain slice %s: %w", slice, err)
	}

	if len(fields) == 0 {
		return result, nil
	}

	batch := Aggregate(fields)
	result.Skipped = len(batch.Warnings)

	for _, w := range batch.Warnings {
		logger.Warn("skipping event log entry",
			zap.String("field", w.Field),
			zap.String("value", w.Value),
			zap.String("reason", w.Reason),
		)
	}

	if !batch.Empty() {
		err = s.repo.WithinTx(ctx, func(ctx context.Context, tx likes.Tx) error {
			inserted, err := tx.InsertLikes(ctx, batch.Inserts)
			if err != nil {
				return err
			}

			deleted, err := tx.DeleteLikes(ctx, batch.Deletes)
			if err != nil {
				return err
			}

			result.Inserted, result.Deleted = int64(len(inserted)), int64(len(deleted))
			result.Counts = applied(inserted, deleted)

			return tx.AdjustCounts(ctx, result.Counts)
		})
		if err != nil {
			logger.Error("failed to apply slice", zap.Error(err))

			return result, fmt.Errorf("apply slice %s: %w", slice, err)
		}

		if !maps.Equal(result.Counts, batch.Counts) {
			logger.Warn("slice entries already reflected in the durable store",
				zap.Int("inserts", len(batch.Inserts)),
				zap.Int64("inserted", result.Inserted),
				zap.Int("deletes", len(batch.Deletes)),
				zap.Int64("deleted", result.Deleted),
			)
		}
	}

	s.deleteAsync(slice, logger)

	logger.Info("slice synced",
		zap.Int64("inserted", result.Inserted),
		zap.Int64("deleted", result.Deleted),
		zap.Int("items", len(result.Counts)),
		zap.Int("skipped", result.Skipped),
	)

	s.notify(ctx, result, logger)

	return result, nil
}

// applied derives the counter adjustment from the rows the transaction
// actually changed, so replaying a slice whose delete was lost cannot move a
// counter twice. It can differ from the slice's net delta: a decrement whose
// like sits in an earlier slice still waiting for compensation deletes no
// row and moves no counter, and replaying that earlier slice afterwards
// inserts the row the decrement meant to remove.
func applied(inserted, deleted []likes.Pair) likes.AggregateCount {
	counts := make(likes.AggregateCount)

	for _, pair := range inserted {
		counts[pair.ItemID]++
	}

	for _, pair := range deleted {
		counts[pair.ItemID]--
	}

	for item, delta := range counts {
		if delta == 0 {
			delete(counts, item)
		}
	}

	return counts
}

func (s *Syncer) deleteAsync(slice likes.TimeSlice, logger *zap.Logger) {
	s.deletes.Add(1)

	go func() {
		defer s.deletes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), defaultDeleteTimeout)
		defer cancel()

		if err := s.log.Delete(ctx, slice); err != nil {
			logger.Warn("failed to delete synced slice", zap.Error(err))
		}
	}()
}

func (s *Syncer) notify(ctx context.Context, result Result, logger *zap.Logger) {
	deltas := make(map[string]int64, len(result.Counts))
	for item, delta := range result.Counts {
		if delta != 0 {
			deltas[strconv.FormatInt(int64(item), 10)] = delta
		}
	}

	err := s.publish(ctx, &events.SliceSyncedEvent{
		RunID:    result.RunID,
		Slice:    string(result.Slice),
		Inserted: result.Inserted,
		Deleted:  result.Deleted,
		Deltas:   deltas,
		SyncedAt: s.now().UTC(),
	})
	if err != nil {
		logger.Warn("failed to publish slice synced event", zap.Error(err))
	}
}

// Wait blocks until every pending slice deletion has finished.
func (s *Syncer) Wait() {
	s.deletes.Wait()
}

// Shutdown waits for pending slice deletions.
func (s *Syncer) Shutdown() error {
	s.Wait()

	return nil
}
