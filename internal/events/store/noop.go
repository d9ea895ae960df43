package store

import (
	"context"

	"github.com/serroba/likes-go/internal/events"
	"go.uber.org/zap"
)

// Noop is an events.Store that only logs what it receives.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a logging store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveHotKeyExpelled(_ context.Context, event *events.HotKeyExpelledEvent) error {
	n.logger.Info("hot key expelled",
		zap.String("key", event.Key),
		zap.Uint32("count", event.Count),
		zap.Time("expelledAt", event.ExpelledAt),
	)

	return nil
}

func (n *Noop) SaveSliceSynced(_ context.Context, event *events.SliceSyncedEvent) error {
	n.logger.Info("slice synced",
		zap.String("runId", event.RunID),
		zap.String("slice", event.Slice),
		zap.Int64("inserted", event.Inserted),
		zap.Int64("deleted", event.Deleted),
		zap.Int("items", len(event.Deltas)),
		zap.Time("syncedAt", event.SyncedAt),
	)

	return nil
}

var _ events.Store = (*Noop)(nil)
