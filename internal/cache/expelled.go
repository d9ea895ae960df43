package cache

import (
	"context"
	"time"

	"github.com/serroba/likes-go/internal/events"
	"github.com/serroba/likes-go/internal/hotkey"
	"github.com/serroba/likes-go/internal/messaging"
	"go.uber.org/zap"
)

// ExpelledWatcher drops keys displaced from the hot set out of the local tier.
type ExpelledWatcher struct {
	manager  *Manager
	expelled <-chan hotkey.Item
	publish  messaging.Publish[events.HotKeyExpelledEvent]
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewExpelledWatcher creates a watcher over the manager's detector.
func NewExpelledWatcher(
	manager *Manager,
	publish messaging.Publish[events.HotKeyExpelledEvent],
	logger *zap.Logger,
) *ExpelledWatcher {
	return &ExpelledWatcher{
		manager:  manager,
		expelled: manager.detector.Expelled(),
		publish:  publish,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start drains expelled notifications in the background.
func (w *ExpelledWatcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	go w.loop(ctx)

	return nil
}

func (w *ExpelledWatcher) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-w.expelled:
			if !ok {
				return
			}

			w.handle(ctx, item)
		}
	}
}

func (w *ExpelledWatcher) handle(ctx context.Context, item hotkey.Item) {
	removed := w.manager.evict(item.Key)

	w.logger.Debug("hot key expelled",
		zap.String("key", item.Key),
		zap.Uint32("count", item.Count),
		zap.Bool("evicted", removed),
	)

	err := w.publish(ctx, &events.HotKeyExpelledEvent{
		Key:        item.Key,
		Count:      item.Count,
		ExpelledAt: time.Now().UTC(),
	})
	if err != nil {
		w.logger.Warn("failed to publish expelled key", zap.String("key", item.Key), zap.Error(err))
	}
}

// Shutdown stops the watcher.
func (w *ExpelledWatcher) Shutdown() error {
	if w.cancel == nil {
		return nil
	}

	w.cancel()
	<-w.done

	return nil
}

// FadingJob periodically halves the detector's counters so old traffic ages out.
type FadingJob struct {
	detector hotkey.TopK
}

// NewFadingJob creates the fading job.
func NewFadingJob(detector hotkey.TopK) *FadingJob {
	return &FadingJob{detector: detector}
}

func (j *FadingJob) Name() string { return "hotkey-fading" }

func (j *FadingJob) Run(_ context.Context) error {
	j.detector.Fading()

	return nil
}
