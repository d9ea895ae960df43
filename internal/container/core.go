package container

import (
	"fmt"

	"github.com/samber/do"
	"github.com/serroba/likes-go/internal/cache"
	"github.com/serroba/likes-go/internal/config"
	"github.com/serroba/likes-go/internal/events"
	"github.com/serroba/likes-go/internal/hotkey"
	"github.com/serroba/likes-go/internal/jobs"
	"github.com/serroba/likes-go/internal/likes"
	"github.com/serroba/likes-go/internal/messaging"
	"github.com/serroba/likes-go/internal/store"
	"github.com/serroba/likes-go/internal/writebehind"
	"go.uber.org/zap"
)

// CachePackage provides the hot key detector, the tiered cache over the
// membership maps and the watcher evicting expelled keys.
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*hotkey.HeavyKeeper, error) {
		return hotkey.NewHeavyKeeper(do.MustInvoke[config.Tuning](i).HotKey)
	})

	do.Provide(injector, func(i *do.Injector) (*cache.Manager, error) {
		return cache.NewManager(
			do.MustInvoke[config.Tuning](i).Cache,
			do.MustInvoke[*store.RedisStore](i),
			do.MustInvoke[*hotkey.HeavyKeeper](i),
			do.MustInvoke[*zap.Logger](i).Named("cache"),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*cache.ExpelledWatcher, error) {
		return cache.NewExpelledWatcher(
			do.MustInvoke[*cache.Manager](i),
			do.MustInvoke[messaging.Publish[events.HotKeyExpelledEvent]](i),
			do.MustInvoke[*zap.Logger](i).Named("cache"),
		), nil
	})
}

// LikesPackage provides the toggle service selected by the mode option.
func LikesPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (likes.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i).Named("likes")
		fast := do.MustInvoke[*store.RedisStore](i)
		manager := do.MustInvoke[*cache.Manager](i)

		switch opts.Mode {
		case ModeBuffered:
			tuning := do.MustInvoke[config.Tuning](i)

			return likes.NewBufferedService(fast, manager, tuning.Sync.Granularity, nil, logger), nil
		case ModeDirect:
			return likes.NewDirectService(
				do.MustInvoke[*store.PostgresRepository](i), fast, manager, likes.NewUserLocks(0), logger,
			), nil
		default:
			return nil, fmt.Errorf("unknown mode %q", opts.Mode)
		}
	})
}

// WriteBehindPackage provides the sync and compensation jobs.
func WriteBehindPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*writebehind.Syncer, error) {
		return writebehind.NewSyncer(
			do.MustInvoke[*store.RedisStore](i),
			do.MustInvoke[*store.PostgresRepository](i),
			do.MustInvoke[config.Tuning](i).Sync,
			nil,
			do.MustInvoke[messaging.Publish[events.SliceSyncedEvent]](i),
			do.MustInvoke[*zap.Logger](i).Named("sync"),
		)
	})

	do.Provide(injector, func(i *do.Injector) (*writebehind.Compensator, error) {
		return writebehind.NewCompensator(
			do.MustInvoke[*store.RedisStore](i),
			do.MustInvoke[*writebehind.Syncer](i),
			do.MustInvoke[config.Tuning](i).Compensation,
			do.MustInvoke[*zap.Logger](i).Named("compensation"),
		), nil
	})
}

// BackgroundPackage provides the group of background workers: the expelled
// key watcher and, when enabled, the scheduled jobs. The write-behind jobs
// only run in buffered mode.
func BackgroundPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*jobs.Scheduler, error) {
		opts := do.MustInvoke[*Options](i)
		tuning := do.MustInvoke[config.Tuning](i)
		scheduler := jobs.NewScheduler(do.MustInvoke[*zap.Logger](i).Named("jobs"))

		fading := cache.NewFadingJob(do.MustInvoke[*hotkey.HeavyKeeper](i))
		if err := scheduler.Every(fading, tuning.Fading.Interval, false); err != nil {
			return nil, err
		}

		if opts.Mode != ModeBuffered {
			return scheduler, nil
		}

		syncer := do.MustInvoke[*writebehind.Syncer](i)
		if err := scheduler.Every(syncer, syncer.Interval(), false); err != nil {
			return nil, err
		}

		compensator := do.MustInvoke[*writebehind.Compensator](i)
		if err := scheduler.Every(compensator, compensator.Interval(), compensator.RunOnStart()); err != nil {
			return nil, err
		}

		return scheduler, nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.Group, error) {
		opts := do.MustInvoke[*Options](i)
		group := messaging.NewGroup(nil, do.MustInvoke[*zap.Logger](i).Named("background"))

		group.Add(do.MustInvoke[*cache.ExpelledWatcher](i))

		if opts.Jobs {
			group.Add(do.MustInvoke[*jobs.Scheduler](i))
		}

		return group, nil
	})
}
