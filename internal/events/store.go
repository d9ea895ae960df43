package events

import "context"

// Store persists consumed events.
type Store interface {
	SaveHotKeyExpelled(ctx context.Context, event *HotKeyExpelledEvent) error
	SaveSliceSynced(ctx context.Context, event *SliceSyncedEvent) error
}
