// Package events defines the notifications emitted by the likes service.
package events

import "time"

const (
	TopicHotKeyExpelled = "hotkey.expelled"
	TopicSliceSynced    = "likes.slice_synced"
)

// HotKeyExpelledEvent is emitted when a key is displaced from the hot set.
type HotKeyExpelledEvent struct {
	Key        string    `json:"key"`
	Count      uint32    `json:"count"`
	ExpelledAt time.Time `json:"expelledAt"`
}

// SliceSyncedEvent is emitted after a time slice has been folded into the
// durable store.
type SliceSyncedEvent struct {
	RunID    string           `json:"runId"`
	Slice    string           `json:"slice"`
	Inserted int64            `json:"inserted"`
	Deleted  int64            `json:"deleted"`
	Deltas   map[string]int64 `json:"deltas,omitempty"`
	SyncedAt time.Time        `json:"syncedAt"`
}
