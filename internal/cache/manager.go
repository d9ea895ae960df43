// Package cache composes a bounded in-process tier with the shared hash store,
// admitting entries to the local tier only for keys the hot key detector
// considers hot.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/serroba/likes-go/internal/hotkey"
	"go.uber.org/zap"
)

// HashStore is the remote tier: one hash map per key.
type HashStore interface {
	// HashGet returns the value of field in the hash at key and whether it exists.
	HashGet(ctx context.Context, key, field string) (string, bool, error)
}

// Config sizes the local tier.
type Config struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the local tier sizing used in production.
func DefaultConfig() Config {
	return Config{
		Size: 1000,
		TTL:  5 * time.Minute,
	}
}

// Manager is a two-tier cache over a HashStore.
type Manager struct {
	local    *expirable.LRU[string, string]
	remote   HashStore
	detector hotkey.TopK
	logger   *zap.Logger
}

// NewManager creates a tiered cache.
func NewManager(cfg Config, remote HashStore, detector hotkey.TopK, logger *zap.Logger) *Manager {
	return &Manager{
		local:    expirable.NewLRU[string, string](cfg.Size, nil, cfg.TTL),
		remote:   remote,
		detector: detector,
		logger:   logger,
	}
}

// CompositeKey is the local tier key of a hash field.
func CompositeKey(hashKey, field string) string {
	return hashKey + ":" + field
}

// Get returns the value of field in hashKey, checking the local tier first.
// Remote hits are promoted to the local tier once the key is hot.
func (m *Manager) Get(ctx context.Context, hashKey, field string) (string, bool, error) {
	key := CompositeKey(hashKey, field)

	if value, ok := m.local.Get(key); ok {
		m.detector.Add(key, 1)

		return value, true, nil
	}

	value, found, err := m.remote.HashGet(ctx, hashKey, field)
	if err != nil {
		return "", false, err
	}

	if !found {
		return "", false, nil
	}

	if m.detector.Add(key, 1).Hot {
		m.local.Add(key, value)

		m.logger.Debug("promoted hot key to local cache", zap.String("key", key))
	}

	return value, true, nil
}

// PutIfPresent refreshes an entry already held by the local tier. It never
// admits a new entry.
func (m *Manager) PutIfPresent(hashKey, field, value string) {
	key := CompositeKey(hashKey, field)

	if m.local.Contains(key) {
		m.local.Add(key, value)
	}
}

// Invalidate drops a field from the local tier.
func (m *Manager) Invalidate(hashKey, field string) {
	m.evict(CompositeKey(hashKey, field))
}

// Local returns the local tier's value for a field without touching the
// remote tier or the detector.
func (m *Manager) Local(hashKey, field string) (string, bool) {
	return m.local.Peek(CompositeKey(hashKey, field))
}

// HotKeys returns the detector's current hot set.
func (m *Manager) HotKeys() []hotkey.Item {
	return m.detector.List()
}

func (m *Manager) evict(key string) bool {
	return m.local.Remove(key)
}
