package store

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/serroba/likes-go/internal/likes"
)

// MemoryStore is an in-process fast store with the same toggle semantics as
// RedisStore. Every operation runs under one lock.
type MemoryStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory fast store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hashes: make(map[string]map[string]string)}
}

func (m *MemoryStore) Like(_ context.Context, slice likes.TimeSlice, pair likes.Pair, rowID string) (likes.ToggleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userKey := likes.UserLikeKey(pair.UserID)

	current, ok := m.hashes[userKey][pair.ItemID.String()]
	if ok && current != likes.Tombstone {
		return likes.Fail, nil
	}

	m.incr(slice.Key(), pair.Field(), 1)
	m.set(userKey, pair.ItemID.String(), rowID)

	return likes.Success, nil
}

func (m *MemoryStore) Unlike(_ context.Context, slice likes.TimeSlice, pair likes.Pair) (likes.ToggleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userKey := likes.UserLikeKey(pair.UserID)

	current, ok := m.hashes[userKey][pair.ItemID.String()]
	if !ok || current == likes.Tombstone {
		return likes.Fail, nil
	}

	m.incr(slice.Key(), pair.Field(), -1)
	m.del(userKey, pair.ItemID.String())

	return likes.Success, nil
}

func (m *MemoryStore) Drain(_ context.Context, slice likes.TimeSlice) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.hashes[slice.Key()]))
	for field, value := range m.hashes[slice.Key()] {
		out[field] = value
	}

	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, slice likes.TimeSlice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.hashes, slice.Key())

	return nil
}

func (m *MemoryStore) Slices(_ context.Context) ([]likes.TimeSlice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []likes.TimeSlice

	for key := range m.hashes {
		if slice, ok := likes.SliceFromKey(key); ok {
			out = append(out, slice)
		}
	}

	slices.Sort(out)

	return out, nil
}

func (m *MemoryStore) HashGet(_ context.Context, key, field string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.hashes[key][field]

	return value, ok, nil
}

func (m *MemoryStore) SetMembership(_ context.Context, hashKey, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.set(hashKey, field, value)

	return nil
}

func (m *MemoryStore) FillMembership(_ context.Context, hashKey, field, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.hashes[hashKey][field]; ok {
		return false, nil
	}

	m.set(hashKey, field, value)

	return true, nil
}

// SetField writes a raw field, bypassing the toggle checks.
func (m *MemoryStore) SetField(key, field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.set(key, field, value)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryStore) set(key, field, value string) {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}

	h[field] = value
}

func (m *MemoryStore) del(key, field string) {
	delete(m.hashes[key], field)

	if len(m.hashes[key]) == 0 {
		delete(m.hashes, key)
	}
}

// incr mirrors HINCRBY; a missing field counts from zero.
func (m *MemoryStore) incr(key, field string, by int64) {
	n, _ := strconv.ParseInt(strings.TrimSpace(m.hashes[key][field]), 10, 64)

	m.set(key, field, strconv.FormatInt(n+by, 10))
}

var (
	_ likes.EventLog   = (*MemoryStore)(nil)
	_ likes.Membership = (*MemoryStore)(nil)
)
