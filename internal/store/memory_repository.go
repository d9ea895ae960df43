package store

import (
	"context"
	"maps"
	"sync"

	"github.com/serroba/likes-go/internal/likes"
)

// MemoryRepository is an in-process durable store. A transaction works on a
// copy of the state that replaces the original only when fn succeeds.
type MemoryRepository struct {
	mu     sync.Mutex
	rows   map[likes.Pair]likes.Like
	counts map[likes.ItemID]int64
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows:   make(map[likes.Pair]likes.Like),
		counts: make(map[likes.ItemID]int64),
	}
}

func (m *MemoryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx likes.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		rows:   maps.Clone(m.rows),
		counts: maps.Clone(m.counts),
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.rows = tx.rows
	m.counts = tx.counts

	return nil
}

func (m *MemoryRepository) Exists(_ context.Context, pair likes.Pair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.rows[pair]

	return ok, nil
}

func (m *MemoryRepository) Count(_ context.Context, item likes.ItemID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counts[item], nil
}

// Rows returns a snapshot of every stored like.
func (m *MemoryRepository) Rows() []likes.Like {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]likes.Like, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}

	return out
}

// Ping always succeeds.
func (m *MemoryRepository) Ping(_ context.Context) error {
	return nil
}

type memoryTx struct {
	rows   map[likes.Pair]likes.Like
	counts map[likes.ItemID]int64
}

func (t *memoryTx) InsertLikes(_ context.Context, rows []likes.Like) ([]likes.Pair, error) {
	var inserted []likes.Pair

	for _, row := range rows {
		pair := likes.Pair{UserID: row.UserID, ItemID: row.ItemID}
		if _, ok := t.rows[pair]; ok {
			continue
		}

		t.rows[pair] = row
		inserted = append(inserted, pair)
	}

	return inserted, nil
}

func (t *memoryTx) DeleteLikes(_ context.Context, pairs []likes.Pair) ([]likes.Pair, error) {
	var deleted []likes.Pair

	for _, pair := range pairs {
		if _, ok := t.rows[pair]; ok {
			delete(t.rows, pair)
			deleted = append(deleted, pair)
		}
	}

	return deleted, nil
}

func (t *memoryTx) AdjustCounts(_ context.Context, counts likes.AggregateCount) error {
	for item, delta := range counts {
		if delta != 0 {
			t.counts[item] += delta
		}
	}

	return nil
}

var _ likes.Repository = (*MemoryRepository)(nil)
