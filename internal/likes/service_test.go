package likes_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/likes-go/internal/likes"
	"github.com/serroba/likes-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// membershipCache reads straight from the fast store and records refreshes.
type membershipCache struct {
	fast *store.MemoryStore
	mu   sync.Mutex
	puts map[string]string
}

func newMembershipCache(fast *store.MemoryStore) *membershipCache {
	return &membershipCache{fast: fast, puts: map[string]string{}}
}

func (c *membershipCache) Get(ctx context.Context, hashKey, field string) (string, bool, error) {
	return c.fast.HashGet(ctx, hashKey, field)
}

func (c *membershipCache) PutIfPresent(hashKey, field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.puts[hashKey+":"+field] = value
}

type failingLog struct {
	likes.EventLog
}

func (failingLog) Like(context.Context, likes.TimeSlice, likes.Pair, string) (likes.ToggleResult, error) {
	return likes.Fail, errors.New("connection reset")
}

func clockAt(label string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse(time.DateTime, "2026-10-18 "+label)

		return t
	}
}

func newBuffered(fast *store.MemoryStore, cache likes.MembershipCache) *likes.BufferedService {
	return likes.NewBufferedService(fast, cache, likes.DefaultGranularity, clockAt("10:15:27"), zap.NewNop())
}

func TestBufferedService_ConflictLaw(t *testing.T) {
	ctx := context.Background()
	fast := store.NewMemoryStore()
	service := newBuffered(fast, newMembershipCache(fast))

	require.NoError(t, service.Like(ctx, 1, 5))
	assert.ErrorIs(t, service.Like(ctx, 1, 5), likes.ErrAlreadyLiked)

	liked, err := service.HasLiked(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, service.Unlike(ctx, 1, 5))
	assert.ErrorIs(t, service.Unlike(ctx, 1, 5), likes.ErrNotLiked)

	liked, err = service.HasLiked(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, liked)

	fields, err := fast.Drain(ctx, "10:15:20")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1:5": "0"}, fields)
}

func TestBufferedService_RefreshesCache(t *testing.T) {
	ctx := context.Background()
	fast := store.NewMemoryStore()
	cache := newMembershipCache(fast)
	service := newBuffered(fast, cache)

	require.NoError(t, service.Like(ctx, 1, 5))
	assert.Equal(t, likes.RowID(1, 5).String(), cache.puts["like:user:1:5"])

	require.NoError(t, service.Unlike(ctx, 1, 5))
	assert.Equal(t, likes.Tombstone, cache.puts["like:user:1:5"])
}

func TestBufferedService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects missing item", func(t *testing.T) {
		fast := store.NewMemoryStore()
		service := newBuffered(fast, newMembershipCache(fast))

		assert.ErrorIs(t, service.Like(ctx, 1, 0), likes.ErrInvalidInput)
		assert.ErrorIs(t, service.Unlike(ctx, 1, 0), likes.ErrInvalidInput)

		_, err := service.HasLiked(ctx, 1, 0)
		assert.ErrorIs(t, err, likes.ErrInvalidInput)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		fast := store.NewMemoryStore()
		service := likes.NewBufferedService(
			failingLog{EventLog: fast}, newMembershipCache(fast), likes.DefaultGranularity, nil, zap.NewNop(),
		)

		err := service.Like(ctx, 1, 5)

		require.ErrorContains(t, err, "connection reset")
		assert.NotErrorIs(t, err, likes.ErrConflict)
	})
}

func TestBufferedService_ConcurrentLikesSucceedOnce(t *testing.T) {
	ctx := context.Background()
	fast := store.NewMemoryStore()
	service := newBuffered(fast, newMembershipCache(fast))

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if service.Like(ctx, 1, 5) == nil {
				successes.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
}

func newDirect(repo likes.Repository, fast *store.MemoryStore) *likes.DirectService {
	return likes.NewDirectService(repo, fast, newMembershipCache(fast), likes.NewUserLocks(0), zap.NewNop())
}

func TestDirectService_ConflictLaw(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	fast := store.NewMemoryStore()
	service := newDirect(repo, fast)

	require.NoError(t, service.Like(ctx, 1, 5))
	assert.ErrorIs(t, service.Like(ctx, 1, 5), likes.ErrAlreadyLiked)

	count, err := repo.Count(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	value, found, err := fast.HashGet(ctx, likes.UserLikeKey(1), "5")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, likes.RowID(1, 5).String(), value)

	require.NoError(t, service.Unlike(ctx, 1, 5))
	assert.ErrorIs(t, service.Unlike(ctx, 1, 5), likes.ErrNotLiked)

	count, err = repo.Count(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, count)

	value, _, err = fast.HashGet(ctx, likes.UserLikeKey(1), "5")
	require.NoError(t, err)
	assert.Equal(t, likes.Tombstone, value)
}

func TestDirectService_FillsMembershipOnMiss(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	fast := store.NewMemoryStore()
	require.NoError(t, repo.WithinTx(ctx, func(ctx context.Context, tx likes.Tx) error {
		_, err := tx.InsertLikes(ctx, []likes.Like{likes.NewLike(likes.Pair{UserID: 1, ItemID: 5})})

		return err
	}))

	service := newDirect(repo, fast)

	liked, err := service.HasLiked(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = service.HasLiked(ctx, 1, 6)
	require.NoError(t, err)
	assert.False(t, liked)

	value, _, err := fast.HashGet(ctx, likes.UserLikeKey(1), "5")
	require.NoError(t, err)
	assert.Equal(t, likes.RowID(1, 5).String(), value)

	value, _, err = fast.HashGet(ctx, likes.UserLikeKey(1), "6")
	require.NoError(t, err)
	assert.Equal(t, likes.Tombstone, value)
}

func TestDirectService_ConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepository()
	fast := store.NewMemoryStore()
	service := newDirect(repo, fast)

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_ = service.Like(ctx, 1, 5)
		}()

		go func() {
			defer wg.Done()

			_ = service.Unlike(ctx, 1, 5)
		}()
	}

	wg.Wait()

	exists, err := repo.Exists(ctx, likes.Pair{UserID: 1, ItemID: 5})
	require.NoError(t, err)

	count, err := repo.Count(ctx, 5)
	require.NoError(t, err)

	if exists {
		assert.Equal(t, int64(1), count)
	} else {
		assert.Zero(t, count)
	}
}

func TestUserLocks(t *testing.T) {
	locks := likes.NewUserLocks(4)

	var (
		wg      sync.WaitGroup
		counter int
	)

	for range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := locks.Lock(7)
			defer unlock()

			counter++
		}()
	}

	wg.Wait()

	assert.Equal(t, 100, counter)
}
