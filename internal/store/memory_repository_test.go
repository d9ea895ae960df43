package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/likes-go/internal/likes"
	"github.com/serroba/likes-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises the durable store semantics. newRepo must
// return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) likes.Repository) {
	t.Helper()

	ctx := context.Background()
	liked := likes.Pair{UserID: 1, ItemID: 5}

	t.Run("insert ignores existing rows", func(t *testing.T) {
		repo := newRepo(t)

		var inserted [][]likes.Pair

		for range 2 {
			err := repo.WithinTx(ctx, func(ctx context.Context, tx likes.Tx) error {
				pairs, err := tx.InsertLikes(ctx, []likes.Like{likes.NewLike(liked)})
				inserted = append(inserted, pairs)

				return err
			})
			require.NoError(t, err)
		}

		require.Len(t, inserted, 2)
		assert.Equal(t, []likes.Pair{liked}, inserted[0])
		assert.Empty(t, inserted[1])

		exists, err := repo.Exists(ctx, liked)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("delete reports affected rows", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.WithinTx(ctx, func(ctx context.Context, tx likes.Tx) error {
			_, err := tx.InsertLikes(ctx, []likes.Like{likes.NewLike(liked)})

			return err
		}))

		var deleted []likes.Pair

		err := repo.WithinTx(ctx, func(ctx context.Context, tx likes.Tx) error {
			var err error
			deleted, err = tx.DeleteLikes(ctx, []likes.Pair{liked, {UserID: 9, ItemID: 9}})

			return err
		})

		require.NoError(t, err)
		assert.Equal(t, []likes.Pair{liked}, deleted)

		exists, err := repo.Exists(ctx, liked)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("adjust counts accumulates signed deltas", func(t *testing.T) {
		repo := newRepo(t)

		for _, counts := range []likes.AggregateCount{{5: 2, 6: -1}, {5: 1, 7: 0}} {
			require.NoError(t, repo.WithinTx(ctx, func(ctx context.Context, tx likes.Tx) error {
				return tx.AdjustCounts(ctx, counts)
			}))
		}

		for item, want := range map[likes.ItemID]int64{5: 3, 6: -1, 7: 0, 8: 0} {
			got, err := repo.Count(ctx, item)
			require.NoError(t, err)
			assert.Equal(t, want, got, "item %d", item)
		}
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		repo := newRepo(t)
		boom := errors.New("boom")

		err := repo.WithinTx(ctx, func(ctx context.Context, tx likes.Tx) error {
			if _, err := tx.InsertLikes(ctx, []likes.Like{likes.NewLike(liked)}); err != nil {
				return err
			}

			if err := tx.AdjustCounts(ctx, likes.AggregateCount{5: 1}); err != nil {
				return err
			}

			return boom
		})

		require.ErrorIs(t, err, boom)

		exists, err := repo.Exists(ctx, liked)
		require.NoError(t, err)
		assert.False(t, exists)

		count, err := repo.Count(ctx, 5)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(_ *testing.T) likes.Repository {
		return store.NewMemoryRepository()
	})
}

func TestMemoryRepository_Rows(t *testing.T) {
	repo := store.NewMemoryRepository()
	require.NoError(t, repo.WithinTx(context.Background(), func(ctx context.Context, tx likes.Tx) error {
		_, err := tx.InsertLikes(ctx, []likes.Like{likes.NewLike(likes.Pair{UserID: 1, ItemID: 5})})

		return err
	}))

	rows := repo.Rows()

	require.Len(t, rows, 1)
	assert.Equal(t, likes.RowID(1, 5), rows[0].ID)
}
