package writebehind_test

import (
	"testing"

	"github.com/serroba/likes-go/internal/likes"
	"github.com/serroba/likes-go/internal/writebehind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Run("splits inserts, deletes and counts", func(t *testing.T) {
		batch := writebehind.Aggregate(map[string]string{
			"1:5": "1",
			"1:6": "-1",
			"2:5": "1",
			"3:7": "0",
		})

		assert.ElementsMatch(t, []likes.Like{
			likes.NewLike(likes.Pair{UserID: 1, ItemID: 5}),
			likes.NewLike(likes.Pair{UserID: 2, ItemID: 5}),
		}, batch.Inserts)
		assert.Equal(t, []likes.Pair{{UserID: 1, ItemID: 6}}, batch.Deletes)
		assert.Equal(t, likes.AggregateCount{5: 2, 6: -1}, batch.Counts)
		assert.Empty(t, batch.Warnings)
	})

	t.Run("counts sum to increments minus decrements", func(t *testing.T) {
		fields := map[string]string{}
		increments, decrements := 0, 0

		for user := 1; user <= 40; user++ {
			switch user % 3 {
			case 0:
				fields[likes.Pair{UserID: likes.UserID(user), ItemID: 9}.Field()] = "1"
				increments++
			case 1:
				fields[likes.Pair{UserID: likes.UserID(user), ItemID: 9}.Field()] = "-1"
				decrements++
			default:
				fields[likes.Pair{UserID: likes.UserID(user), ItemID: 9}.Field()] = "0"
			}
		}

		batch := writebehind.Aggregate(fields)

		assert.Equal(t, int64(increments-decrements), batch.Counts[9])
		assert.Len(t, batch.Inserts, increments)
		assert.Len(t, batch.Deletes, decrements)
	})

	t.Run("skips malformed entries with warnings", func(t *testing.T) {
		batch := writebehind.Aggregate(map[string]string{
			"1:5":  "2",
			"oops": "1",
			"x:5":  "1",
			"2:5":  "1",
		})

		require.Len(t, batch.Warnings, 3)
		assert.Len(t, batch.Inserts, 1)
		assert.Equal(t, likes.AggregateCount{5: 1}, batch.Counts)
	})

	t.Run("noop only slice is empty", func(t *testing.T) {
		batch := writebehind.Aggregate(map[string]string{"1:5": "0"})

		assert.True(t, batch.Empty())
		assert.Empty(t, batch.Warnings)
	})
}
