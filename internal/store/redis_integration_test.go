//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/serroba/likes-go/internal/store"
	"github.com/serroba/likes-go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreIntegration(t *testing.T) {
	client := testutil.Redis(t)

	runFastStoreContract(t, func(t *testing.T) fastStore {
		testutil.Reset(t, client, nil)

		return store.NewRedisStore(client)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.NewRedisStore(client).Ping(context.Background()))
	})

	t.Run("slices ignores other keys", func(t *testing.T) {
		testutil.Reset(t, client, nil)
		require.NoError(t, client.Set(context.Background(), "like:user", "x", 0).Err())

		got, err := store.NewRedisStore(client).Slices(context.Background())

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
