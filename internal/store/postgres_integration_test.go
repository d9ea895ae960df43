//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/serroba/likes-go/internal/likes"
	"github.com/serroba/likes-go/internal/store"
	"github.com/serroba/likes-go/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPostgresRepositoryIntegration(t *testing.T) {
	pool := testutil.Postgres(t)

	runRepositoryContract(t, func(t *testing.T) likes.Repository {
		testutil.Reset(t, nil, pool)

		return store.NewPostgresRepository(pool)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.NewPostgresRepository(pool).Ping(context.Background()))
	})
}
