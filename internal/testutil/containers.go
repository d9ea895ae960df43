//go:build integration

// Package testutil starts disposable Redis and PostgreSQL containers for
// integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/likes-go/internal/store"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// Redis starts a Redis container and returns a connected client. Both are
// released when the test ends.
func Redis(t testing.TB) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container not available: %v", err)
	}

	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}

	return client
}

// Postgres starts a PostgreSQL container, applies the schema and returns a
// pool. Both are released when the test ends.
func Postgres(t testing.TB) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("likes"),
		tcpostgres.WithUsername("likes"),
		tcpostgres.WithPassword("likes"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container not available: %v", err)
	}

	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	if err := store.Migrate(dsn, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres pool: %v", err)
	}

	t.Cleanup(pool.Close)

	return pool
}

// Reset empties the likes schema and the Redis keyspace.
func Reset(t testing.TB, client *redis.Client, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	if client != nil {
		if err := client.FlushDB(ctx).Err(); err != nil {
			t.Fatalf("flush redis: %v", err)
		}
	}

	if pool != nil {
		if _, err := pool.Exec(ctx, "TRUNCATE likes, items"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
	}
}
