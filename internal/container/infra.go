package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/likes-go/internal/config"
	"github.com/serroba/likes-go/internal/store"
	"go.uber.org/zap"
)

// shutdownFunc lets the injector release resources whose types have no
// Shutdown method.
type shutdownFunc func() error

func (f shutdownFunc) Shutdown() error { return f() }

// onShutdown registers fn to run on injector shutdown. Invoking the value
// records it so the injector shuts it down after its dependents.
func onShutdown(i *do.Injector, name string, fn func() error) {
	do.ProvideNamedValue(i, name, shutdownFunc(fn))
	_ = do.MustInvokeNamed[shutdownFunc](i, name)
}

// TuningPackage provides the tuning file, or the defaults when none is set.
func TuningPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (config.Tuning, error) {
		opts := do.MustInvoke[*Options](i)

		return config.Load(opts.Tuning)
	})
}

// RedisPackage provides the Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		onShutdown(i, "redis-closer", client.Close)

		return client, nil
	})
}

// PostgresPackage provides the connection pool, migrating the schema first
// when enabled.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.Migrate {
			if err := store.Migrate(opts.DatabaseURL, logger); err != nil {
				return nil, err
			}
		}

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		onShutdown(i, "postgres-closer", func() error {
			pool.Close()

			return nil
		})

		return pool, nil
	})
}

// StorePackage provides the fast and durable stores.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*store.RedisStore, error) {
		return store.NewRedisStore(do.MustInvoke[*redis.Client](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*store.PostgresRepository, error) {
		return store.NewPostgresRepository(do.MustInvoke[*pgxpool.Pool](i)), nil
	})
}
