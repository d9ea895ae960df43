package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/likes-go/internal/cache"
	"github.com/serroba/likes-go/internal/handlers"
	"github.com/serroba/likes-go/internal/health"
	"github.com/serroba/likes-go/internal/likes"
	"github.com/serroba/likes-go/internal/middleware"
	"github.com/serroba/likes-go/internal/store"
	"go.uber.org/zap"
)

// HTTPPackage provides the router and the API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		repo := do.MustInvoke[*store.PostgresRepository](i)

		api := humachi.New(router, huma.DefaultConfig("Likes", "1.0.0"))
		api.UseMiddleware(middleware.CurrentUser(api))

		handlers.RegisterRoutes(api, handlers.NewLikeHandler(
			do.MustInvoke[likes.Service](i),
			repo,
			do.MustInvoke[*cache.Manager](i),
			logger.Named("http"),
		))

		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[*store.RedisStore](i), repo))

		return api, nil
	})
}
