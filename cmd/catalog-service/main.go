// cmd/catalog-service/main.go
package main

import (
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/bootstrap"
	"sportshub/internal/pkg/database"
	"sportshub/internal/pkg/httpclient"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/service/catalog/application"
	"sportshub/internal/service/catalog/domain"
	"sportshub/internal/service/catalog/infrastructure"
	"sportshub/internal/service/catalog/infrastructure/adapter"
	"sportshub/internal/service/catalog/interfaces"
)

const serviceName = "catalog-service"

func main() {
	cfg := bootstrap.Init(serviceName)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) ([]bootstrap.Worker, func()) {
			tracer := otel.Tracer(serviceName)
			search := appCtx.Config.App.Search

			db, err := database.NewMySQL(cfg.Infra.Mysql)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := infrastructure.AutoMigrate(db); err != nil {
				log.Fatal().Err(err).Msg("failed to migrate listing tables")
			}

			boosts := adapter.NewPromotionBoostAdapter(
				httpclient.NewClient(tracer),
				httpclient.NewResolver(appCtx.Discoverer(), search.PromotionLookup, search.PromotionURL),
			)
			service := application.NewCatalogService(infrastructure.NewGormListingRepository(db), boosts, tracer, application.Options{
				Defaults:  domain.QueryDefaults{Radius: search.DefaultRadius, Limit: search.DefaultLimit},
				ScanBatch: search.ScanBatch,
			})

			var (
				limit   httpx.Middleware
				workers []bootstrap.Worker
			)
			if search.RatePerSecond > 0 {
				limiter, err := httpx.NewClientLimiter(search.RatePerSecond, search.RateBurst, search.TrustedProxies...)
				if err != nil {
					log.Fatal().Err(err).Msg("invalid search rate limit config")
				}
				limit = limiter.Middleware()
				workers = append(workers, limiter.Run)
			}
			interfaces.NewCatalogHandler(service, auth.NewVerifier(cfg.Auth.JWTSecret).Require(), limit).RegisterRoutes(appCtx.Mux)

			return workers, func() { database.Close(db) }
		},
	})
}
