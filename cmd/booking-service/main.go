// cmd/booking-service/main.go
package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/bootstrap"
	"sportshub/internal/pkg/database"
	"sportshub/internal/pkg/events"
	"sportshub/internal/pkg/httpclient"
	"sportshub/internal/pkg/mq"
	"sportshub/internal/pkg/redis"
	"sportshub/internal/service/booking/application"
	"sportshub/internal/service/booking/infrastructure"
	"sportshub/internal/service/booking/infrastructure/adapter"
	"sportshub/internal/service/booking/interfaces"
	"sportshub/internal/service/booking/port"
)

const (
	serviceName        = "booking-service"
	catalogServiceName = "catalog-service"
)

// main 是组装根：创建依赖、注册路由，其余交给 bootstrap
func main() {
	cfg := bootstrap.Init(serviceName)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8081,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) ([]bootstrap.Worker, func()) {
			tracer := otel.Tracer(serviceName)

			db, err := database.NewMySQL(cfg.Infra.Mysql)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := infrastructure.AutoMigrate(db); err != nil {
				log.Fatal().Err(err).Msg("failed to migrate booking tables")
			}

			kafkaWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.App.Notification.Topic)
			notifier := events.NewKafkaPublisher(kafkaWriter)

			// 限流是可选的：Redis 不可用时不限流
			var throttle port.Throttle
			redisClient, err := redis.NewClient(context.Background(), cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
			if err != nil {
				log.Warn().Err(err).Msg("⚠️ redis unavailable, booking throttle disabled")
			} else {
				t, err := adapter.NewThrottleRedisAdapter(redisClient, cfg.App.Booking.RequestsPerWindow, cfg.App.Booking.ThrottleWindow)
				if err != nil {
					log.Fatal().Err(err).Msg("failed to init booking throttle")
				}
				throttle = t
			}

			directory := adapter.NewCatalogDirectoryAdapter(
				httpclient.NewClient(tracer),
				httpclient.NewResolver(appCtx.Discoverer(), catalogServiceName, cfg.App.Booking.CatalogBaseURL),
			)

			service := application.NewBookingService(infrastructure.NewGormSlotRepository(db), directory, notifier, throttle, tracer)
			interfaces.NewBookingHandler(service, auth.NewVerifier(cfg.Auth.JWTSecret).Require()).RegisterRoutes(appCtx.Mux)

			return nil, func() {
				if err := notifier.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close kafka writer")
				}
				if redisClient != nil {
					redisClient.Close()
				}
				database.Close(db)
			}
		},
	})
}
