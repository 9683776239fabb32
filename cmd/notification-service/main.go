// cmd/notification-service/main.go
package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/bootstrap"
	"sportshub/internal/pkg/database"
	"sportshub/internal/pkg/httpclient"
	"sportshub/internal/pkg/mq"
	"sportshub/internal/pkg/redis"
	"sportshub/internal/pkg/session"
	"sportshub/internal/service/notification/application"
	"sportshub/internal/service/notification/domain"
	"sportshub/internal/service/notification/infrastructure"
	"sportshub/internal/service/notification/infrastructure/adapter"
	"sportshub/internal/service/notification/interfaces"
	"sportshub/internal/service/notification/port"
)

const serviceName = "notification-service"

func rulesFrom(cfg []bootstrap.ChannelRule) []domain.ChannelRule {
	rules := make([]domain.ChannelRule, 0, len(cfg))
	for _, r := range cfg {
		rules = append(rules, domain.ChannelRule{Channel: domain.Channel(r.Channel), Expr: r.Expr})
	}
	return rules
}

func main() {
	cfg := bootstrap.Init(serviceName)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8084,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) ([]bootstrap.Worker, func()) {
			tracer := otel.Tracer(serviceName)
			nc := appCtx.Config.App.Notification

			db, err := database.NewMySQL(cfg.Infra.Mysql)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := infrastructure.AutoMigrate(db); err != nil {
				log.Fatal().Err(err).Msg("failed to migrate notification tables")
			}

			router, err := domain.NewChannelRouter(rulesFrom(nc.Rules))
			if err != nil {
				log.Fatal().Err(err).Msg("invalid notification channel rules")
			}

			// 实时渠道依赖 Redis 会话目录，不可用时只落库
			var realtime port.RealtimePublisher
			redisClient, err := redis.NewClient(context.Background(), cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
			if err != nil {
				log.Warn().Err(err).Msg("⚠️ redis unavailable, realtime delivery disabled")
			} else {
				realtime = adapter.NewRealtimeRedisAdapter(session.NewManager(redisClient.GetClient(), appCtx.Config.App.Gateway.SessionTTL))
			}

			var push port.PushSender
			if nc.PushWebhookURL != "" {
				push = adapter.NewPushWebhookAdapter(httpclient.NewClient(tracer), nc.PushWebhookURL)
			}

			service := application.NewDispatchService(infrastructure.NewGormNotificationRepository(db), router, realtime, push, tracer, nc.DefaultTTL)
			interfaces.NewNotificationHandler(service, auth.NewVerifier(cfg.Auth.JWTSecret).Require()).RegisterRoutes(appCtx.Mux)

			dltWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, nc.DeadLetterTopic)
			consumer := mq.NewConsumer(nc.Topic,
				mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, nc.Topic, nc.ConsumerGroup),
				interfaces.NewEventHandler(service),
				mq.NewFailureHandler(dltWriter),
			)
			dltConsumer := mq.NewConsumer(nc.DeadLetterTopic,
				mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, nc.DeadLetterTopic, nc.ConsumerGroup+"-dlt"),
				interfaces.LogDeadLetter,
				nil,
			)
			cleanup := interfaces.NewCleanupWorker(service, nc.CleanupInterval)

			return []bootstrap.Worker{consumer.Run, dltConsumer.Run, cleanup.Run}, func() {
				if err := dltWriter.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close DLT writer")
				}
				if redisClient != nil {
					redisClient.Close()
				}
				database.Close(db)
			}
		},
	})
}
