// cmd/promotion-service/main.go
package main

import (
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/bootstrap"
	"sportshub/internal/pkg/database"
	"sportshub/internal/pkg/events"
	"sportshub/internal/pkg/lock"
	"sportshub/internal/pkg/mq"
	"sportshub/internal/pkg/zookeeper"
	"sportshub/internal/service/promotion/application"
	"sportshub/internal/service/promotion/domain"
	"sportshub/internal/service/promotion/infrastructure"
	"sportshub/internal/service/promotion/interfaces"
)

const serviceName = "promotion-service"

func plansFrom(cfg map[string]bootstrap.PlanConfig) domain.PlanCatalog {
	if len(cfg) == 0 {
		return domain.DefaultPlans()
	}
	plans := make(domain.PlanCatalog, len(cfg))
	for name, p := range cfg {
		plans[name] = domain.Plan{Name: name, PriorityValue: p.PriorityValue, Amount: p.Amount, DurationDays: p.DurationDays}
	}
	return plans
}

func main() {
	cfg := bootstrap.Init(serviceName)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8087,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) ([]bootstrap.Worker, func()) {
			tracer := otel.Tracer(serviceName)
			promo := appCtx.Config.App.Promotion

			db, err := database.NewMySQL(cfg.Infra.Mysql)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := infrastructure.AutoMigrate(db); err != nil {
				log.Fatal().Err(err).Msg("failed to migrate promotion tables")
			}

			// 多实例部署时用 ZooKeeper 串行化同一资源的支付，单实例退化为进程内锁
			var locker lock.Locker = lock.NewKeyedMutex()
			var zkConn *zookeeper.Conn
			if len(cfg.Infra.Zookeeper.Servers) > 0 {
				zkConn, err = zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
				if err != nil {
					log.Fatal().Err(err).Msg("failed to connect to zookeeper")
				}
				locker = zookeeper.NewLocker(zkConn)
			} else {
				log.Warn().Msg("⚠️ ZK_SERVERS not set, using in-process payment lock")
			}

			notifier := events.NewKafkaPublisher(mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.App.Notification.Topic))

			service := application.NewPromotionService(
				infrastructure.NewGormTransactionRepository(db), plansFrom(promo.Plans), locker, notifier, tracer,
			).WithLockTimeout(promo.LockTimeout)
			interfaces.NewPromotionHandler(service, auth.NewVerifier(cfg.Auth.JWTSecret).Require()).RegisterRoutes(appCtx.Mux)

			expiry := interfaces.NewExpiryWorker(service, promo.ExpiryInterval)
			return []bootstrap.Worker{expiry.Run}, func() {
				if err := notifier.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close kafka writer")
				}
				if zkConn != nil {
					zkConn.Close()
				}
				database.Close(db)
			}
		},
	})
}
