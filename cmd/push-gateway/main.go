// cmd/push-gateway/main.go
package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/bootstrap"
	"sportshub/internal/pkg/redis"
	"sportshub/internal/pkg/session"
	"sportshub/internal/service/realtime/application"
	"sportshub/internal/service/realtime/infrastructure"
	"sportshub/internal/service/realtime/interfaces"
)

const serviceName = "push-gateway"

func main() {
	cfg := bootstrap.Init(serviceName)
	nodeID := serviceName + "-" + uuid.New().String()[:8]

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8088,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) ([]bootstrap.Worker, func()) {
			gw := appCtx.Config.App.Gateway

			redisClient, err := redis.NewClient(context.Background(), cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
			if err != nil {
				log.Fatal().Err(err).Msg("push gateway requires redis")
			}
			sessions := session.NewManager(redisClient.GetClient(), gw.SessionTTL)

			gateway := application.NewGateway(infrastructure.NewHub(), sessions, nodeID, gw.HeartbeatTimeout)
			interfaces.NewWSHandler(gateway, auth.NewVerifier(cfg.Auth.JWTSecret)).RegisterRoutes(appCtx.Mux)
			log.Info().Str("node", nodeID).Msg("push gateway node ready")

			subscriber := interfaces.NewNodeSubscriber(sessions, gateway)
			sweeper := interfaces.NewSweeper(gateway, gw.SweepInterval)
			return []bootstrap.Worker{subscriber.Run, sweeper.Run}, func() {
				redisClient.Close()
			}
		},
	})
}
