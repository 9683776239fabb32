// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"sportshub/internal/pkg/httpclient"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/pkg/logger"
	"sportshub/internal/pkg/nacos"
	"sportshub/internal/pkg/tracing"
)

// Worker 是随服务一起启动的后台任务（Kafka 消费者、定时清理等）。
// ctx 在关停时被取消，返回 nil 表示正常退出。
type Worker func(ctx context.Context) error

type AppCtx struct {
	Mux    *http.ServeMux
	Nacos  *nacos.Client // 未配置 Nacos 时为 nil
	Config *Config
}

// Discoverer 返回服务发现客户端。未配置 Nacos 时返回 nil 接口，而不是包着 nil 指针的接口。
func (a AppCtx) Discoverer() httpclient.Discoverer {
	if a.Nacos == nil {
		return nil
	}
	return a.Nacos
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName string
	Port        int
	// RegisterHandlers 注册服务自己的路由，返回需要一并运行的后台任务和关停时的清理函数
	RegisterHandlers func(appCtx AppCtx) ([]Worker, func())
}

// Init 加载配置并初始化日志。必须在 StartService 之前调用。
func Init(serviceName string) *Config {
	cfg, err := LoadConfig(getEnv("CONFIG_FILE", "configs/config.yaml"))
	if err != nil {
		logger.Init(serviceName, "info")
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setCurrentConfig(cfg)
	logger.Init(serviceName, cfg.App.LogLevel)
	return cfg
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint, cfg.Infra.Jaeger.SampleRatio)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. Nacos 是可选的：本地开发不配置时直接跳过注册与远程配置
	var namingClient *nacos.Client
	var ip string
	if cfg.Infra.Nacos.ServerAddrs != "" {
		namingClient, err = nacos.NewNacosClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		watchRemoteConfig(namingClient, cfg.Infra.Nacos.DataID)
		cfg = GetCurrentConfig()

		ip, err = GetOutboundIP()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 3. 路由
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", promhttp.Handler())

	var workers []Worker
	cleanup := func() {}
	if info.RegisterHandlers != nil {
		ws, c := info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient, Config: cfg})
		workers = ws
		if c != nil {
			cleanup = c
		}
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(info.Port),
		Handler:           httpx.Chain(mux, httpx.CORS(cfg.App.AllowedOrigins)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		log.Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, w := range workers {
		w := w
		g.Go(func() error { return w(gctx) })
	}

	// 4. 阻塞直到收到退出信号或某个任务失败
	<-gctx.Done()
	log.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 按启动的逆序清理
	if namingClient != nil {
		if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			log.Error().Err(err).Msg("Error deregistering from Nacos")
		}
		namingClient.Close()
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down http server")
	} else {
		log.Info().Msg("HTTP server shut down.")
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
	}

	cleanup()

	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down tracer provider")
	} else {
		log.Info().Msg("Tracer provider shut down.")
	}

	log.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}

// watchRemoteConfig 从 Nacos 配置中心拉取配置并监听变更。
func watchRemoteConfig(c *nacos.Client, dataID string) {
	if dataID == "" {
		return
	}
	apply := func(data string) {
		next := *GetCurrentConfig()
		if err := ParseConfig([]byte(data), &next); err != nil {
			log.Error().Err(err).Str("dataId", dataID).Msg("ignoring invalid remote config")
			return
		}
		applyEnv(&next)
		setCurrentConfig(&next)
	}

	data, err := c.GetConfig(dataID)
	if err != nil {
		log.Warn().Err(err).Str("dataId", dataID).Msg("failed to fetch remote config, using local config")
	} else if data != "" {
		apply(data)
	}
	if err := c.ListenConfig(dataID, apply); err != nil {
		log.Warn().Err(err).Str("dataId", dataID).Msg("failed to listen remote config")
	}
}

// GetOutboundIP 通过一次 UDP "拨号" 获取本机对外的 IP，不会真正发包。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
