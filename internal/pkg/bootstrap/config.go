// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构，按服务取用自己需要的部分。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
	Auth  AuthConfig  `yaml:"auth"`
}

type AppConfig struct {
	LogLevel       string             `yaml:"logLevel"`
	AllowedOrigins []string           `yaml:"allowedOrigins"`
	Promotion      PromotionConfig    `yaml:"promotion"`
	Search         SearchConfig       `yaml:"search"`
	Booking        BookingConfig      `yaml:"booking"`
	Notification   NotificationConfig `yaml:"notification"`
	Gateway        GatewayConfig      `yaml:"gateway"`
}

// PlanConfig 是推广套餐表的一行。所有服务必须读取同一份。
type PlanConfig struct {
	PriorityValue int     `yaml:"priorityValue"`
	Amount        float64 `yaml:"amount"`
	DurationDays  int     `yaml:"durationDays"`
}

type PromotionConfig struct {
	Plans          map[string]PlanConfig `yaml:"plans"`
	ExpiryInterval time.Duration         `yaml:"expiryInterval"`
	LockTimeout    time.Duration         `yaml:"lockTimeout"`
}

type SearchConfig struct {
	DefaultRadius float64 `yaml:"defaultRadius"`
	DefaultLimit  int     `yaml:"defaultLimit"`
	ScanBatch     int     `yaml:"scanBatch"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	RateBurst     int     `yaml:"rateBurst"`
	// TrustedProxies 是可信反向代理的 IP/CIDR，只有来自它们的 X-Forwarded-For 才参与限流识别
	TrustedProxies  []string `yaml:"trustedProxies"`
	PromotionLookup string   `yaml:"promotionLookup"` // 服务名，经 Nacos 发现；为空时使用 PromotionBaseURL
	PromotionURL    string   `yaml:"promotionBaseURL"`
}

type BookingConfig struct {
	RequestsPerWindow int           `yaml:"requestsPerWindow"`
	ThrottleWindow    time.Duration `yaml:"throttleWindow"`
	CatalogBaseURL    string        `yaml:"catalogBaseURL"`
}

// ChannelRule 是通知渠道的路由规则，Expr 为 CEL 表达式。
type ChannelRule struct {
	Channel string `yaml:"channel"`
	Expr    string `yaml:"expr"`
}

type NotificationConfig struct {
	Topic           string        `yaml:"topic"`
	DeadLetterTopic string        `yaml:"deadLetterTopic"`
	ConsumerGroup   string        `yaml:"consumerGroup"`
	Rules           []ChannelRule `yaml:"rules"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	PushWebhookURL  string        `yaml:"pushWebhookURL"`
	DefaultTTL      time.Duration `yaml:"defaultTTL"`
}

type GatewayConfig struct {
	HeartbeatTimeout time.Duration `yaml:"heartbeatTimeout"`
	SweepInterval    time.Duration `yaml:"sweepInterval"`
	SessionTTL       time.Duration `yaml:"sessionTTL"`
}

type InfraConfig struct {
	Mysql     MysqlConfig     `yaml:"mysql"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type MysqlConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sampleRatio"`
}

type ZookeeperConfig struct {
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"sessionTimeout"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
	DataID      string `yaml:"dataId"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

var current atomic.Pointer[Config]

// GetCurrentConfig 返回当前生效的配置。Nacos 热更新时会原子替换。
func GetCurrentConfig() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	c := DefaultConfig()
	return c
}

func setCurrentConfig(c *Config) {
	current.Store(c)
}

// DefaultConfig 返回本地开发可用的默认配置
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel: "info",
			Promotion: PromotionConfig{
				Plans: map[string]PlanConfig{
					"basic":    {PriorityValue: 10, Amount: 499, DurationDays: 7},
					"premium":  {PriorityValue: 50, Amount: 1499, DurationDays: 30},
					"platinum": {PriorityValue: 100, Amount: 2999, DurationDays: 90},
				},
				ExpiryInterval: time.Minute,
				LockTimeout:    10 * time.Second,
			},
			Search: SearchConfig{
				DefaultRadius:   5000,
				DefaultLimit:    20,
				ScanBatch:       500,
				RatePerSecond:   20,
				RateBurst:       40,
				PromotionLookup: "promotion-service",
				PromotionURL:    "http://localhost:8087",
			},
			Booking: BookingConfig{
				RequestsPerWindow: 10,
				ThrottleWindow:    time.Minute,
				CatalogBaseURL:    "http://localhost:8083",
			},
			Notification: NotificationConfig{
				Topic:           "notifications",
				DeadLetterTopic: "notifications-dlt",
				ConsumerGroup:   "notification-group",
				Rules: []ChannelRule{
					{Channel: "realtime", Expr: "true"},
					{Channel: "push", Expr: `notification.priority == "high" || notification.type in ["booking_confirmation", "booking_rejection"]`},
				},
				CleanupInterval: time.Hour,
				DefaultTTL:      30 * 24 * time.Hour,
			},
			Gateway: GatewayConfig{
				HeartbeatTimeout: 5 * time.Minute,
				SweepInterval:    30 * time.Second,
				SessionTTL:       10 * time.Minute,
			},
		},
		Infra: InfraConfig{
			Mysql: MysqlConfig{
				DSN:             "root:root@tcp(localhost:3306)/sportshub?parseTime=true&loc=UTC&charset=utf8mb4",
				MaxOpenConns:    50,
				MaxIdleConns:    10,
				ConnMaxLifetime: 30 * time.Minute,
			},
			Kafka:     KafkaConfig{Brokers: []string{"localhost:9092"}},
			Redis:     RedisConfig{Addr: "localhost:6379"},
			Jaeger:    JaegerConfig{Endpoint: "http://localhost:14268/api/traces", SampleRatio: 1},
			Zookeeper: ZookeeperConfig{SessionTimeout: 5 * time.Second},
			Nacos:     NacosConfig{Group: "DEFAULT_GROUP"},
		},
		Auth: AuthConfig{JWTSecret: "dev-secret"},
	}
}

// LoadConfig 读取 YAML 文件（不存在时使用默认值），再用环境变量覆盖。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := ParseConfig(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// 本地开发没有配置文件是允许的
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// ParseConfig 把 YAML 合并到 cfg 上，未出现的字段保留原值。
func ParseConfig(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("JAEGER_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Infra.Jaeger.SampleRatio = f
		}
	}
	if v := os.Getenv("ZK_SERVERS"); v != "" {
		cfg.Infra.Zookeeper.Servers = splitList(v)
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		cfg.Infra.Nacos.ServerAddrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		cfg.Infra.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		cfg.Infra.Nacos.Group = v
	}
	if v := os.Getenv("NACOS_CONFIG_DATA_ID"); v != "" {
		cfg.Infra.Nacos.DataID = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
