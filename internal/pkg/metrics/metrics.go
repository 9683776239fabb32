// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 所有服务共享的 Prometheus 指标。通过 /metrics 暴露 (promhttp.Handler)。
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportshub",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sportshub",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	SlotRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportshub",
		Subsystem: "booking",
		Name:      "slot_requests_total",
		Help:      "Slot request attempts by outcome.",
	}, []string{"outcome"})

	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportshub",
		Subsystem: "booking",
		Name:      "request_transitions_total",
		Help:      "Slot request state transitions by target status.",
	}, []string{"to"})

	PromotionPayments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportshub",
		Subsystem: "promotion",
		Name:      "payments_total",
		Help:      "Promotion payment attempts by outcome.",
	}, []string{"outcome"})

	PromotionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sportshub",
		Subsystem: "promotion",
		Name:      "expired_total",
		Help:      "Paid promotions whose stored status was corrected to expired.",
	})

	// NotificationPublishLost 统计业务事务已提交但通知事件没能写入 Kafka 的次数，这些通知不会进入收件箱
	NotificationPublishLost = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportshub",
		Subsystem: "notification",
		Name:      "publish_lost_total",
		Help:      "Notification events dropped after commit because the broker publish failed.",
	}, []string{"source", "type"})

	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sportshub",
		Subsystem: "notification",
		Name:      "dispatched_total",
		Help:      "Notification deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sportshub",
		Subsystem: "gateway",
		Name:      "ws_connections",
		Help:      "Live websocket connections held by this gateway node.",
	})

	WSSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sportshub",
		Subsystem: "gateway",
		Name:      "ws_swept_total",
		Help:      "Websocket connections closed by the heartbeat sweeper.",
	})
)
