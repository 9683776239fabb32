// internal/pkg/httpx/middleware.go
package httpx

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/metrics"
)

// Middleware 是标准的 http.Handler 装饰器
type Middleware func(http.Handler) http.Handler

// Chain 按书写顺序套用中间件，第一个位于最外层。
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Handle 注册路由并自动附带请求计数与耗时指标，pattern 即指标的 route 标签。
func Handle(mux *http.ServeMux, pattern string, h http.Handler, mws ...Middleware) {
	mux.Handle(pattern, Chain(h, append([]Middleware{Instrument(pattern)}, mws...)...))
}

// HandleFunc 是 Handle 的函数版本
func HandleFunc(mux *http.ServeMux, pattern string, fn http.HandlerFunc, mws ...Middleware) {
	Handle(mux, pattern, fn, mws...)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap 供 http.ResponseController 使用
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack 让 websocket 升级可以穿过指标中间件
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Instrument 记录 Prometheus 请求指标。
func Instrument(route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			metrics.HTTPLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		})
	}
}

// CORS 使用 rs/cors 包装整个 mux。
func CORS(allowedOrigins []string) Middleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "traceparent", "baggage"},
		AllowCredentials: false,
	})
	return c.Handler
}

// ClientLimiter 按客户端 IP 做令牌桶限流。空闲的桶由 Run 定期清理，请求路径上不做遍历。
type ClientLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	trusted  []netip.Prefix
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter 创建限流器。trustedProxies 是可信反向代理的 IP 或 CIDR，
// 只有直连对端落在其中时才读取 X-Forwarded-For。
func NewClientLimiter(perSecond float64, burst int, trustedProxies ...string) (*ClientLimiter, error) {
	l := &ClientLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     10 * time.Minute,
	}
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindValidation, "invalid trusted proxy "+raw, err)
			}
			l.trusted = append(l.trusted, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "invalid trusted proxy "+raw, err)
		}
		l.trusted = append(l.trusted, p.Masked())
	}
	return l, nil
}

func (l *ClientLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// sweep 删除空闲超过 idle 的桶，返回删除数量
func (l *ClientLimiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, k)
			n++
		}
	}
	return n
}

// Run 是随服务启动的清理任务，ctx 取消时返回
func (l *ClientLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

// Middleware 返回限流中间件，超限时返回 429。
func (l *ClientLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(l.clientKey(r), time.Now()) {
				Fail(r.Context(), w, apperr.New(apperr.KindRateLimited, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey 取直连对端地址；对端是可信代理时，从 X-Forwarded-For 右侧找第一个不可信的地址
func (l *ClientLimiter) clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !l.isTrusted(host) {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !l.isTrusted(hop) {
			return hop
		}
	}
	return host
}

func (l *ClientLimiter) isTrusted(ip string) bool {
	if len(l.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
