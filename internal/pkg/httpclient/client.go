// internal/pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client 是一个可追踪的、可注入的HTTP客户端
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
}

// NewClient 创建一个新的客户端实例。超时由每次请求的 context 控制。
func NewClient(tracer trace.Tracer) *Client {
	return &Client{
		Tracer: tracer,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// StatusError 表示下游返回了非 2xx 状态码
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// envelope 与下游服务统一响应结构的 data 字段对应
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GetJSON 发起 GET 请求，并把响应 envelope 中的 data 解码到 out
func (c *Client) GetJSON(ctx context.Context, serviceURL string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, serviceURL, params, nil, out)
}

// PostJSON 以 JSON 发送 body，out 为 nil 时忽略响应体
func (c *Client) PostJSON(ctx context.Context, serviceURL string, body, out any) error {
	return c.do(ctx, http.MethodPost, serviceURL, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, serviceURL string, params url.Values, body, out any) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return err
	}
	// 从 URL 中解析出服务名用于 Span
	spanName := fmt.Sprintf("call-%s", strings.Split(parsedURL.Host, ":")[0])

	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	downstreamURL := *parsedURL
	if len(params) > 0 {
		q := downstreamURL.Query()
		for key, values := range params {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		downstreamURL.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, downstreamURL.String(), reader)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	span.SetAttributes(
		attribute.String("http.url", downstreamURL.String()),
		attribute.String("http.method", method),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := &StatusError{URL: serviceURL, StatusCode: resp.StatusCode, Body: string(snippet)}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode response from %s: %w", serviceURL, err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode data from %s: %w", serviceURL, err)
	}
	return nil
}

// Discoverer 从注册中心选择一个健康实例，*nacos.Client 实现了它
type Discoverer interface {
	DiscoverServiceInstance(serviceName string) (string, int, error)
}

// Resolver 把逻辑服务名解析为 base URL：优先注册中心，其次静态地址
type Resolver struct {
	discoverer  Discoverer
	serviceName string
	fallback    string
}

// NewResolver 的 discoverer 可以为 nil
func NewResolver(discoverer Discoverer, serviceName, fallback string) *Resolver {
	return &Resolver{discoverer: discoverer, serviceName: serviceName, fallback: strings.TrimRight(fallback, "/")}
}

func (r *Resolver) BaseURL() (string, error) {
	if r.discoverer != nil && r.serviceName != "" {
		ip, port, err := r.discoverer.DiscoverServiceInstance(r.serviceName)
		if err == nil {
			return "http://" + ip + ":" + strconv.Itoa(port), nil
		}
		if r.fallback == "" {
			return "", err
		}
	}
	if r.fallback == "" {
		return "", fmt.Errorf("no address configured for service %q", r.serviceName)
	}
	return r.fallback, nil
}
