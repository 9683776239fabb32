// internal/service/realtime/interfaces/ws_handler.go
package interfaces

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/pkg/logger"
	"sportshub/internal/service/realtime/application"
	"sportshub/internal/service/realtime/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// WSHandler 把 HTTP 升级为 WebSocket 并交给 Gateway 管理
type WSHandler struct {
	gateway  *application.Gateway
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewWSHandler(gateway *application.Gateway, verifier *auth.Verifier) *WSHandler {
	return &WSHandler{
		gateway:  gateway,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 跨域由令牌校验兜底
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	httpx.HandleFunc(mux, "GET /ws", h.serveWs)
}

// authenticate 浏览器无法给 WebSocket 设置请求头，允许用 token 查询参数
func (h *WSHandler) authenticate(r *http.Request) (auth.Actor, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return auth.Actor{}, apperr.New(apperr.KindUnauthorized, "missing token")
	}
	return h.verifier.Parse(token)
}

func (h *WSHandler) serveWs(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	q := r.URL.Query()
	key, err := domain.RecipientKey(q.Get("recipientType"), q.Get("recipientId"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	actor, err := h.authenticate(r)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	if actor.Role != auth.RoleAdmin && actor.ID != strings.TrimSpace(q.Get("recipientId")) {
		httpx.Fail(ctx, w, apperr.Forbidden("cannot subscribe to another recipient"))
		return
	}

	// Upgrade 失败时已经写回了错误响应
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// 连接的生命周期长于本次请求
	connCtx := context.WithoutCancel(ctx)
	c := newClient(conn)
	if err := h.gateway.Connect(connCtx, key, c); err != nil {
		logger.Ctx(connCtx).Error().Err(err).Str("recipient", key).Msg("failed to register connection")
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump(connCtx, h.gateway, key)
}

// client 是一条 WebSocket 连接，实现 domain.Conn
type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer)}
}

func (c *client) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close 关闭发送队列，writePump 随后发送 close 帧并断开连接
func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只处理心跳，客户端发来的消息本身被忽略
func (c *client) readPump(ctx context.Context, gateway *application.Gateway, key string) {
	defer func() {
		gateway.Disconnect(ctx, key, c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		gateway.Heartbeat(ctx, key, c)
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Ctx(ctx).Debug().Err(err).Str("recipient", key).Msg("websocket closed unexpectedly")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		gateway.Heartbeat(ctx, key, c)
	}
}
