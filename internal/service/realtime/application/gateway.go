// internal/service/realtime/application/gateway.go
package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"sportshub/internal/pkg/logger"
	"sportshub/internal/pkg/session"
	"sportshub/internal/service/realtime/domain"
)

// SessionDirectory 是 *session.Manager 中网关需要的部分
type SessionDirectory interface {
	SetUserGateway(ctx context.Context, recipient, nodeID string) error
	RemoveUserGateway(ctx context.Context, recipient, nodeID string) error
}

// Gateway 把本节点的连接登记表与 Redis 会话目录保持一致
type Gateway struct {
	registry         domain.Registry
	sessions         SessionDirectory
	nodeID           string
	heartbeatTimeout time.Duration
}

func NewGateway(registry domain.Registry, sessions SessionDirectory, nodeID string, heartbeatTimeout time.Duration) *Gateway {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = 5 * time.Minute
	}
	return &Gateway{registry: registry, sessions: sessions, nodeID: nodeID, heartbeatTimeout: heartbeatTimeout}
}

func (g *Gateway) NodeID() string { return g.nodeID }

// Connect 登记连接并把接收方指向本节点
func (g *Gateway) Connect(ctx context.Context, key string, c domain.Conn) error {
	g.registry.Open(key, c)
	if err := g.sessions.SetUserGateway(ctx, key, g.nodeID); err != nil {
		g.registry.Close(key, c)
		return errors.Wrapf(err, "register session for %s", key)
	}
	logger.Ctx(ctx).Info().Str("recipient", key).Str("node", g.nodeID).Msg("🔌 client connected")
	return nil
}

// Heartbeat 刷新连接活跃时间和会话 TTL
func (g *Gateway) Heartbeat(ctx context.Context, key string, c domain.Conn) {
	g.registry.Touch(key, c)
	if err := g.sessions.SetUserGateway(ctx, key, g.nodeID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("recipient", key).Msg("failed to refresh gateway session")
	}
}

// Disconnect 在接收方最后一条连接断开时清理会话目录
func (g *Gateway) Disconnect(ctx context.Context, key string, c domain.Conn) {
	if !g.registry.Close(key, c) {
		return
	}
	if err := g.sessions.RemoveUserGateway(ctx, key, g.nodeID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("recipient", key).Msg("failed to remove gateway session")
	}
	logger.Ctx(ctx).Info().Str("recipient", key).Msg("client disconnected")
}

// Deliver 处理节点频道上的一条转发消息。接收方已不在本节点时丢弃。
func (g *Gateway) Deliver(ctx context.Context, raw []byte) error {
	var d session.Delivery
	if err := json.Unmarshal(raw, &d); err != nil {
		return errors.Wrap(err, "decode delivery")
	}
	if d.Recipient == "" || len(d.Payload) == 0 {
		return errors.New("delivery without recipient or payload")
	}
	if !g.registry.Send(d.Recipient, d.Payload) {
		logger.Ctx(ctx).Debug().Str("recipient", d.Recipient).Msg("recipient not connected to this node, dropping")
	}
	return nil
}

// Sweep 关闭超过心跳超时没有活动的连接
func (g *Gateway) Sweep(now time.Time) int {
	return g.registry.Sweep(now.Add(-g.heartbeatTimeout))
}
