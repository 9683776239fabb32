// internal/service/notification/infrastructure/adapter/realtime_redis_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"sportshub/internal/pkg/session"
	"sportshub/internal/service/notification/domain"
)

// SessionDirectory 是 *session.Manager 中实时投递需要的部分
type SessionDirectory interface {
	GetUserGateway(ctx context.Context, recipient string) (string, error)
	Publish(ctx context.Context, nodeID string, payload []byte) error
}

// RealtimeRedisAdapter 通过 Redis 会话目录找到接收方所在的网关节点，并发布到该节点的频道
type RealtimeRedisAdapter struct {
	sessions SessionDirectory
}

func NewRealtimeRedisAdapter(sessions SessionDirectory) *RealtimeRedisAdapter {
	return &RealtimeRedisAdapter{sessions: sessions}
}

// WireNotification 是推送到客户端的 JSON 结构
type WireNotification struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Priority  string            `json:"priority"`
	ActionURL string            `json:"actionUrl,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func toWire(n *domain.Notification) WireNotification {
	return WireNotification{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		ActionURL: n.ActionURL,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

func (a *RealtimeRedisAdapter) Deliver(ctx context.Context, n *domain.Notification) (bool, error) {
	key := n.Recipient.Key()
	nodeID, err := a.sessions.GetUserGateway(ctx, key)
	if err != nil {
		return false, errors.Wrap(err, "lookup gateway session")
	}
	if nodeID == "" {
		return false, nil
	}

	payload, err := json.Marshal(toWire(n))
	if err != nil {
		return false, err
	}
	msg, err := json.Marshal(session.Delivery{Recipient: key, Payload: payload})
	if err != nil {
		return false, err
	}
	if err := a.sessions.Publish(ctx, nodeID, msg); err != nil {
		return false, errors.Wrapf(err, "publish to gateway %s", nodeID)
	}
	return true, nil
}
