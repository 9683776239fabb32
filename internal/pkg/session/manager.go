// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:gateway:"
	nodeChannelFmt   = "gateway:node:%s"
)

// Manager 维护 "接收者 -> 推送网关节点" 的目录，并提供节点间的 pub/sub 通道。
type Manager struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewManager(rdb redis.UniversalClient, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, ttl: ttl}
}

func sessionKey(recipient string) string { return sessionKeyPrefix + recipient }

// NodeChannel 返回网关节点订阅的频道名
func NodeChannel(nodeID string) string { return fmt.Sprintf(nodeChannelFmt, nodeID) }

// SetUserGateway 记录接收者连接在哪个网关节点上，心跳时重复调用以续期
func (m *Manager) SetUserGateway(ctx context.Context, recipient, nodeID string) error {
	return m.rdb.Set(ctx, sessionKey(recipient), nodeID, m.ttl).Err()
}

// GetUserGateway 返回接收者所在节点，离线时返回空字符串
func (m *Manager) GetUserGateway(ctx context.Context, recipient string) (string, error) {
	nodeID, err := m.rdb.Get(ctx, sessionKey(recipient)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return nodeID, err
}

// RemoveUserGateway 只删除仍指向本节点的会话，避免误删用户在其他节点的新连接
func (m *Manager) RemoveUserGateway(ctx context.Context, recipient, nodeID string) error {
	return removeIfOwner.Run(ctx, m.rdb, []string{sessionKey(recipient)}, nodeID).Err()
}

// Publish 把 payload 发送到某个网关节点
func (m *Manager) Publish(ctx context.Context, nodeID string, payload []byte) error {
	return m.rdb.Publish(ctx, NodeChannel(nodeID), payload).Err()
}

// Subscribe 订阅本节点频道，调用方负责 Close
func (m *Manager) Subscribe(ctx context.Context, nodeID string) *redis.PubSub {
	return m.rdb.Subscribe(ctx, NodeChannel(nodeID))
}

var removeIfOwner = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`)

// Delivery 是通过节点频道转发给网关的消息，Recipient 为 "类型:ID"
type Delivery struct {
	Recipient string          `json:"recipient"`
	Payload   json.RawMessage `json:"payload"`
}
