// internal/service/notification/port/ports.go
package port

import (
	"context"

	"sportshub/internal/service/notification/domain"
)

// RealtimePublisher 把通知转发给接收方当前连接的网关节点。接收方不在线时 delivered=false。
type RealtimePublisher interface {
	Deliver(ctx context.Context, n *domain.Notification) (delivered bool, err error)
}

// PushSender 把通知发送到一个设备令牌
type PushSender interface {
	Send(ctx context.Context, token *domain.PushToken, n *domain.Notification) error
}
