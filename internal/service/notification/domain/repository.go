// internal/service/notification/domain/repository.go
package domain

import (
	"context"
	"time"
)

// ListFilter 是收件箱查询条件
type ListFilter struct {
	Recipient  Recipient
	UnreadOnly bool
	Offset     int
	Limit      int
	Now        time.Time
}

// NotificationRepository 是通知与推送令牌的持久化接口
type NotificationRepository interface {
	// Save 按 ID 幂等写入，已存在时返回 created=false
	Save(ctx context.Context, n *Notification) (created bool, err error)
	FindByID(ctx context.Context, id string) (*Notification, error)
	// List 返回未过期的通知，按创建时间倒序
	List(ctx context.Context, f ListFilter) ([]*Notification, int64, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// SaveToken 同一个 token 重复注册时更新其归属
	SaveToken(ctx context.Context, t *PushToken) error
	TokensFor(ctx context.Context, r Recipient) ([]*PushToken, error)
}
