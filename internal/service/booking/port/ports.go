// internal/service/booking/port/ports.go
package port

import (
	"context"

	"sportshub/internal/pkg/events"
	"sportshub/internal/pkg/listing"
)

// Notifier 把状态变更通知投递给通知服务。投递失败不影响已提交的业务事务。
type Notifier interface {
	Publish(ctx context.Context, n events.Notification) error
}

// ResourceDirectory 解析父资源的所有者，由目录服务提供
type ResourceDirectory interface {
	OwnerOf(ctx context.Context, ref listing.Ref) (string, error)
}

// Throttle 限制单个用户提交预约请求的频率
type Throttle interface {
	Allow(ctx context.Context, userID string) (bool, error)
}
