// internal/service/promotion/port/ports.go
package port

import (
	"context"

	"sportshub/internal/pkg/events"
)

// Notifier 把推广生效通知投递给通知服务
type Notifier interface {
	Publish(ctx context.Context, n events.Notification) error
}
