// internal/service/notification/interfaces/kafka_handler.go
package interfaces

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"sportshub/internal/pkg/events"
	"sportshub/internal/pkg/logger"
	"sportshub/internal/pkg/mq"
	"sportshub/internal/service/notification/application"
)

// NewEventHandler 返回 notifications topic 的消息处理函数。
// 返回错误的消息会被 mq.Consumer 移交死信队列。
func NewEventHandler(service *application.DispatchService) mq.HandlerFunc {
	return func(ctx context.Context, msg kafka.Message) error {
		var e events.Notification
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			return errors.Wrap(err, "malformed notification event")
		}
		logger.Ctx(ctx).Debug().Str("event_id", e.EventID).Str("type", string(e.Type)).
			Int64("offset", msg.Offset).Msg("📩 notification event received")
		return service.Dispatch(ctx, e)
	}
}
