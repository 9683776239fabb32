// Package events 定义服务之间通过 Kafka 传递的通知事件。
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"sportshub/internal/pkg/logger"
	"sportshub/internal/pkg/mq"
)

// NotificationType 是通知的业务类型
type NotificationType string

const (
	TypeNewRequest          NotificationType = "new_request"
	TypeBookingConfirmation NotificationType = "booking_confirmation"
	TypeBookingRejection    NotificationType = "booking_rejection"
	TypeBookingCancellation NotificationType = "booking_cancellation"
	TypePromotionActivated  NotificationType = "promotion_activated"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification 是 notifications topic 上的消息体。EventID 用于消费端幂等。
type Notification struct {
	EventID       string            `json:"eventId"`
	RecipientType string            `json:"recipientType"`
	RecipientID   string            `json:"recipientId"`
	Type          NotificationType  `json:"type"`
	Title         string            `json:"title"`
	Message       string            `json:"message"`
	Priority      Priority          `json:"priority"`
	ActionURL     string            `json:"actionUrl,omitempty"`
	ExpiresAt     *time.Time        `json:"expiresAt,omitempty"`
	Data          map[string]string `json:"data,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// New 生成带事件 ID 的通知事件
func New(recipientType, recipientID string, typ NotificationType, title, message string) Notification {
	return Notification{
		EventID:       uuid.NewString(),
		RecipientType: recipientType,
		RecipientID:   recipientID,
		Type:          typ,
		Title:         title,
		Message:       message,
		Priority:      PriorityNormal,
		OccurredAt:    time.Now().UTC(),
	}
}

// KafkaPublisher 把通知事件写入 Kafka，以接收者为 key 保证同一接收者有序
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	if err := mq.ProduceMessage(ctx, p.writer, []byte(n.RecipientType+":"+n.RecipientID), payload); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("event_id", n.EventID).Str("type", string(n.Type)).
			Msg("failed to publish notification event")
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
