// internal/pkg/mq/consumer.go
package mq

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"sportshub/internal/pkg/logger"
)

// MessageReader 是 *kafka.Reader 的最小接口
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HandlerFunc 处理一条消息，返回错误时消息被移交 FailureHandler
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

// Consumer 是一个驱动适配器：拉取消息、恢复链路上下文、调用 handler、提交 offset。
type Consumer struct {
	name           string
	reader         MessageReader
	handle         HandlerFunc
	failureHandler *FailureHandler
}

func NewConsumer(name string, reader MessageReader, handle HandlerFunc, failureHandler *FailureHandler) *Consumer {
	return &Consumer{name: name, reader: reader, handle: handle, failureHandler: failureHandler}
}

// Run 阻塞直到 ctx 被取消。签名与 bootstrap.Worker 一致。
func (c *Consumer) Run(ctx context.Context) error {
	logger.Ctx(ctx).Info().Str("consumer", c.name).Msg("✅ Kafka consumer started.")
	defer func() {
		if err := c.reader.Close(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("consumer", c.name).Msg("failed to close kafka reader")
		}
		logger.Ctx(ctx).Info().Str("consumer", c.name).Msg("🛑 Kafka consumer stopped.")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Str("consumer", c.name).Msg("could not read message, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second): // 避免快速失败循环
			}
			continue
		}

		c.process(ctx, msg)

		// 无论成功或失败（已移交 DLT），都提交 offset
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Str("consumer", c.name).Msg("failed to commit message")
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	msgCtx := ExtractTraceContext(ctx, msg.Headers)
	if err := c.handle(msgCtx, msg); err != nil {
		if c.failureHandler != nil {
			c.failureHandler.Handle(msgCtx, msg, err)
			return
		}
		logger.Ctx(msgCtx).Error().Err(err).Str("consumer", c.name).Msg("message handling failed")
	}
}
