// internal/service/notification/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/events"
	"sportshub/internal/pkg/logger"
	"sportshub/internal/pkg/metrics"
	"sportshub/internal/service/notification/domain"
	"sportshub/internal/service/notification/port"
)

const maxPageSize = 100

// DispatchService 持久化通知并按渠道规则尽力投递
type DispatchService struct {
	repo       domain.NotificationRepository
	router     *domain.ChannelRouter
	realtime   port.RealtimePublisher
	push       port.PushSender
	tracer     trace.Tracer
	defaultTTL time.Duration
	now        func() time.Time
}

// NewDispatchService realtime 和 push 都可以为 nil，对应渠道会被跳过
func NewDispatchService(repo domain.NotificationRepository, router *domain.ChannelRouter, realtime port.RealtimePublisher, push port.PushSender, tracer trace.Tracer, defaultTTL time.Duration) *DispatchService {
	return &DispatchService{
		repo:       repo,
		router:     router,
		realtime:   realtime,
		push:       push,
		tracer:     tracer,
		defaultTTL: defaultTTL,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	if apperr.StatusCode(err) >= 500 {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Dispatch 先写库，写库是唯一的事实来源；之后的实时与推送渠道失败只记录，不影响结果。
// 同一个事件重复投递时不会重复推送。
func (s *DispatchService) Dispatch(ctx context.Context, e events.Notification) error {
	ctx, span := s.tracer.Start(ctx, "service.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("notification.id", e.EventID),
		attribute.String("notification.type", string(e.Type)),
	)

	n, err := domain.FromEvent(e, s.defaultTTL, s.now())
	if err != nil {
		return fail(span, err)
	}
	created, err := s.repo.Save(ctx, n)
	if err != nil {
		return fail(span, err)
	}
	if !created {
		span.AddEvent("duplicate event ignored")
		logger.Ctx(ctx).Info().Str("event_id", n.ID).Msg("duplicate notification event, skipping delivery")
		return nil
	}
	metrics.NotificationsDispatched.WithLabelValues("store", "ok").Inc()

	channels, err := s.router.Route(n)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("event_id", n.ID).Msg("channel rule evaluation failed")
	}
	for _, ch := range channels {
		switch ch {
		case domain.ChannelRealtime:
			s.deliverRealtime(ctx, n)
		case domain.ChannelPush:
			s.deliverPush(ctx, n)
		}
	}
	logger.Ctx(ctx).Info().Str("event_id", n.ID).Str("recipient", n.Recipient.Key()).
		Str("type", string(n.Type)).Msg("✅ notification dispatched")
	return nil
}

func (s *DispatchService) deliverRealtime(ctx context.Context, n *domain.Notification) {
	if s.realtime == nil {
		return
	}
	delivered, err := s.realtime.Deliver(ctx, n)
	switch {
	case err != nil:
		metrics.NotificationsDispatched.WithLabelValues("realtime", "error").Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("recipient", n.Recipient.Key()).Msg("realtime delivery failed")
	case delivered:
		metrics.NotificationsDispatched.WithLabelValues("realtime", "ok").Inc()
		trace.SpanFromContext(ctx).AddEvent("realtime delivered")
	default:
		metrics.NotificationsDispatched.WithLabelValues("realtime", "offline").Inc()
	}
}

func (s *DispatchService) deliverPush(ctx context.Context, n *domain.Notification) {
	if s.push == nil {
		return
	}
	tokens, err := s.repo.TokensFor(ctx, n.Recipient)
	if err != nil {
		metrics.NotificationsDispatched.WithLabelValues("push", "error").Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("recipient", n.Recipient.Key()).Msg("failed to load push tokens")
		return
	}
	for _, tok := range tokens {
		if err := s.push.Send(ctx, tok, n); err != nil {
			metrics.NotificationsDispatched.WithLabelValues("push", "error").Inc()
			logger.Ctx(ctx).Warn().Err(err).Str("platform", tok.Platform).Str("recipient", n.Recipient.Key()).
				Msg("push delivery failed")
			continue
		}
		metrics.NotificationsDispatched.WithLabelValues("push", "ok").Inc()
	}
}

// List 返回接收方未过期的通知，按创建时间倒序分页
func (s *DispatchService) List(ctx context.Context, r domain.Recipient, unreadOnly bool, page, limit int) ([]*domain.Notification, Page, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListNotifications")
	defer span.End()
	span.SetAttributes(attribute.String("recipient", r.Key()))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = 20
	}
	items, total, err := s.repo.List(ctx, domain.ListFilter{
		Recipient:  r,
		UnreadOnly: unreadOnly,
		Offset:     (page - 1) * limit,
		Limit:      limit,
		Now:        s.now(),
	})
	if err != nil {
		return nil, Page{}, fail(span, err)
	}
	return items, Page{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// MarkRead 是接收方对通知唯一能做的修改
func (s *DispatchService) MarkRead(ctx context.Context, id string, r domain.Recipient) (*domain.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "service.MarkRead")
	defer span.End()
	span.SetAttributes(attribute.String("notification.id", id))

	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	wasRead := n.IsRead
	if err := n.MarkRead(r, s.now()); err != nil {
		return nil, fail(span, err)
	}
	if !wasRead {
		if err := s.repo.MarkRead(ctx, id, *n.ReadAt); err != nil {
			return nil, fail(span, err)
		}
	}
	return n, nil
}

func (s *DispatchService) RegisterPushToken(ctx context.Context, req *RegisterPushTokenRequest) (*domain.PushToken, error) {
	ctx, span := s.tracer.Start(ctx, "service.RegisterPushToken")
	defer span.End()

	r, err := domain.NewRecipient(req.RecipientType, req.RecipientID)
	if err != nil {
		return nil, fail(span, err)
	}
	tok, err := domain.NewPushToken(r, req.Token, req.Platform, s.now())
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repo.SaveToken(ctx, tok); err != nil {
		return nil, fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("recipient", r.Key()).Str("platform", tok.Platform).Msg("push token registered")
	return tok, nil
}

// CleanupExpired 删除已过期的通知
func (s *DispatchService) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "service.CleanupExpired")
	defer span.End()

	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fail(span, err)
	}
	if n > 0 {
		logger.Ctx(ctx).Info().Int64("count", n).Msg("expired notifications removed")
	}
	return n, nil
}
