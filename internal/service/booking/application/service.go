// internal/service/booking/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/events"
	"sportshub/internal/pkg/listing"
	"sportshub/internal/pkg/logger"
	"sportshub/internal/pkg/metrics"
	"sportshub/internal/service/booking/domain"
	"sportshub/internal/service/booking/port"
)

// BookingService 编排时段定义、预约请求与供给方处理的全部用例
type BookingService struct {
	repo      domain.SlotRepository
	directory port.ResourceDirectory
	notifier  port.Notifier
	throttle  port.Throttle
	tracer    trace.Tracer
	now       func() time.Time
}

// NewBookingService throttle 可以为 nil，表示不限流
func NewBookingService(repo domain.SlotRepository, directory port.ResourceDirectory, notifier port.Notifier, throttle port.Throttle, tracer trace.Tracer) *BookingService {
	return &BookingService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		throttle:  throttle,
		tracer:    tracer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	if apperr.StatusCode(err) >= 500 {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// DefineSlot 供给方在自己的场地/草坪/教练下创建时段
func (s *BookingService) DefineSlot(ctx context.Context, actorID string, req *DefineSlotRequest) (*domain.Slot, error) {
	ctx, span := s.tracer.Start(ctx, "service.DefineSlot")
	defer span.End()

	parent, err := listing.NewRef(req.ParentType, req.ParentID)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("slot.parent", parent.String()), attribute.String("actor.id", actorID))

	slot, err := domain.NewSlot(parent, actorID, req.StartTime, req.EndTime, req.Price)
	if err != nil {
		return nil, fail(span, err)
	}

	owner, err := s.directory.OwnerOf(ctx, parent)
	if err != nil {
		return nil, fail(span, err)
	}
	if owner != actorID {
		return nil, fail(span, domain.ErrNotParentOwner)
	}

	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, fail(span, err)
	}
	span.AddEvent("slot defined", trace.WithAttributes(attribute.String("slot.id", slot.ID)))
	logger.Ctx(ctx).Info().Str("slot_id", slot.ID).Str("parent", parent.String()).Msg("slot defined")
	return slot, nil
}

// BlockSlot 下架一个可预约时段。时段从不物理删除。
func (s *BookingService) BlockSlot(ctx context.Context, slotID, actorID string) (*domain.Slot, error) {
	ctx, span := s.tracer.Start(ctx, "service.BlockSlot")
	defer span.End()
	span.SetAttributes(attribute.String("slot.id", slotID), attribute.String("actor.id", actorID))

	slot, err := s.repo.FindSlot(ctx, slotID)
	if err != nil {
		return nil, fail(span, err)
	}
	if !slot.OwnedBy(actorID) {
		return nil, fail(span, domain.ErrNotSlotOwner)
	}
	if err := s.repo.BlockSlot(ctx, slotID); err != nil {
		return nil, fail(span, err)
	}
	slot.Status = domain.SlotBlocked
	slot.UpdatedAt = s.now()
	return slot, nil
}

func (s *BookingService) GetSlot(ctx context.Context, slotID string) (*domain.Slot, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetSlot")
	defer span.End()

	slot, err := s.repo.FindSlot(ctx, slotID)
	if err != nil {
		return nil, fail(span, err)
	}
	return slot, nil
}

func (s *BookingService) ListSlots(ctx context.Context, f domain.SlotFilter) ([]*domain.Slot, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListSlots")
	defer span.End()

	if !f.Parent.IsZero() {
		if err := f.Parent.Validate(listing.SlotParentKinds); err != nil {
			return nil, fail(span, err)
		}
	}
	slots, err := s.repo.ListSlots(ctx, f)
	if err != nil {
		return nil, fail(span, err)
	}
	return slots, nil
}

// RequestSlot 用户预约时段。时段在请求创建时即被锁定为 pending，
// 并发请求中只有一个能通过条件更新，其余得到 Conflict。
func (s *BookingService) RequestSlot(ctx context.Context, slotID, userID string, d domain.RequestDetails) (*domain.SlotRequest, error) {
	ctx, span := s.tracer.Start(ctx, "service.RequestSlot")
	defer span.End()
	span.SetAttributes(attribute.String("slot.id", slotID), attribute.String("user.id", userID))

	slot, err := s.repo.FindSlot(ctx, slotID)
	if err != nil {
		metrics.SlotRequests.WithLabelValues("not_found").Inc()
		return nil, fail(span, err)
	}

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, userID)
		if err != nil {
			// 限流器不可用时放行，预约本身仍有条件更新保护
			logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("booking throttle unavailable")
		} else if !ok {
			metrics.SlotRequests.WithLabelValues("throttled").Inc()
			return nil, fail(span, domain.ErrTooManyRequests)
		}
	}

	req, err := domain.NewSlotRequest(slot.ID, userID, d)
	if err != nil {
		return nil, fail(span, err)
	}

	if err := s.repo.ClaimSlot(ctx, req); err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			metrics.SlotRequests.WithLabelValues("conflict").Inc()
		}
		return nil, fail(span, err)
	}
	metrics.SlotRequests.WithLabelValues("created").Inc()
	span.AddEvent("slot claimed", trace.WithAttributes(attribute.String("request.id", req.ID)))
	logger.Ctx(ctx).Info().Str("slot_id", slot.ID).Str("request_id", req.ID).Msg("✅ slot request created, slot locked")

	n := events.New("supplier", slot.OwnerID, events.TypeNewRequest,
		"New booking request",
		fmt.Sprintf("A new request was made for your slot starting %s.", slot.StartTime.Format(time.RFC3339)))
	n.ActionURL = "/requests/" + req.ID
	n.Data = map[string]string{"slotId": slot.ID, "requestId": req.ID}
	s.notify(ctx, n)
	return req, nil
}

// RespondToRequest 供给方接受或拒绝一个待处理请求
func (s *BookingService) RespondToRequest(ctx context.Context, requestID, action, actorID string) (*domain.SlotRequest, error) {
	ctx, span := s.tracer.Start(ctx, "service.RespondToRequest")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("request.action", action),
		attribute.String("actor.id", actorID),
	)

	act, err := domain.ParseAction(action)
	if err != nil {
		return nil, fail(span, err)
	}
	req, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, fail(span, err)
	}
	if req.Status != domain.RequestPending {
		return nil, fail(span, domain.ErrRequestNotPending)
	}
	slot, err := s.repo.FindSlot(ctx, req.SlotID)
	if err != nil {
		return nil, fail(span, err)
	}
	if !slot.OwnedBy(actorID) {
		return nil, fail(span, domain.ErrNotSlotOwner)
	}

	res, err := req.Respond(act, actorID, s.now())
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repo.Resolve(ctx, res); err != nil {
		return nil, fail(span, err)
	}
	applyResolution(req, res)
	metrics.RequestTransitions.WithLabelValues(string(res.To)).Inc()
	span.AddEvent("request resolved", trace.WithAttributes(attribute.String("request.status", string(res.To))))
	logger.Ctx(ctx).Info().Str("request_id", req.ID).Str("status", string(res.To)).Msg("slot request resolved")

	var n events.Notification
	if act == domain.ActionAccept {
		n = events.New("user", req.UserID, events.TypeBookingConfirmation,
			"Booking confirmed",
			fmt.Sprintf("Your booking for %s has been confirmed.", slot.StartTime.Format(time.RFC3339)))
		n.Priority = events.PriorityHigh
	} else {
		n = events.New("user", req.UserID, events.TypeBookingRejection,
			"Booking declined",
			fmt.Sprintf("Your booking request for %s was declined.", slot.StartTime.Format(time.RFC3339)))
	}
	n.ActionURL = "/requests/" + req.ID
	n.Data = map[string]string{"slotId": slot.ID, "requestId": req.ID}
	s.notify(ctx, n)
	return req, nil
}

// CancelRequest 用户取消自己的请求：待处理时随时可取消，已确认的只能在开场前取消
func (s *BookingService) CancelRequest(ctx context.Context, requestID, userID string) (*domain.SlotRequest, error) {
	ctx, span := s.tracer.Start(ctx, "service.CancelRequest")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID), attribute.String("user.id", userID))

	req, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, fail(span, err)
	}
	return s.cancel(ctx, span, req, userID)
}

// CancelSlotRequest 是按时段取消的入口，请求必须属于该时段
func (s *BookingService) CancelSlotRequest(ctx context.Context, slotID, requestID, userID string) (*domain.SlotRequest, error) {
	ctx, span := s.tracer.Start(ctx, "service.CancelSlotRequest")
	defer span.End()
	span.SetAttributes(attribute.String("slot.id", slotID), attribute.String("request.id", requestID))

	if requestID == "" {
		return nil, fail(span, apperr.Validation("requestId is required"))
	}
	req, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, fail(span, err)
	}
	if req.SlotID != slotID {
		return nil, fail(span, domain.ErrRequestSlotMismatch)
	}
	return s.cancel(ctx, span, req, userID)
}

func (s *BookingService) cancel(ctx context.Context, span trace.Span, req *domain.SlotRequest, userID string) (*domain.SlotRequest, error) {
	if req.UserID != userID {
		return nil, fail(span, domain.ErrNotRequester)
	}
	slot, err := s.repo.FindSlot(ctx, req.SlotID)
	if err != nil {
		return nil, fail(span, err)
	}
	res, err := req.Cancel(slot, s.now())
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repo.Resolve(ctx, res); err != nil {
		return nil, fail(span, err)
	}
	applyResolution(req, res)
	metrics.RequestTransitions.WithLabelValues(string(res.To)).Inc()
	span.AddEvent("request cancelled")
	logger.Ctx(ctx).Info().Str("request_id", req.ID).Msg("slot request cancelled, slot released")

	n := events.New("supplier", slot.OwnerID, events.TypeBookingCancellation,
		"Booking cancelled",
		fmt.Sprintf("A booking for your slot starting %s was cancelled.", slot.StartTime.Format(time.RFC3339)))
	n.Data = map[string]string{"slotId": slot.ID, "requestId": req.ID}
	s.notify(ctx, n)
	return req, nil
}

// RecordSlotPayment 供给方登记已确认时段的线下收款状态
func (s *BookingService) RecordSlotPayment(ctx context.Context, slotID, actorID, status string) (*domain.Slot, error) {
	ctx, span := s.tracer.Start(ctx, "service.RecordSlotPayment")
	defer span.End()
	span.SetAttributes(attribute.String("slot.id", slotID), attribute.String("payment.status", status))

	ps, err := domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, fail(span, err)
	}
	slot, err := s.repo.FindSlot(ctx, slotID)
	if err != nil {
		return nil, fail(span, err)
	}
	if !slot.OwnedBy(actorID) {
		return nil, fail(span, domain.ErrNotSlotOwner)
	}
	if slot.Status != domain.SlotBooked {
		return nil, fail(span, domain.ErrSlotNotBooked)
	}
	if err := s.repo.UpdatePayment(ctx, slotID, ps); err != nil {
		return nil, fail(span, err)
	}
	slot.PaymentStatus = ps
	slot.UpdatedAt = s.now()
	return slot, nil
}

func (s *BookingService) ListRequests(ctx context.Context, f domain.RequestFilter) ([]*domain.SlotRequest, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListRequests")
	defer span.End()

	if f.UserID == "" && f.SlotID == "" {
		return nil, fail(span, apperr.Validation("userId or slotId is required"))
	}
	reqs, err := s.repo.ListRequests(ctx, f)
	if err != nil {
		return nil, fail(span, err)
	}
	return reqs, nil
}

// notify 在业务事务提交之后执行，失败计入 publish_lost 指标并记录日志，不回滚业务
func (s *BookingService) notify(ctx context.Context, n events.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		metrics.NotificationPublishLost.WithLabelValues("booking", string(n.Type)).Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("type", string(n.Type)).Str("recipient", n.RecipientID).
			Msg("⚠️ notification publish failed, event dropped")
		return
	}
	trace.SpanFromContext(ctx).AddEvent("notification published", trace.WithAttributes(attribute.String("notification.type", string(n.Type))))
}

func applyResolution(req *domain.SlotRequest, res domain.Resolution) {
	req.Status = res.To
	at := res.At
	if res.IsResponse {
		req.RespondedAt = &at
		req.RespondedBy = res.ActorID
	} else {
		req.CancelledAt = &at
	}
}
