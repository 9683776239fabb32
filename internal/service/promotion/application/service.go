// internal/service/promotion/application/service.go
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
	"sportshub/internal/pkg/lock"
	"sportshub/internal/pkg/logger"
	"sportshub/internal/pkg/metrics"
	"sportshub/internal/service/promotion/domain"
	"sportshub/internal/service/promotion/port"
)

// PromotionService 管理推广交易的结账、支付与排序加权查询
type PromotionService struct {
	repo        domain.TransactionRepository
	plans       domain.PlanCatalog
	locker      lock.Locker
	notifier    port.Notifier
	tracer      trace.Tracer
	lockTimeout time.Duration
	now         func() time.Time
}

func NewPromotionService(repo domain.TransactionRepository, plans domain.PlanCatalog, locker lock.Locker, notifier port.Notifier, tracer trace.Tracer) *PromotionService {
	return &PromotionService{
		repo:        repo,
		plans:       plans,
		locker:      locker,
		notifier:    notifier,
		tracer:      tracer,
		lockTimeout: 10 * time.Second,
		// 与 DATETIME 列的精度保持一致
		now: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// WithLockTimeout 设置等待推广锁的最长时间
func (s *PromotionService) WithLockTimeout(d time.Duration) *PromotionService {
	if d > 0 {
		s.lockTimeout = d
	}
	return s
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	if apperr.StatusCode(err) >= 500 {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *PromotionService) ListPlans() []domain.Plan {
	return s.plans.List()
}

// CreatePromotionTransaction 为服务创建一笔待支付的推广交易
func (s *PromotionService) CreatePromotionTransaction(ctx context.Context, caller Caller, req *CreatePromotionRequest) (*domain.PromotionTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreatePromotionTransaction")
	defer span.End()

	supplierID := req.SupplierID
	if supplierID == "" {
		supplierID = caller.ID
	}
	if !caller.mayActFor(supplierID) {
		return nil, fail(span, domain.ErrNotOwner)
	}
	plan, err := s.plans.Lookup(req.PromotionPlan)
	if err != nil {
		return nil, fail(span, err)
	}
	ref, err := listing.NewRef(req.ServiceType, req.ServiceID)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(
		attribute.String("promotion.service", ref.String()),
		attribute.String("promotion.plan", plan.Name),
		attribute.String("supplier.id", supplierID),
	)

	tx, err := domain.NewTransaction(supplierID, ref, plan, s.now())
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("promotion_id", tx.ID).Str("service", ref.String()).Str("plan", plan.Name).
		Msg("promotion transaction created")
	return tx, nil
}

// ProcessPromotionPayment 在服务级分布式锁和一个数据库事务内完成 pending -> paid，
// 同一服务下其他已支付交易被置为 expired，保证每个服务最多一个生效推广
func (s *PromotionService) ProcessPromotionPayment(ctx context.Context, caller Caller, id string, req *PaymentRequest) (*domain.PromotionTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "service.ProcessPromotionPayment")
	defer span.End()
	span.SetAttributes(attribute.String("promotion.id", id))

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		metrics.PromotionPayments.WithLabelValues("not_found").Inc()
		return nil, fail(span, err)
	}
	if !caller.mayActFor(current.SupplierID) {
		return nil, fail(span, domain.ErrNotOwner)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, "promotion:"+current.Service.String())
	if err != nil {
		metrics.PromotionPayments.WithLabelValues("lock_failed").Inc()
		return nil, fail(span, apperr.Wrap(apperr.KindInternal, "acquire promotion lock", err))
	}
	defer unlock()
	span.AddEvent("promotion lock acquired")

	payment := domain.Payment{PaymentID: req.PaymentID, Amount: req.Amount, Method: req.Method}
	paid, err := s.repo.Activate(ctx, id, func(t *domain.PromotionTransaction) error {
		return t.Pay(payment, s.now())
	})
	if err != nil {
		metrics.PromotionPayments.WithLabelValues(outcome(err)).Inc()
		return nil, fail(span, err)
	}
	metrics.PromotionPayments.WithLabelValues("paid").Inc()
	span.AddEvent("promotion activated", trace.WithAttributes(attribute.Int("promotion.priority", paid.PriorityValue)))
	logger.Ctx(ctx).Info().Str("promotion_id", paid.ID).Str("service", paid.Service.String()).
		Time("end_date", paid.EndDate).Msg("✅ promotion activated")

	n := events.New("supplier", paid.SupplierID, events.TypePromotionActivated,
		"Promotion activated",
		fmt.Sprintf("Your %s promotion is live until %s.", paid.Plan, paid.EndDate.Format(time.RFC3339)))
	n.ActionURL = "/promotions/" + paid.ID
	n.Data = map[string]string{"promotionId": paid.ID, "serviceType": string(paid.Service.Kind), "serviceId": paid.Service.ID}
	s.notify(ctx, n)
	return paid, nil
}

func outcome(err error) string {
	if errors.Is(err, domain.ErrCheckoutLapsed) {
		return "lapsed"
	}
	switch apperr.KindOf(err) {
	case apperr.KindInvalidState:
		return "not_pending"
	case apperr.KindValidation:
		return "rejected"
	case apperr.KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// CancelPromotion 取消一笔尚未支付的交易
func (s *PromotionService) CancelPromotion(ctx context.Context, caller Caller, id string) (*domain.PromotionTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "service.CancelPromotion")
	defer span.End()
	span.SetAttributes(attribute.String("promotion.id", id))

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if !caller.mayActFor(current.SupplierID) {
		return nil, fail(span, domain.ErrNotOwner)
	}
	cancelled, err := s.repo.Cancel(ctx, id, func(t *domain.PromotionTransaction) error {
		return t.Cancel(s.now())
	})
	if err != nil {
		return nil, fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("promotion_id", id).Msg("promotion cancelled")
	return cancelled, nil
}

// RankingBoostFor 是纯读操作：now 落在已支付交易窗口内时返回其优先级，否则为 0。
// 存储的 status 只用于审计，过期与否始终以时间窗口为准。
func (s *PromotionService) RankingBoostFor(ctx context.Context, ref listing.Ref, now time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "service.RankingBoostFor")
	defer span.End()
	span.SetAttributes(attribute.String("promotion.service", ref.String()))

	if err := ref.Validate(listing.ServiceKinds); err != nil {
		return 0, fail(span, err)
	}
	active, err := s.repo.ActiveFor(ctx, ref, now.UTC())
	if err != nil {
		return 0, fail(span, err)
	}
	return domain.BoostAt(active, now), nil
}

// BoostsFor 是 RankingBoostFor 的批量形式，没有生效推广的 id 值为 0
func (s *PromotionService) BoostsFor(ctx context.Context, kind listing.Kind, ids []string, now time.Time) (map[string]int, error) {
	ctx, span := s.tracer.Start(ctx, "service.BoostsFor")
	defer span.End()
	span.SetAttributes(attribute.String("promotion.kind", string(kind)), attribute.Int("promotion.ids", len(ids)))

	if !listing.ServiceKinds.Has(kind) {
		return nil, fail(span, apperr.Validation(fmt.Sprintf("resource type %q cannot be promoted", kind)))
	}
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	boosts, err := s.repo.MaxBoosts(ctx, kind, ids, now.UTC())
	if err != nil {
		return nil, fail(span, err)
	}
	for _, id := range ids {
		out[id] = boosts[id]
	}
	return out, nil
}

func (s *PromotionService) GetPromotion(ctx context.Context, caller Caller, id string) (*domain.PromotionTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetPromotion")
	defer span.End()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if !caller.mayActFor(t.SupplierID) {
		return nil, fail(span, domain.ErrNotOwner)
	}
	return t, nil
}

func (s *PromotionService) ListSupplierPromotions(ctx context.Context, caller Caller, supplierID string) ([]*domain.PromotionTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListSupplierPromotions")
	defer span.End()

	if supplierID == "" {
		supplierID = caller.ID
	}
	if !caller.mayActFor(supplierID) {
		return nil, fail(span, domain.ErrNotOwner)
	}
	txs, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fail(span, err)
	}
	return txs, nil
}

// ExpireStale 修正已过期但仍标记为 paid 的交易。只影响审计，不影响排序
func (s *PromotionService) ExpireStale(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "service.ExpireStale")
	defer span.End()

	n, err := s.repo.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, fail(span, err)
	}
	if n > 0 {
		metrics.PromotionsExpired.Add(float64(n))
		logger.Ctx(ctx).Info().Int64("count", n).Msg("stale promotions marked expired")
	}
	span.SetAttributes(attribute.Int64("promotion.expired", n))
	return n, nil
}

func (s *PromotionService) notify(ctx context.Context, n events.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		metrics.NotificationPublishLost.WithLabelValues("promotion", string(n.Type)).Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("type", string(n.Type)).Str("recipient", n.RecipientID).
			Msg("⚠️ notification publish failed, event dropped")
	}
}
