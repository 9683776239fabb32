// internal/service/catalog/application/service.go
package application

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/listing"
	"sportshub/internal/pkg/logger"
	"sportshub/internal/service/catalog/domain"
	"sportshub/internal/service/catalog/port"
)

// Options 是搜索的可配置参数
type Options struct {
	Defaults domain.QueryDefaults
	// ScanBatch 是需要全量精筛时每批从存储层读取的行数
	ScanBatch int
}

// CatalogService 负责资源目录与搜索排序
type CatalogService struct {
	repo   domain.ListingRepository
	boosts port.BoostProvider
	tracer trace.Tracer
	opts   Options
	now    func() time.Time
}

func NewCatalogService(repo domain.ListingRepository, boosts port.BoostProvider, tracer trace.Tracer, opts Options) *CatalogService {
	if opts.ScanBatch <= 0 {
		opts.ScanBatch = 500
	}
	return &CatalogService{
		repo:   repo,
		boosts: boosts,
		tracer: tracer,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	if apperr.StatusCode(err) >= 500 {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// ParseQuery 使用服务配置的默认值解析查询参数
func (s *CatalogService) ParseQuery(kind listing.Kind, v url.Values) (domain.SearchQuery, error) {
	return domain.ParseSearchQuery(kind, v, s.opts.Defaults)
}

// CreateListing 供给方创建自己的资源
func (s *CatalogService) CreateListing(ctx context.Context, ownerID string, d domain.ListingDraft) (*domain.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateListing")
	defer span.End()

	l, err := domain.NewListing(ownerID, d, s.now())
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("listing.ref", l.Ref().String()))
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fail(span, err)
	}
	logger.Ctx(ctx).Info().Str("listing", l.Ref().String()).Str("owner_id", ownerID).Msg("listing created")
	return l, nil
}

func (s *CatalogService) GetListing(ctx context.Context, ref listing.Ref) (*domain.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetListing")
	defer span.End()
	span.SetAttributes(attribute.String("listing.ref", ref.String()))

	l, err := s.repo.FindByRef(ctx, ref)
	if err != nil {
		return nil, fail(span, err)
	}
	return l, nil
}

// Search 执行一次完整的搜索。
// 不带坐标的 rating/price/newest 排序整体下推到存储层分页；
// 带坐标或 priority 排序需要全量候选做半径精筛与加权，分批读取，不做截断。
func (s *CatalogService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "service.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.kind", string(q.Kind)),
		attribute.String("search.sort", string(q.SortBy)),
		attribute.Bool("search.geo", q.HasGeo),
	)
	f := domain.FilterFor(q)

	if !q.HasGeo && q.SortBy != domain.SortPriority {
		rows, total, err := s.repo.Page(ctx, f, q.SortBy, q.Offset(), q.Limit)
		if err != nil {
			return nil, fail(span, err)
		}
		span.SetAttributes(attribute.Int64("search.matched", total))
		res := domain.NewPage(domain.WithinRadius(rows, q), int(total), q)
		return &res, nil
	}

	var items []domain.RankedListing
	scanned := 0
	err := s.repo.Scan(ctx, f, s.opts.ScanBatch, func(batch []*domain.Listing) error {
		scanned += len(batch)
		items = append(items, domain.WithinRadius(batch, q)...)
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("search.candidates", scanned), attribute.Int("search.matched", len(items)))

	if q.SortBy == domain.SortPriority && len(items) > 0 {
		s.applyBoosts(ctx, q.Kind, items)
	}
	domain.Sort(items, q.SortBy, q.HasGeo)

	res := domain.Paginate(items, q)
	return &res, nil
}

// applyBoosts 查询失败时退化为全部为 0，排序仍然是确定的
func (s *CatalogService) applyBoosts(ctx context.Context, kind listing.Kind, items []domain.RankedListing) {
	if s.boosts == nil {
		return
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	boosts, err := s.boosts.Boosts(ctx, kind, ids)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Msg("⚠️ boost lookup failed, ranking without promotions")
		trace.SpanFromContext(ctx).AddEvent("boost lookup failed")
		return
	}
	for i := range items {
		items[i].Boost = boosts[items[i].ID]
	}
}
