// internal/service/catalog/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/catalog/domain"
)

// GormListingRepository 是 ListingRepository 的 GORM 实现，每种类型一张表
type GormListingRepository struct {
	db *gorm.DB
}

func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

func (r *GormListingRepository) table(ctx context.Context, k listing.Kind) (*gorm.DB, error) {
	name, ok := listing.Table(k)
	if !ok {
		return nil, fmt.Errorf("no table for resource type %q", k)
	}
	return r.db.WithContext(ctx).Table(name), nil
}

func (r *GormListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	q, err := r.table(ctx, l.Kind)
	if err != nil {
		return err
	}
	return errors.Wrap(q.Create(toModel(l)).Error, "insert listing")
}

func (r *GormListingRepository) FindByRef(ctx context.Context, ref listing.Ref) (*domain.Listing, error) {
	q, err := r.table(ctx, ref.Kind)
	if err != nil {
		return nil, err
	}
	var m ListingModel
	if err := q.Where("id = ?", ref.ID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, errors.Wrap(err, "find listing")
	}
	return toDomain(ref.Kind, &m), nil
}

// filtered 把粗筛条件翻译成 WHERE 子句，Page 与 Scan 共用
func (r *GormListingRepository) filtered(ctx context.Context, f domain.CandidateFilter) (*gorm.DB, error) {
	q, err := r.table(ctx, f.Kind)
	if err != nil {
		return nil, err
	}
	if f.City != "" {
		q = q.Where("LOWER(city) = LOWER(?)", f.City)
	}
	if f.Sport != "" {
		q = q.Where("sports LIKE ?", "%,"+f.Sport+",%")
	}
	if f.MinRating > 0 {
		q = q.Where("rating >= ?", f.MinRating)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if b := f.Box; b != nil {
		q = q.Where("latitude BETWEEN ? AND ?", b.MinLat, b.MaxLat)
		if !b.WrapsLon {
			q = q.Where("longitude BETWEEN ? AND ?", b.MinLon, b.MaxLon)
		}
	}
	return q, nil
}

// sortColumns 与 domain.Sort 的全序保持一致
var sortColumns = map[domain.SortBy][]string{
	domain.SortRating: {"rating DESC", "created_at DESC", "id ASC"},
	domain.SortPrice:  {"price ASC", "created_at DESC", "id ASC"},
	domain.SortNewest: {"created_at DESC", "id ASC"},
}

func (r *GormListingRepository) Page(ctx context.Context, f domain.CandidateFilter, by domain.SortBy, offset, limit int) ([]*domain.Listing, int64, error) {
	order, ok := sortColumns[by]
	if !ok {
		return nil, 0, fmt.Errorf("sort %q cannot be pushed down", by)
	}
	q, err := r.filtered(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count listings")
	}
	if total == 0 || int64(offset) >= total {
		return []*domain.Listing{}, total, nil
	}

	page := q.Session(&gorm.Session{})
	for _, o := range order {
		page = page.Order(o)
	}
	var models []ListingModel
	if err := page.Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, errors.Wrap(err, "query listing page")
	}
	return toDomainList(f.Kind, models), total, nil
}

func (r *GormListingRepository) Scan(ctx context.Context, f domain.CandidateFilter, batch int, fn func([]*domain.Listing) error) error {
	q, err := r.filtered(ctx, f)
	if err != nil {
		return err
	}
	var models []ListingModel
	result := q.FindInBatches(&models, batch, func(_ *gorm.DB, _ int) error {
		return fn(toDomainList(f.Kind, models))
	})
	return errors.Wrap(result.Error, "scan listing candidates")
}

func toDomainList(k listing.Kind, models []ListingModel) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(models))
	for i := range models {
		out = append(out, toDomain(k, &models[i]))
	}
	return out
}
