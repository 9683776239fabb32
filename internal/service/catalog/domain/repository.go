// internal/service/catalog/domain/repository.go
package domain

import (
	"context"

	"sportshub/internal/pkg/listing"
)

// CandidateFilter 是下推到存储层的粗筛条件
type CandidateFilter struct {
	Kind      listing.Kind
	City      string
	Sport     string
	MinRating float64
	MinPrice  *float64
	MaxPrice  *float64
	Box       *BoundingBox
}

// FilterFor 由搜索条件生成粗筛条件
func FilterFor(q SearchQuery) CandidateFilter {
	f := CandidateFilter{
		Kind:      q.Kind,
		City:      q.City,
		Sport:     q.Sport,
		MinRating: q.MinRating,
		MinPrice:  q.MinPrice,
		MaxPrice:  q.MaxPrice,
	}
	if q.HasGeo {
		box := BoundsAround(q.Latitude, q.Longitude, q.Radius)
		f.Box = &box
	}
	return f
}

// ListingRepository 按类型分表存储资源
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	FindByRef(ctx context.Context, ref listing.Ref) (*Listing, error)
	// Page 在存储层按 by 排序并分页，同时返回满足条件的总数。by 不能是 SortPriority。
	Page(ctx context.Context, f CandidateFilter, by SortBy, offset, limit int) ([]*Listing, int64, error)
	// Scan 分批遍历全部满足粗筛条件的候选，不做截断
	Scan(ctx context.Context, f CandidateFilter, batch int, fn func([]*Listing) error) error
}
