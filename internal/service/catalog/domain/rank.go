// internal/service/catalog/domain/rank.go
package domain

import "sort"

// RankedListing 是带有排序信息的搜索结果项
type RankedListing struct {
	Listing
	Boost          int
	DistanceMeters *float64
}

// SearchResult 是一页搜索结果
type SearchResult struct {
	Items      []RankedListing
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// WithinRadius 精确计算距离，半径外的候选被剔除而不是降权
func WithinRadius(candidates []*Listing, q SearchQuery) []RankedListing {
	out := make([]RankedListing, 0, len(candidates))
	for _, l := range candidates {
		item := RankedListing{Listing: *l}
		if q.HasGeo {
			d := Haversine(q.Latitude, q.Longitude, l.Latitude, l.Longitude)
			if d > q.Radius {
				continue
			}
			item.DistanceMeters = &d
		}
		out = append(out, item)
	}
	return out
}

// Sort 按排序方式对结果做全序排序。最后总以创建时间倒序、id 升序收尾，保证重复查询结果一致。
func Sort(items []RankedListing, by SortBy, hasGeo bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		switch by {
		case SortPriority:
			if a.Boost != b.Boost {
				return a.Boost > b.Boost
			}
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if hasGeo && *a.DistanceMeters != *b.DistanceMeters {
				return *a.DistanceMeters < *b.DistanceMeters
			}
		case SortRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case SortPrice:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// NewPage 用已经截好的一页和满足条件的总数构造结果
func NewPage(items []RankedListing, total int, q SearchQuery) SearchResult {
	if items == nil {
		items = []RankedListing{}
	}
	return SearchResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
}

// Paginate 从全量排序结果中截取一页并计算总页数
func Paginate(items []RankedListing, q SearchQuery) SearchResult {
	total := len(items)
	start := q.Offset()
	if start >= total {
		return NewPage(nil, total, q)
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return NewPage(items[start:end], total, q)
}
