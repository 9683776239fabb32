// internal/service/catalog/domain/query.go
package domain

import (
	"net/url"
	"strconv"
	"strings"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/listing"
)

// SortBy 是搜索排序方式。只有 priority 会使用推广加权。
type SortBy string

const (
	SortPriority SortBy = "priority"
	SortRating   SortBy = "rating"
	SortPrice    SortBy = "price"
	SortNewest   SortBy = "newest"
)

const (
	DefaultLimit  = 20
	MaxLimit      = 100
	DefaultRadius = 5000.0
)

// SearchQuery 是解析并校验后的搜索条件
type SearchQuery struct {
	Kind      listing.Kind
	City      string
	Sport     string
	MinRating float64
	MinPrice  *float64
	MaxPrice  *float64
	Latitude  float64
	Longitude float64
	Radius    float64
	HasGeo    bool
	Page      int
	Limit     int
	SortBy    SortBy
}

// Offset 是分页偏移
func (q SearchQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// QueryDefaults 允许通过配置覆盖默认半径与分页大小
type QueryDefaults struct {
	Radius float64
	Limit  int
}

// ParseSearchQuery 把 URL 查询参数解析为 SearchQuery，任何非法参数都返回 Validation 错误
func ParseSearchQuery(kind listing.Kind, v url.Values, defaults QueryDefaults) (SearchQuery, error) {
	if !listing.ServiceKinds.Has(kind) {
		return SearchQuery{}, apperr.Validation("resource type " + string(kind) + " is not searchable")
	}
	if defaults.Radius <= 0 {
		defaults.Radius = DefaultRadius
	}
	if defaults.Limit <= 0 || defaults.Limit > MaxLimit {
		defaults.Limit = DefaultLimit
	}

	q := SearchQuery{
		Kind:   kind,
		City:   strings.TrimSpace(v.Get("city")),
		Sport:  normalize(v.Get("sport")),
		Page:   1,
		Limit:  defaults.Limit,
		SortBy: SortRating,
	}
	var err error

	if q.MinRating, err = floatParam(v, "rating", 0); err != nil {
		return SearchQuery{}, err
	}
	if q.MinRating < 0 || q.MinRating > 5 {
		return SearchQuery{}, apperr.Validation("rating must be between 0 and 5")
	}
	if q.MinPrice, err = optionalFloat(v, "minPrice"); err != nil {
		return SearchQuery{}, err
	}
	if q.MaxPrice, err = optionalFloat(v, "maxPrice"); err != nil {
		return SearchQuery{}, err
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return SearchQuery{}, apperr.Validation("minPrice must not exceed maxPrice")
	}

	lat, lon := v.Get("latitude"), v.Get("longitude")
	switch {
	case lat != "" && lon != "":
		if q.Latitude, err = floatParam(v, "latitude", 0); err != nil {
			return SearchQuery{}, err
		}
		if q.Longitude, err = floatParam(v, "longitude", 0); err != nil {
			return SearchQuery{}, err
		}
		if err := validateCoordinates(q.Latitude, q.Longitude); err != nil {
			return SearchQuery{}, err
		}
		if q.Radius, err = floatParam(v, "radius", defaults.Radius); err != nil {
			return SearchQuery{}, err
		}
		if q.Radius <= 0 {
			return SearchQuery{}, apperr.Validation("radius must be positive")
		}
		q.HasGeo = true
	case lat != "" || lon != "":
		return SearchQuery{}, apperr.Validation("latitude and longitude must be given together")
	}

	if q.Page, err = intParam(v, "page", 1); err != nil {
		return SearchQuery{}, err
	}
	if q.Page < 1 {
		return SearchQuery{}, apperr.Validation("page must be at least 1")
	}
	if q.Limit, err = intParam(v, "limit", defaults.Limit); err != nil {
		return SearchQuery{}, err
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return SearchQuery{}, apperr.Validation("limit must be between 1 and 100")
	}

	if s := normalize(v.Get("sortBy")); s != "" {
		switch SortBy(s) {
		case SortPriority, SortRating, SortPrice, SortNewest:
			q.SortBy = SortBy(s)
		default:
			return SearchQuery{}, apperr.Validation("sortBy must be priority, rating, price or newest")
		}
	}
	return q, nil
}

func floatParam(v url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Validation(key + " must be a number")
	}
	return f, nil
}

func optionalFloat(v url.Values, key string) (*float64, error) {
	if strings.TrimSpace(v.Get(key)) == "" {
		return nil, nil
	}
	f, err := floatParam(v, key, 0)
	if err != nil {
		return nil, err
	}
	if f < 0 {
		return nil, apperr.Validation(key + " must not be negative")
	}
	return &f, nil
}

func intParam(v url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(key + " must be an integer")
	}
	return n, nil
}
