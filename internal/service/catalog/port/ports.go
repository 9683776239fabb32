// internal/service/catalog/port/ports.go
package port

import (
	"context"

	"sportshub/internal/pkg/listing"
)

// BoostProvider 批量查询服务在当前时刻的推广加权，没有生效推广的 id 可以缺省
type BoostProvider interface {
	Boosts(ctx context.Context, kind listing.Kind, ids []string) (map[string]int, error)
}
