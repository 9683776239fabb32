// internal/service/promotion/domain/repository.go
package domain

import (
	"context"
	"time"

	"sportshub/internal/pkg/listing"
)

// TransactionRepository 是推广交易的持久化接口
type TransactionRepository interface {
	Create(ctx context.Context, t *PromotionTransaction) error
	FindByID(ctx context.Context, id string) (*PromotionTransaction, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]*PromotionTransaction, error)

	// Activate 在一个事务内锁定交易行、执行 apply（通常是 Pay），以 pending 为条件写回，
	// 并把同一服务下其他 paid 交易置为 expired
	Activate(ctx context.Context, id string, apply func(t *PromotionTransaction) error) (*PromotionTransaction, error)
	// Cancel 以 pending 为条件置为 cancelled
	Cancel(ctx context.Context, id string, apply func(t *PromotionTransaction) error) (*PromotionTransaction, error)

	// ActiveFor 返回在 now 时刻处于生效窗口内的已支付交易
	ActiveFor(ctx context.Context, service listing.Ref, now time.Time) ([]*PromotionTransaction, error)
	// MaxBoosts 批量返回每个服务在 now 时刻的最大优先级，没有生效交易的服务不出现在结果中
	MaxBoosts(ctx context.Context, kind listing.Kind, ids []string, now time.Time) (map[string]int, error)
	// ExpireStale 把已过结束时间但仍是 paid 的交易改为 expired，返回修正的行数
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
