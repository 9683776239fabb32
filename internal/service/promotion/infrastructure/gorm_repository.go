// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/promotion/domain"
)

// GormTransactionRepository 是 TransactionRepository 的 GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, t *domain.PromotionTransaction) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(toModel(t)).Error, "insert promotion transaction")
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id string) (*domain.PromotionTransaction, error) {
	return findByID(r.db.WithContext(ctx), id)
}

func findByID(db *gorm.DB, id string) (*domain.PromotionTransaction, error) {
	var m PromotionTransactionModel
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPromotionNotFound
		}
		return nil, errors.Wrap(err, "find promotion transaction")
	}
	return toDomain(&m), nil
}

func (r *GormTransactionRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*domain.PromotionTransaction, error) {
	var models []PromotionTransactionModel
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list promotion transactions")
	}
	return toDomainList(models), nil
}

// Activate 锁定交易行后以 pending 为条件写回，再把同服务下其他已支付交易置为 expired，全部在同一事务内
func (r *GormTransactionRepository) Activate(ctx context.Context, id string, apply func(t *domain.PromotionTransaction) error) (*domain.PromotionTransaction, error) {
	var out *domain.PromotionTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if err := apply(t); err != nil {
			return err
		}

		result := tx.Model(&PromotionTransactionModel{}).
			Where("id = ? AND status = ? AND end_date >= ?", id, domain.StatusPending, t.UpdatedAt).
			Updates(map[string]interface{}{
				"status":         t.Status,
				"paid_amount":    t.PaidAmount,
				"payment_ref":    t.PaymentRef,
				"payment_method": t.PaymentMethod,
				"paid_at":        t.PaidAt,
				"updated_at":     t.UpdatedAt,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "mark promotion paid")
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotPending
		}

		err = tx.Model(&PromotionTransactionModel{}).
			Where("service_type = ? AND service_id = ? AND status = ? AND id <> ?",
				t.Service.Kind, t.Service.ID, domain.StatusPaid, id).
			Updates(map[string]interface{}{"status": domain.StatusExpired, "updated_at": t.UpdatedAt}).Error
		if err != nil {
			return errors.Wrap(err, "expire superseded promotions")
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormTransactionRepository) Cancel(ctx context.Context, id string, apply func(t *domain.PromotionTransaction) error) (*domain.PromotionTransaction, error) {
	var out *domain.PromotionTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findByID(tx, id)
		if err != nil {
			return err
		}
		if err := apply(t); err != nil {
			return err
		}
		result := tx.Model(&PromotionTransactionModel{}).
			Where("id = ? AND status = ?", id, domain.StatusPending).
			Updates(map[string]interface{}{"status": t.Status, "updated_at": t.UpdatedAt})
		if result.Error != nil {
			return errors.Wrap(result.Error, "cancel promotion")
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotPending
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormTransactionRepository) ActiveFor(ctx context.Context, service listing.Ref, now time.Time) ([]*domain.PromotionTransaction, error) {
	var models []PromotionTransactionModel
	err := r.db.WithContext(ctx).
		Where("service_type = ? AND service_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			service.Kind, service.ID, domain.StatusPaid, now, now).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "find active promotions")
	}
	return toDomainList(models), nil
}

type boostRow struct {
	ServiceID string
	Boost     int
}

func (r *GormTransactionRepository) MaxBoosts(ctx context.Context, kind listing.Kind, ids []string, now time.Time) (map[string]int, error) {
	var rows []boostRow
	err := r.db.WithContext(ctx).Model(&PromotionTransactionModel{}).
		Select("service_id, MAX(priority_value) AS boost").
		Where("service_type = ? AND service_id IN ? AND status = ? AND start_date <= ? AND end_date >= ?",
			kind, ids, domain.StatusPaid, now, now).
		Group("service_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "aggregate promotion boosts")
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.ServiceID] = row.Boost
	}
	return out, nil
}

func (r *GormTransactionRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&PromotionTransactionModel{}).
		Where("status = ? AND end_date < ?", domain.StatusPaid, now).
		Updates(map[string]interface{}{"status": domain.StatusExpired, "updated_at": now})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "expire stale promotions")
	}
	return result.RowsAffected, nil
}
