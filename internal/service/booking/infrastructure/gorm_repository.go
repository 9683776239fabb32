// internal/service/booking/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sportshub/internal/service/booking/domain"
)

// GormSlotRepository 是 SlotRepository 的 GORM 实现
type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) CreateSlot(ctx context.Context, slot *domain.Slot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁住同一父资源下与新窗口重叠的时段，防止并发创建出重叠时段
		var overlapping []SlotModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("parent_type = ? AND parent_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
				slot.Parent.Kind, slot.Parent.ID, domain.SlotBlocked, slot.EndTime, slot.StartTime).
			Limit(1).
			Find(&overlapping).Error
		if err != nil {
			return errors.Wrap(err, "check overlapping slots")
		}
		if len(overlapping) > 0 {
			return domain.ErrSlotOverlap
		}
		return errors.Wrap(tx.Create(toSlotModel(slot)).Error, "insert slot")
	})
}

func (r *GormSlotRepository) FindSlot(ctx context.Context, id string) (*domain.Slot, error) {
	var m SlotModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, errors.Wrap(err, "find slot")
	}
	return toDomainSlot(&m), nil
}

func (r *GormSlotRepository) ListSlots(ctx context.Context, f domain.SlotFilter) ([]*domain.Slot, error) {
	q := r.db.WithContext(ctx).Model(&SlotModel{})
	if !f.Parent.IsZero() {
		q = q.Where("parent_type = ? AND parent_id = ?", f.Parent.Kind, f.Parent.ID)
	}
	if !f.From.IsZero() {
		q = q.Where("start_time >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("end_time <= ?", f.To.UTC())
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var models []SlotModel
	if err := q.Order("start_time ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list slots")
	}
	out := make([]*domain.Slot, 0, len(models))
	for i := range models {
		out = append(out, toDomainSlot(&models[i]))
	}
	return out, nil
}

// ClaimSlot 用一条条件更新完成 available -> pending 的抢占，和请求写入处于同一事务
func (r *GormSlotRepository) ClaimSlot(ctx context.Context, req *domain.SlotRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&SlotModel{}).
			Where("id = ? AND status = ?", req.SlotID, domain.SlotAvailable).
			Updates(map[string]interface{}{"status": domain.SlotPending, "updated_at": req.RequestDate})
		if result.Error != nil {
			return errors.Wrap(result.Error, "claim slot")
		}
		if result.RowsAffected == 0 {
			return r.missOrConflict(tx, req.SlotID)
		}
		return errors.Wrap(tx.Create(toRequestModel(req)).Error, "insert slot request")
	})
}

func (r *GormSlotRepository) missOrConflict(tx *gorm.DB, slotID string) error {
	var n int64
	if err := tx.Model(&SlotModel{}).Where("id = ?", slotID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "count slot")
	}
	if n == 0 {
		return domain.ErrSlotNotFound
	}
	return domain.ErrSlotUnavailable
}

func (r *GormSlotRepository) Resolve(ctx context.Context, res domain.Resolution) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := map[string]interface{}{"status": res.To}
		if res.IsResponse {
			upd["responded_at"] = res.At
			upd["responded_by"] = res.ActorID
		} else {
			upd["cancelled_at"] = res.At
		}
		result := tx.Model(&SlotRequestModel{}).
			Where("id = ? AND status = ?", res.RequestID, res.From).
			Updates(upd)
		if result.Error != nil {
			return errors.Wrap(result.Error, "update slot request")
		}
		if result.RowsAffected == 0 {
			return res.StaleError()
		}

		slotUpd := map[string]interface{}{"status": res.SlotTo, "updated_at": res.At}
		// 重新开放的时段不能把上一位预约者的收款状态带给下一位
		if res.SlotTo == domain.SlotAvailable {
			slotUpd["payment_status"] = domain.PaymentUnpaid
		}
		result = tx.Model(&SlotModel{}).
			Where("id = ? AND status = ?", res.SlotID, res.SlotFrom).
			Updates(slotUpd)
		if result.Error != nil {
			return errors.Wrap(result.Error, "update slot")
		}
		if result.RowsAffected == 0 {
			return domain.ErrSlotStateChanged
		}
		return nil
	})
}

func (r *GormSlotRepository) BlockSlot(ctx context.Context, slotID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&SlotModel{}).
			Where("id = ? AND status = ?", slotID, domain.SlotAvailable).
			Updates(map[string]interface{}{"status": domain.SlotBlocked, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			return errors.Wrap(result.Error, "block slot")
		}
		if result.RowsAffected == 0 {
			err := r.missOrConflict(tx, slotID)
			if errors.Is(err, domain.ErrSlotUnavailable) {
				return domain.ErrSlotNotBlockable
			}
			return err
		}
		return nil
	})
}

func (r *GormSlotRepository) UpdatePayment(ctx context.Context, slotID string, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&SlotModel{}).
			Where("id = ? AND status = ?", slotID, domain.SlotBooked).
			Updates(map[string]interface{}{"payment_status": status, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			return errors.Wrap(result.Error, "update slot payment")
		}
		if result.RowsAffected == 0 {
			err := r.missOrConflict(tx, slotID)
			if errors.Is(err, domain.ErrSlotUnavailable) {
				return domain.ErrSlotNotBooked
			}
			return err
		}
		return nil
	})
}

func (r *GormSlotRepository) FindRequest(ctx context.Context, id string) (*domain.SlotRequest, error) {
	var m SlotRequestModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, errors.Wrap(err, "find slot request")
	}
	return toDomainRequest(&m), nil
}

func (r *GormSlotRepository) ListRequests(ctx context.Context, f domain.RequestFilter) ([]*domain.SlotRequest, error) {
	q := r.db.WithContext(ctx).Model(&SlotRequestModel{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.SlotID != "" {
		q = q.Where("slot_id = ?", f.SlotID)
	}
	var models []SlotRequestModel
	if err := q.Order("request_date DESC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list slot requests")
	}
	out := make([]*domain.SlotRequest, 0, len(models))
	for i := range models {
		out = append(out, toDomainRequest(&models[i]))
	}
	return out, nil
}
