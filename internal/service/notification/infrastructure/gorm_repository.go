// internal/service/notification/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sportshub/internal/service/notification/domain"
)

// GormNotificationRepository 是 NotificationRepository 的 GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Save 主键冲突时什么都不做，据此判断是否为重复事件
func (r *GormNotificationRepository) Save(ctx context.Context, n *domain.Notification) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(toNotificationModel(n))
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "insert notification")
	}
	return result.RowsAffected > 0, nil
}

func (r *GormNotificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var m NotificationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, errors.Wrap(err, "find notification")
	}
	return toDomainNotification(&m), nil
}

func (r *GormNotificationRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("recipient_type = ? AND recipient_id = ?", f.Recipient.Kind, f.Recipient.ID).
		Where("(expires_at IS NULL OR expires_at > ?)", f.Now)
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	// Count 与 Find 共用同一组条件
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count notifications")
	}
	var models []NotificationModel
	err := q.Order("created_at DESC").Order("id ASC").Offset(f.Offset).Limit(f.Limit).Find(&models).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list notifications")
	}
	out := make([]*domain.Notification, 0, len(models))
	for i := range models {
		out = append(out, toDomainNotification(&models[i]))
	}
	return out, total, nil
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&NotificationModel{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt}).Error
	return errors.Wrap(err, "mark notification read")
}

func (r *GormNotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&NotificationModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "delete expired notifications")
	}
	return result.RowsAffected, nil
}

func (r *GormNotificationRepository) SaveToken(ctx context.Context, t *domain.PushToken) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"recipient_type", "recipient_id", "platform"}),
		}).
		Create(toTokenModel(t)).Error
	return errors.Wrap(err, "upsert push token")
}

func (r *GormNotificationRepository) TokensFor(ctx context.Context, rc domain.Recipient) ([]*domain.PushToken, error) {
	var models []PushTokenModel
	err := r.db.WithContext(ctx).
		Where("recipient_type = ? AND recipient_id = ?", rc.Kind, rc.ID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list push tokens")
	}
	out := make([]*domain.PushToken, 0, len(models))
	for i := range models {
		out = append(out, toDomainToken(&models[i]))
	}
	return out, nil
}
