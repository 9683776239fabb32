// internal/service/notification/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// NotificationModel 对应 notifications 表，ID 即上游事件 ID
type NotificationModel struct {
	ID            string            `gorm:"primaryKey;size:36"`
	RecipientType string            `gorm:"size:16;not null;index:idx_notif_recipient,priority:1"`
	RecipientID   string            `gorm:"size:64;not null;index:idx_notif_recipient,priority:2"`
	Type          string            `gorm:"size:32;not null"`
	Title         string            `gorm:"size:255"`
	Message       string            `gorm:"type:text"`
	Priority      string            `gorm:"size:8;not null"`
	ActionURL     string            `gorm:"size:255"`
	Data          map[string]string `gorm:"serializer:json;type:text"`
	IsRead        bool              `gorm:"not null;default:false"`
	ReadAt        *time.Time
	ExpiresAt     *time.Time `gorm:"index"`
	CreatedAt     time.Time  `gorm:"index:idx_notif_recipient,priority:3"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// PushTokenModel 对应 push_tokens 表，token 全局唯一
type PushTokenModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	RecipientType string `gorm:"size:16;not null;index:idx_token_recipient,priority:1"`
	RecipientID   string `gorm:"size:64;not null;index:idx_token_recipient,priority:2"`
	Token         string `gorm:"size:255;not null;uniqueIndex"`
	Platform      string `gorm:"size:16;not null"`
	CreatedAt     time.Time
}

func (PushTokenModel) TableName() string {
	return "push_tokens"
}

// AutoMigrate 创建或更新通知相关的表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&NotificationModel{}, &PushTokenModel{})
}
