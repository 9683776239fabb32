// internal/service/booking/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// SlotModel 对应数据库中的 slots 表
type SlotModel struct {
	ID            string    `gorm:"primaryKey;size:36"`
	ParentType    string    `gorm:"size:16;not null;index:idx_slot_parent,priority:1"`
	ParentID      string    `gorm:"size:64;not null;index:idx_slot_parent,priority:2"`
	OwnerID       string    `gorm:"size:64;not null;index"`
	StartTime     time.Time `gorm:"not null;index:idx_slot_parent,priority:3"`
	EndTime       time.Time `gorm:"not null"`
	Status        string    `gorm:"size:16;not null;index"`
	Price         float64   `gorm:"type:decimal(10,2)"`
	PaymentStatus string    `gorm:"size:16;not null;default:unpaid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SlotModel) TableName() string {
	return "slots"
}

// SlotRequestModel 对应数据库中的 slot_requests 表，历史记录永久保留
type SlotRequestModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	SlotID      string    `gorm:"size:36;not null;index"`
	UserID      string    `gorm:"size:64;not null;index"`
	Status      string    `gorm:"size:16;not null;index"`
	RequestDate time.Time `gorm:"not null"`
	Notes       string    `gorm:"type:text"`
	TeamSize    int
	RespondedAt *time.Time
	RespondedBy string `gorm:"size:64"`
	CancelledAt *time.Time
}

func (SlotRequestModel) TableName() string {
	return "slot_requests"
}

// AutoMigrate 创建或更新预约相关的表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&SlotModel{}, &SlotRequestModel{})
}
