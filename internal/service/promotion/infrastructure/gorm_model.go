// internal/service/promotion/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// PromotionTransactionModel 对应数据库中的 promotion_transactions 表
type PromotionTransactionModel struct {
	ID            string    `gorm:"primaryKey;size:36"`
	SupplierID    string    `gorm:"size:64;not null;index"`
	ServiceType   string    `gorm:"size:16;not null;index:idx_promo_service,priority:1"`
	ServiceID     string    `gorm:"size:64;not null;index:idx_promo_service,priority:2"`
	Plan          string    `gorm:"size:16;not null"`
	PriorityValue int       `gorm:"not null"`
	Amount        float64   `gorm:"type:decimal(10,2)"`
	PaidAmount    float64   `gorm:"type:decimal(10,2)"`
	PaymentRef    string    `gorm:"size:128"`
	PaymentMethod string    `gorm:"size:32"`
	StartDate     time.Time `gorm:"not null"`
	EndDate       time.Time `gorm:"not null;index"`
	Status        string    `gorm:"size:16;not null;index:idx_promo_service,priority:3"`
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PromotionTransactionModel) TableName() string {
	return "promotion_transactions"
}

// AutoMigrate 创建或更新推广交易表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&PromotionTransactionModel{})
}
