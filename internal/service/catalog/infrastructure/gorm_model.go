// internal/service/catalog/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"sportshub/internal/pkg/listing"
)

// ListingModel 是 academies/coaches/turfs/grounds 四张表共用的行结构，表名由类型决定。
// 索引名必须按表生成，SQLite 的索引名在库内全局唯一。
type ListingModel struct {
	ID      string `gorm:"primaryKey;size:36"`
	OwnerID string `gorm:"size:64;not null;index"`
	Name    string `gorm:"size:255;not null"`
	City    string `gorm:"size:128;index"`
	// Sports 以 ",football,cricket," 的形式存储，便于 LIKE 匹配整个词
	Sports    string  `gorm:"size:512"`
	Price     float64 `gorm:"type:decimal(10,2);index"`
	Rating    float64 `gorm:"index"`
	Latitude  float64 `gorm:"index:,composite:geo,priority:1"`
	Longitude float64 `gorm:"index:,composite:geo,priority:2"`
	CreatedAt time.Time
}

var allKinds = []listing.Kind{listing.KindAcademy, listing.KindCoach, listing.KindTurf, listing.KindGround}

// AutoMigrate 为每种资源类型创建一张表
func AutoMigrate(db *gorm.DB) error {
	for _, k := range allKinds {
		table, _ := listing.Table(k)
		if err := db.Table(table).AutoMigrate(&ListingModel{}); err != nil {
			return errors.Wrapf(err, "migrate %s", table)
		}
	}
	return nil
}
