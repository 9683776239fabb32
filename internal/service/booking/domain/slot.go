// internal/service/booking/domain/slot.go
package domain

import (
	"time"

	"github.com/google/uuid"

	"sportshub/internal/pkg/listing"
)

// SlotStatus 定义了时段的生命周期状态
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available" // 可预约
	SlotPending   SlotStatus = "pending"   // 已有待审核的预约请求，锁定中
	SlotBooked    SlotStatus = "booked"    // 已确认
	SlotBlocked   SlotStatus = "blocked"   // 供给方下架，软删除
)

// PaymentStatus 是线下收款状态，由场地方登记
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(s); p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return p, nil
	}
	return "", ErrInvalidPaymentStatus
}

// Slot 是一个可预约的固定时间窗口，隶属于场地/草坪/教练
type Slot struct {
	ID            string
	Parent        listing.Ref
	OwnerID       string // 父资源的供给方，创建时从目录服务解析
	StartTime     time.Time
	EndTime       time.Time
	Status        SlotStatus
	Price         float64
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSlot 校验并创建一个可预约时段
func NewSlot(parent listing.Ref, ownerID string, start, end time.Time, price float64) (*Slot, error) {
	if err := parent.Validate(listing.SlotParentKinds); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, ErrInvalidSlotWindow
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	now := time.Now().UTC()
	return &Slot{
		ID:            uuid.NewString(),
		Parent:        parent,
		OwnerID:       ownerID,
		StartTime:     start.UTC(),
		EndTime:       end.UTC(),
		Status:        SlotAvailable,
		Price:         price,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// OwnedBy 判断 actor 是否是时段的所有者
func (s *Slot) OwnedBy(actorID string) bool {
	return actorID != "" && s.OwnerID == actorID
}

// Overlaps 判断两个时间窗口是否重叠，首尾相接不算重叠
func (s *Slot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// Started 判断时段是否已经开始
func (s *Slot) Started(now time.Time) bool {
	return !now.Before(s.StartTime)
}

// SlotFilter 是时段列表的查询条件
type SlotFilter struct {
	Parent listing.Ref
	From   time.Time
	To     time.Time
	Status SlotStatus
}
