// internal/service/booking/domain/repository.go
package domain

import "context"

// SlotRepository 是时段与预约请求的持久化接口。
// 所有会改变时段占用状态的方法都必须是单个事务内的条件更新。
type SlotRepository interface {
	// CreateSlot 在同一父资源下不存在重叠的非下架时段时写入，否则返回 ErrSlotOverlap
	CreateSlot(ctx context.Context, slot *Slot) error
	FindSlot(ctx context.Context, id string) (*Slot, error)
	ListSlots(ctx context.Context, f SlotFilter) ([]*Slot, error)

	// ClaimSlot 把时段从 available 原子地改为 pending 并写入请求。
	// 条件更新未命中时返回 ErrSlotUnavailable。
	ClaimSlot(ctx context.Context, req *SlotRequest) error
	// Resolve 以 From 为条件更新请求状态，并同事务以 SlotFrom 为条件更新时段状态。
	// 任一条件不满足时整体回滚并返回 ErrRequestNotPending / ErrSlotStateChanged。
	// 时段回到 available 时收款状态重置为 unpaid。
	Resolve(ctx context.Context, res Resolution) error
	// BlockSlot 只允许 available -> blocked
	BlockSlot(ctx context.Context, slotID string) error
	// UpdatePayment 只允许对 booked 状态的时段登记
	UpdatePayment(ctx context.Context, slotID string, status PaymentStatus) error

	FindRequest(ctx context.Context, id string) (*SlotRequest, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]*SlotRequest, error)
}
