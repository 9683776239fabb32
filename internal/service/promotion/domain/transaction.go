// internal/service/promotion/domain/transaction.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"sportshub/internal/pkg/listing"
)

// Status 定义了推广交易的生命周期状态。
// status 只用于审计，是否生效只看 ActiveAt 的时间窗口判断。
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// PromotionTransaction 是供给方为某个服务购买的一段推广期
type PromotionTransaction struct {
	ID            string
	SupplierID    string
	Service       listing.Ref
	Plan          string
	PriorityValue int
	Amount        float64
	PaidAmount    float64
	PaymentRef    string
	PaymentMethod string
	StartDate     time.Time
	EndDate       time.Time
	Status        Status
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTransaction 在结账时创建一笔待支付的推广交易，有效期从 now 开始计算
func NewTransaction(supplierID string, service listing.Ref, plan Plan, now time.Time) (*PromotionTransaction, error) {
	if strings.TrimSpace(supplierID) == "" {
		return nil, ErrSupplierRequired
	}
	if err := service.Validate(listing.ServiceKinds); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &PromotionTransaction{
		ID:            uuid.NewString(),
		SupplierID:    supplierID,
		Service:       service,
		Plan:          plan.Name,
		PriorityValue: plan.PriorityValue,
		Amount:        plan.Amount,
		StartDate:     now,
		EndDate:       now.Add(plan.Duration()),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Payment 是支付回调带来的信息
type Payment struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
}

// Pay 把交易置为已支付。只有 pending 状态可以支付，重复支付返回 ErrNotPending；
// 窗口已结束的结账单不能再支付，否则会顶掉同服务下仍在生效的推广。
func (t *PromotionTransaction) Pay(p Payment, now time.Time) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	if now.After(t.EndDate) {
		return ErrCheckoutLapsed
	}
	if strings.TrimSpace(p.PaymentID) == "" {
		return ErrPaymentIDRequired
	}
	if p.Amount < t.Amount {
		return ErrInsufficientAmount
	}
	now = now.UTC()
	t.Status = StatusPaid
	t.PaidAmount = p.Amount
	t.PaymentRef = p.PaymentID
	t.PaymentMethod = p.Method
	t.PaidAt = &now
	t.UpdatedAt = now
	return nil
}

// Cancel 取消一笔尚未支付的交易
func (t *PromotionTransaction) Cancel(now time.Time) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	t.Status = StatusCancelled
	t.UpdatedAt = now.UTC()
	return nil
}

// ActiveAt 是推广是否生效的唯一判断：已支付且 now 落在 [StartDate, EndDate] 内
func (t *PromotionTransaction) ActiveAt(now time.Time) bool {
	return t.Status == StatusPaid && !now.Before(t.StartDate) && !now.After(t.EndDate)
}

// BoostAt 返回一组交易在 now 时刻的排序加权：取生效交易中最大的一个，从不累加
func BoostAt(txs []*PromotionTransaction, now time.Time) int {
	boost := 0
	for _, t := range txs {
		if t.ActiveAt(now) && t.PriorityValue > boost {
			boost = t.PriorityValue
		}
	}
	return boost
}
