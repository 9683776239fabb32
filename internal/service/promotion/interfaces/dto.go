// internal/service/promotion/interfaces/dto.go
package interfaces

import (
	"time"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/promotion/domain"
)

type PromotionDTO struct {
	ID            string      `json:"id"`
	SupplierID    string      `json:"supplierId"`
	Service       listing.Ref `json:"service"`
	PromotionPlan string      `json:"promotionPlan"`
	PriorityValue int         `json:"priorityValue"`
	Amount        float64     `json:"amount"`
	PaidAmount    float64     `json:"paidAmount,omitempty"`
	PaymentRef    string      `json:"paymentRef,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	StartDate     time.Time   `json:"startDate"`
	EndDate       time.Time   `json:"endDate"`
	Status        string      `json:"status"`
	PaidAt        *time.Time  `json:"paidAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// BoostDTO 是单个服务的排序加权
type BoostDTO struct {
	ServiceType string `json:"serviceType"`
	ServiceID   string `json:"serviceId"`
	Boost       int    `json:"boost"`
}

// BoostsDTO 是批量查询的结果，键为服务 id
type BoostsDTO struct {
	ServiceType string         `json:"serviceType"`
	Boosts      map[string]int `json:"boosts"`
}

func toPromotionDTO(t *domain.PromotionTransaction) PromotionDTO {
	return PromotionDTO{
		ID:            t.ID,
		SupplierID:    t.SupplierID,
		Service:       t.Service,
		PromotionPlan: t.Plan,
		PriorityValue: t.PriorityValue,
		Amount:        t.Amount,
		PaidAmount:    t.PaidAmount,
		PaymentRef:    t.PaymentRef,
		PaymentMethod: t.PaymentMethod,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		Status:        string(t.Status),
		PaidAt:        t.PaidAt,
		CreatedAt:     t.CreatedAt,
	}
}
