// internal/service/promotion/infrastructure/mapper.go
package infrastructure

import (
	"time"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/promotion/domain"
)

func toModel(t *domain.PromotionTransaction) *PromotionTransactionModel {
	return &PromotionTransactionModel{
		ID:            t.ID,
		SupplierID:    t.SupplierID,
		ServiceType:   string(t.Service.Kind),
		ServiceID:     t.Service.ID,
		Plan:          t.Plan,
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
		UpdatedAt:     t.UpdatedAt,
	}
}

func toDomain(m *PromotionTransactionModel) *domain.PromotionTransaction {
	var paidAt *time.Time
	if m.PaidAt != nil {
		v := m.PaidAt.UTC()
		paidAt = &v
	}
	return &domain.PromotionTransaction{
		ID:            m.ID,
		SupplierID:    m.SupplierID,
		Service:       listing.Ref{Kind: listing.Kind(m.ServiceType), ID: m.ServiceID},
		Plan:          m.Plan,
		PriorityValue: m.PriorityValue,
		Amount:        m.Amount,
		PaidAmount:    m.PaidAmount,
		PaymentRef:    m.PaymentRef,
		PaymentMethod: m.PaymentMethod,
		StartDate:     m.StartDate.UTC(),
		EndDate:       m.EndDate.UTC(),
		Status:        domain.Status(m.Status),
		PaidAt:        paidAt,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toDomainList(models []PromotionTransactionModel) []*domain.PromotionTransaction {
	out := make([]*domain.PromotionTransaction, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out
}
