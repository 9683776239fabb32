// internal/service/booking/infrastructure/mapper.go
package infrastructure

import (
	"time"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/booking/domain"
)

func toSlotModel(s *domain.Slot) *SlotModel {
	return &SlotModel{
		ID:            s.ID,
		ParentType:    string(s.Parent.Kind),
		ParentID:      s.Parent.ID,
		OwnerID:       s.OwnerID,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Status:        string(s.Status),
		Price:         s.Price,
		PaymentStatus: string(s.PaymentStatus),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toDomainSlot(m *SlotModel) *domain.Slot {
	return &domain.Slot{
		ID:            m.ID,
		Parent:        listing.Ref{Kind: listing.Kind(m.ParentType), ID: m.ParentID},
		OwnerID:       m.OwnerID,
		StartTime:     m.StartTime.UTC(),
		EndTime:       m.EndTime.UTC(),
		Status:        domain.SlotStatus(m.Status),
		Price:         m.Price,
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toRequestModel(r *domain.SlotRequest) *SlotRequestModel {
	return &SlotRequestModel{
		ID:          r.ID,
		SlotID:      r.SlotID,
		UserID:      r.UserID,
		Status:      string(r.Status),
		RequestDate: r.RequestDate,
		Notes:       r.Notes,
		TeamSize:    r.TeamSize,
		RespondedAt: r.RespondedAt,
		RespondedBy: r.RespondedBy,
		CancelledAt: r.CancelledAt,
	}
}

func toDomainRequest(m *SlotRequestModel) *domain.SlotRequest {
	return &domain.SlotRequest{
		ID:          m.ID,
		SlotID:      m.SlotID,
		UserID:      m.UserID,
		Status:      domain.RequestStatus(m.Status),
		RequestDate: m.RequestDate.UTC(),
		Notes:       m.Notes,
		TeamSize:    m.TeamSize,
		RespondedAt: utcPtr(m.RespondedAt),
		RespondedBy: m.RespondedBy,
		CancelledAt: utcPtr(m.CancelledAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
