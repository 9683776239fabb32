// internal/service/booking/interfaces/dto.go
package interfaces

import (
	"time"

	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/booking/domain"
)

type SlotDTO struct {
	ID            string      `json:"id"`
	Parent        listing.Ref `json:"parent"`
	OwnerID       string      `json:"ownerId"`
	StartTime     time.Time   `json:"startTime"`
	EndTime       time.Time   `json:"endTime"`
	Status        string      `json:"status"`
	Price         float64     `json:"price"`
	PaymentStatus string      `json:"paymentStatus"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type RequestDTO struct {
	ID          string     `json:"id"`
	SlotID      string     `json:"slotId"`
	UserID      string     `json:"userId"`
	Status      string     `json:"status"`
	RequestDate time.Time  `json:"requestDate"`
	Notes       string     `json:"notes,omitempty"`
	TeamSize    int        `json:"teamSize,omitempty"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	RespondedBy string     `json:"respondedBy,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

func toSlotDTO(s *domain.Slot) SlotDTO {
	return SlotDTO{
		ID:            s.ID,
		Parent:        s.Parent,
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

func toRequestDTO(r *domain.SlotRequest) RequestDTO {
	return RequestDTO{
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
