// internal/service/notification/interfaces/dto.go
package interfaces

import (
	"time"

	"sportshub/internal/service/notification/application"
	"sportshub/internal/service/notification/domain"
)

type NotificationDTO struct {
	ID            string            `json:"id"`
	RecipientType string            `json:"recipientType"`
	RecipientID   string            `json:"recipientId"`
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Message       string            `json:"message"`
	Priority      string            `json:"priority"`
	ActionURL     string            `json:"actionUrl,omitempty"`
	Data          map[string]string `json:"data,omitempty"`
	IsRead        bool              `json:"isRead"`
	ReadAt        *time.Time        `json:"readAt,omitempty"`
	ExpiresAt     *time.Time        `json:"expiresAt,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type InboxDTO struct {
	Items      []NotificationDTO `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

type PushTokenDTO struct {
	ID            string    `json:"id"`
	RecipientType string    `json:"recipientType"`
	RecipientID   string    `json:"recipientId"`
	Platform      string    `json:"platform"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toNotificationDTO(n *domain.Notification) NotificationDTO {
	return NotificationDTO{
		ID:            n.ID,
		RecipientType: string(n.Recipient.Kind),
		RecipientID:   n.Recipient.ID,
		Type:          string(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		Priority:      string(n.Priority),
		ActionURL:     n.ActionURL,
		Data:          n.Data,
		IsRead:        n.IsRead,
		ReadAt:        n.ReadAt,
		ExpiresAt:     n.ExpiresAt,
		CreatedAt:     n.CreatedAt,
	}
}

func toInboxDTO(items []*domain.Notification, p application.Page) InboxDTO {
	out := InboxDTO{
		Items:      make([]NotificationDTO, 0, len(items)),
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
	for _, n := range items {
		out.Items = append(out.Items, toNotificationDTO(n))
	}
	return out
}
