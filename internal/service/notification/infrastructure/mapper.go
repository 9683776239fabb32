// internal/service/notification/infrastructure/mapper.go
package infrastructure

import (
	"time"

	"sportshub/internal/pkg/events"
	"sportshub/internal/service/notification/domain"
)

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func toNotificationModel(n *domain.Notification) *NotificationModel {
	return &NotificationModel{
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

func toDomainNotification(m *NotificationModel) *domain.Notification {
	return &domain.Notification{
		ID:        m.ID,
		Recipient: domain.Recipient{Kind: domain.RecipientKind(m.RecipientType), ID: m.RecipientID},
		Type:      events.NotificationType(m.Type),
		Title:     m.Title,
		Message:   m.Message,
		Priority:  events.Priority(m.Priority),
		ActionURL: m.ActionURL,
		Data:      m.Data,
		IsRead:    m.IsRead,
		ReadAt:    utc(m.ReadAt),
		ExpiresAt: utc(m.ExpiresAt),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func toTokenModel(t *domain.PushToken) *PushTokenModel {
	return &PushTokenModel{
		ID:            t.ID,
		RecipientType: string(t.Recipient.Kind),
		RecipientID:   t.Recipient.ID,
		Token:         t.Token,
		Platform:      t.Platform,
		CreatedAt:     t.CreatedAt,
	}
}

func toDomainToken(m *PushTokenModel) *domain.PushToken {
	return &domain.PushToken{
		ID:        m.ID,
		Recipient: domain.Recipient{Kind: domain.RecipientKind(m.RecipientType), ID: m.RecipientID},
		Token:     m.Token,
		Platform:  m.Platform,
		CreatedAt: m.CreatedAt.UTC(),
	}
}
