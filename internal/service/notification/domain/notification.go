// internal/service/notification/domain/notification.go
package domain

import (
	"strings"
	"time"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/events"
)

// RecipientKind 是通知接收方的类型
type RecipientKind string

const (
	RecipientUser     RecipientKind = "user"
	RecipientCoach    RecipientKind = "coach"
	RecipientAcademy  RecipientKind = "academy"
	RecipientTurf     RecipientKind = "turf"
	RecipientSupplier RecipientKind = "supplier"
)

var recipientKinds = map[RecipientKind]struct{}{
	RecipientUser: {}, RecipientCoach: {}, RecipientAcademy: {}, RecipientTurf: {}, RecipientSupplier: {},
}

// Recipient 标识一个接收方
type Recipient struct {
	Kind RecipientKind `json:"kind"`
	ID   string        `json:"id"`
}

func NewRecipient(kind, id string) (Recipient, error) {
	k := RecipientKind(strings.ToLower(strings.TrimSpace(kind)))
	if _, ok := recipientKinds[k]; !ok {
		return Recipient{}, ErrInvalidRecipient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Recipient{}, ErrInvalidRecipient
	}
	return Recipient{Kind: k, ID: id}, nil
}

// Key 是接收方在会话目录和连接表中的键
func (r Recipient) Key() string {
	return string(r.Kind) + ":" + r.ID
}

// Notification 是持久化的站内通知，持久化后才会尝试实时和推送渠道
type Notification struct {
	ID        string
	Recipient Recipient
	Type      events.NotificationType
	Title     string
	Message   string
	Priority  events.Priority
	ActionURL string
	Data      map[string]string
	IsRead    bool
	ReadAt    *time.Time
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// FromEvent 把 Kafka 上的事件转为通知。事件 ID 即通知 ID，用于幂等写入。
// 未指定过期时间时使用 defaultTTL，defaultTTL<=0 表示永不过期。
func FromEvent(e events.Notification, defaultTTL time.Duration, now time.Time) (*Notification, error) {
	if strings.TrimSpace(e.EventID) == "" {
		return nil, ErrEventIDRequired
	}
	r, err := NewRecipient(e.RecipientType, e.RecipientID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Message) == "" {
		return nil, apperr.Validation("notification needs a title or message")
	}
	prio := e.Priority
	switch prio {
	case events.PriorityLow, events.PriorityNormal, events.PriorityHigh:
	case "":
		prio = events.PriorityNormal
	default:
		return nil, apperr.Validation("priority must be low, normal or high")
	}

	now = now.UTC()
	created := now
	if !e.OccurredAt.IsZero() {
		created = e.OccurredAt.UTC()
	}
	n := &Notification{
		ID:        e.EventID,
		Recipient: r,
		Type:      e.Type,
		Title:     e.Title,
		Message:   e.Message,
		Priority:  prio,
		ActionURL: e.ActionURL,
		Data:      e.Data,
		ExpiresAt: e.ExpiresAt,
		CreatedAt: created,
	}
	if n.ExpiresAt == nil && defaultTTL > 0 {
		exp := created.Add(defaultTTL)
		n.ExpiresAt = &exp
	}
	return n, nil
}

// MarkRead 标记已读，重复调用是幂等的
func (n *Notification) MarkRead(r Recipient, now time.Time) error {
	if n.Recipient != r {
		return ErrNotRecipient
	}
	if n.IsRead {
		return nil
	}
	now = now.UTC()
	n.IsRead = true
	n.ReadAt = &now
	return nil
}

// Expired 判断通知在 now 时是否已过期
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}
