// internal/service/notification/domain/push_token.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"sportshub/internal/pkg/apperr"
)

// PushToken 是设备推送令牌
type PushToken struct {
	ID        string
	Recipient Recipient
	Token     string
	Platform  string
	CreatedAt time.Time
}

var platforms = map[string]struct{}{"android": {}, "ios": {}, "web": {}}

func NewPushToken(r Recipient, token, platform string, now time.Time) (*PushToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("token is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if _, ok := platforms[platform]; !ok {
		return nil, apperr.Validation("platform must be android, ios or web")
	}
	return &PushToken{
		ID:        uuid.NewString(),
		Recipient: r,
		Token:     token,
		Platform:  platform,
		CreatedAt: now.UTC(),
	}, nil
}
