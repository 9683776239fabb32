// internal/service/notification/infrastructure/adapter/push_webhook_adapter.go
package adapter

import (
	"context"

	"github.com/pkg/errors"

	"sportshub/internal/pkg/httpclient"
	"sportshub/internal/service/notification/domain"
)

// PushWebhookAdapter 把推送请求交给外部推送网关（FCM/APNs 转发服务）的 webhook
type PushWebhookAdapter struct {
	client *httpclient.Client
	url    string
}

func NewPushWebhookAdapter(client *httpclient.Client, url string) *PushWebhookAdapter {
	return &PushWebhookAdapter{client: client, url: url}
}

type pushRequest struct {
	Token        string           `json:"token"`
	Platform     string           `json:"platform"`
	Notification WireNotification `json:"notification"`
}

func (a *PushWebhookAdapter) Send(ctx context.Context, token *domain.PushToken, n *domain.Notification) error {
	err := a.client.PostJSON(ctx, a.url, pushRequest{
		Token:        token.Token,
		Platform:     token.Platform,
		Notification: toWire(n),
	}, nil)
	return errors.Wrap(err, "push webhook")
}
