// internal/service/notification/interfaces/http_handler.go
package interfaces

import (
	"net/http"
	"strconv"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/service/notification/application"
	"sportshub/internal/service/notification/domain"
)

// NotificationHandler 提供收件箱、已读和推送令牌注册
type NotificationHandler struct {
	service     *application.DispatchService
	requireAuth httpx.Middleware
}

func NewNotificationHandler(service *application.DispatchService, requireAuth httpx.Middleware) *NotificationHandler {
	return &NotificationHandler{service: service, requireAuth: requireAuth}
}

func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux) {
	httpx.HandleFunc(mux, "GET /notifications", h.handleList, h.requireAuth)
	httpx.HandleFunc(mux, "PATCH /notifications/{id}/read", h.handleMarkRead, h.requireAuth)
	httpx.HandleFunc(mux, "POST /push-tokens", h.handleRegisterToken, h.requireAuth)
}

// recipientFor 解析接收方，只有本人或管理员可以访问
func recipientFor(r *http.Request, kind, id string) (domain.Recipient, error) {
	recipient, err := domain.NewRecipient(kind, id)
	if err != nil {
		return domain.Recipient{}, err
	}
	actor, _ := auth.ActorFrom(r.Context())
	if actor.Role != auth.RoleAdmin && actor.ID != recipient.ID {
		return domain.Recipient{}, apperr.Forbidden("cannot access another recipient's notifications")
	}
	return recipient, nil
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	q := r.URL.Query()
	recipient, err := recipientFor(r, q.Get("recipientType"), q.Get("recipientId"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	unread, _ := strconv.ParseBool(q.Get("unread"))
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	items, p, err := h.service.List(ctx, recipient, unread, page, limit)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Notifications fetched", toInboxDTO(items, p))
}

type markReadRequest struct {
	RecipientType string `json:"recipientType"`
	RecipientID   string `json:"recipientId"`
}

func (h *NotificationHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	var req markReadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	recipient, err := recipientFor(r, req.RecipientType, req.RecipientID)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	n, err := h.service.MarkRead(ctx, r.PathValue("id"), recipient)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Notification marked as read", toNotificationDTO(n))
}

func (h *NotificationHandler) handleRegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	var req application.RegisterPushTokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	if _, err := recipientFor(r, req.RecipientType, req.RecipientID); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	tok, err := h.service.RegisterPushToken(ctx, &req)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.Created(w, "Push token registered", PushTokenDTO{
		ID:            tok.ID,
		RecipientType: string(tok.Recipient.Kind),
		RecipientID:   tok.Recipient.ID,
		Platform:      tok.Platform,
		CreatedAt:     tok.CreatedAt,
	})
}
