// internal/service/booking/interfaces/http_handler.go
package interfaces

import (
	"net/http"
	"time"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/booking/application"
	"sportshub/internal/service/booking/domain"
)

// BookingHandler 封装了 booking 服务的 HTTP 处理器
type BookingHandler struct {
	service     *application.BookingService
	requireAuth httpx.Middleware
}

func NewBookingHandler(service *application.BookingService, requireAuth httpx.Middleware) *BookingHandler {
	return &BookingHandler{service: service, requireAuth: requireAuth}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *BookingHandler) RegisterRoutes(mux *http.ServeMux) {
	httpx.HandleFunc(mux, "GET /slots", h.handleListSlots)
	httpx.HandleFunc(mux, "GET /slots/{slotId}", h.handleGetSlot)

	httpx.HandleFunc(mux, "POST /slots", h.handleDefineSlot, h.requireAuth)
	httpx.HandleFunc(mux, "POST /slots/{slotId}/book", h.handleBookSlot, h.requireAuth)
	httpx.HandleFunc(mux, "POST /slots/{slotId}/block", h.handleBlockSlot, h.requireAuth)
	httpx.HandleFunc(mux, "POST /slots/{slotId}/cancel", h.handleCancelSlot, h.requireAuth)
	httpx.HandleFunc(mux, "PATCH /slots/{slotId}/payment", h.handleSlotPayment, h.requireAuth)
	httpx.HandleFunc(mux, "POST /requests/{requestId}/respond", h.handleRespond, h.requireAuth)
	httpx.HandleFunc(mux, "POST /requests/{requestId}/cancel", h.handleCancelRequest, h.requireAuth)
	httpx.HandleFunc(mux, "GET /requests", h.handleListRequests, h.requireAuth)
}

func (h *BookingHandler) handleDefineSlot(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	var req application.DefineSlotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	slot, err := h.service.DefineSlot(ctx, actor.ID, &req)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.Created(w, "Slot created", toSlotDTO(slot))
}

func (h *BookingHandler) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	slot, err := h.service.GetSlot(ctx, r.PathValue("slotId"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Slot fetched", toSlotDTO(slot))
}

func (h *BookingHandler) handleListSlots(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	q := r.URL.Query()

	var f domain.SlotFilter
	if q.Get("parentType") != "" || q.Get("parentId") != "" {
		parent, err := listing.NewRef(q.Get("parentType"), q.Get("parentId"))
		if err != nil {
			httpx.Fail(ctx, w, err)
			return
		}
		f.Parent = parent
	}
	var err error
	if f.From, err = parseTime(q.Get("from"), "from"); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	if f.To, err = parseTime(q.Get("to"), "to"); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	f.Status = domain.SlotStatus(q.Get("status"))

	slots, err := h.service.ListSlots(ctx, f)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotDTO(s))
	}
	httpx.OK(w, "Slots fetched", out)
}

func (h *BookingHandler) handleBookSlot(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	var req application.BookSlotRequest
	if err := httpx.DecodeOptionalJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	created, err := h.service.RequestSlot(ctx, r.PathValue("slotId"), actor.ID, domain.RequestDetails{
		Notes:    req.Notes,
		TeamSize: req.TeamSize,
	})
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.Created(w, "Slot request submitted", toRequestDTO(created))
}

func (h *BookingHandler) handleBlockSlot(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	slot, err := h.service.BlockSlot(ctx, r.PathValue("slotId"), actor.ID)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Slot blocked", toSlotDTO(slot))
}

func (h *BookingHandler) handleCancelSlot(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	var req application.CancelSlotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	cancelled, err := h.service.CancelSlotRequest(ctx, r.PathValue("slotId"), req.RequestID, actor.ID)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Booking cancelled", toRequestDTO(cancelled))
}

func (h *BookingHandler) handleSlotPayment(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	var req application.PaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	slot, err := h.service.RecordSlotPayment(ctx, r.PathValue("slotId"), actor.ID, req.PaymentStatus)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Payment status updated", toSlotDTO(slot))
}

func (h *BookingHandler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	var req application.RespondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	resolved, err := h.service.RespondToRequest(ctx, r.PathValue("requestId"), req.Action, actor.ID)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Request "+string(resolved.Status), toRequestDTO(resolved))
}

func (h *BookingHandler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	cancelled, err := h.service.CancelRequest(ctx, r.PathValue("requestId"), actor.ID)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Request cancelled", toRequestDTO(cancelled))
}

func (h *BookingHandler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())
	q := r.URL.Query()

	f := domain.RequestFilter{UserID: q.Get("userId"), SlotID: q.Get("slotId")}
	// 普通用户只能看自己的请求
	if actor.Role == auth.RoleUser {
		if f.UserID != "" && f.UserID != actor.ID {
			httpx.Fail(ctx, w, apperr.Forbidden("cannot list requests of another user"))
			return
		}
		f.UserID = actor.ID
	}

	reqs, err := h.service.ListRequests(ctx, f)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	out := make([]RequestDTO, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toRequestDTO(req))
	}
	httpx.OK(w, "Requests fetched", out)
}

func parseTime(v, field string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}
