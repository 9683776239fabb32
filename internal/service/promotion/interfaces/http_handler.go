// internal/service/promotion/interfaces/http_handler.go
package interfaces

import (
	"net/http"
	"strings"
	"time"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/promotion/application"
)

// maxBoostIDs 限制一次批量查询的 id 数量
const maxBoostIDs = 500

// PromotionHandler 封装了 promotion 服务的 HTTP 处理器
type PromotionHandler struct {
	service     *application.PromotionService
	requireAuth httpx.Middleware
}

func NewPromotionHandler(service *application.PromotionService, requireAuth httpx.Middleware) *PromotionHandler {
	return &PromotionHandler{service: service, requireAuth: requireAuth}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *PromotionHandler) RegisterRoutes(mux *http.ServeMux) {
	httpx.HandleFunc(mux, "GET /promotions/plans", h.handleListPlans)
	httpx.HandleFunc(mux, "GET /promotions/boost", h.handleBoost)
	httpx.HandleFunc(mux, "GET /promotions/boosts", h.handleBoosts)

	httpx.HandleFunc(mux, "POST /promotions", h.handleCreate, h.requireAuth)
	httpx.HandleFunc(mux, "GET /promotions", h.handleList, h.requireAuth)
	httpx.HandleFunc(mux, "GET /promotions/{id}", h.handleGet, h.requireAuth)
	httpx.HandleFunc(mux, "POST /promotions/{id}/payment", h.handlePayment, h.requireAuth)
	httpx.HandleFunc(mux, "POST /promotions/{id}/cancel", h.handleCancel, h.requireAuth)
}

func callerFrom(r *http.Request) application.Caller {
	actor, _ := auth.ActorFrom(r.Context())
	return application.Caller{ID: actor.ID, Admin: actor.Role == auth.RoleAdmin}
}

func (h *PromotionHandler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, "Promotion plans fetched", h.service.ListPlans())
}

func (h *PromotionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	var req application.CreatePromotionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	tx, err := h.service.CreatePromotionTransaction(ctx, callerFrom(r), &req)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.Created(w, "Promotion transaction created", toPromotionDTO(tx))
}

func (h *PromotionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	tx, err := h.service.GetPromotion(ctx, callerFrom(r), r.PathValue("id"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Promotion fetched", toPromotionDTO(tx))
}

func (h *PromotionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	txs, err := h.service.ListSupplierPromotions(ctx, callerFrom(r), r.URL.Query().Get("supplierId"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	out := make([]PromotionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toPromotionDTO(tx))
	}
	httpx.OK(w, "Promotions fetched", out)
}

func (h *PromotionHandler) handlePayment(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	var req application.PaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	tx, err := h.service.ProcessPromotionPayment(ctx, callerFrom(r), r.PathValue("id"), &req)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Promotion activated", toPromotionDTO(tx))
}

func (h *PromotionHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	tx, err := h.service.CancelPromotion(ctx, callerFrom(r), r.PathValue("id"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Promotion cancelled", toPromotionDTO(tx))
}

func (h *PromotionHandler) handleBoost(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	q := r.URL.Query()
	ref, err := listing.NewRef(q.Get("serviceType"), q.Get("serviceId"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	boost, err := h.service.RankingBoostFor(ctx, ref, time.Now().UTC())
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Boost fetched", BoostDTO{ServiceType: string(ref.Kind), ServiceID: ref.ID, Boost: boost})
}

func (h *PromotionHandler) handleBoosts(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	q := r.URL.Query()
	kind, err := listing.ParseKind(q.Get("serviceType"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	ids := splitIDs(q.Get("ids"))
	if len(ids) > maxBoostIDs {
		ids = ids[:maxBoostIDs]
	}
	boosts, err := h.service.BoostsFor(ctx, kind, ids, time.Now().UTC())
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Boosts fetched", BoostsDTO{ServiceType: string(kind), Boosts: boosts})
}

func splitIDs(raw string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
