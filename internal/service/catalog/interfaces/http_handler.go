// internal/service/catalog/interfaces/http_handler.go
package interfaces

import (
	"net/http"

	"sportshub/internal/pkg/auth"
	"sportshub/internal/pkg/httpx"
	"sportshub/internal/pkg/listing"
	"sportshub/internal/service/catalog/application"
	"sportshub/internal/service/catalog/domain"
)

// CatalogHandler 封装了目录与搜索的 HTTP 处理器
type CatalogHandler struct {
	service     *application.CatalogService
	requireAuth httpx.Middleware
	limit       httpx.Middleware
}

// NewCatalogHandler limit 为搜索接口的限流中间件，可以为 nil
func NewCatalogHandler(service *application.CatalogService, requireAuth, limit httpx.Middleware) *CatalogHandler {
	return &CatalogHandler{service: service, requireAuth: requireAuth, limit: limit}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	var searchMws []httpx.Middleware
	if h.limit != nil {
		searchMws = append(searchMws, h.limit)
	}
	httpx.HandleFunc(mux, "GET /academies", h.search(listing.KindAcademy), searchMws...)
	httpx.HandleFunc(mux, "GET /coaches", h.search(listing.KindCoach), searchMws...)
	httpx.HandleFunc(mux, "GET /turfs", h.search(listing.KindTurf), searchMws...)

	httpx.HandleFunc(mux, "GET /listings/{kind}/{id}", h.handleGetListing)
	httpx.HandleFunc(mux, "POST /listings", h.handleCreateListing, h.requireAuth)
}

func (h *CatalogHandler) search(kind listing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := httpx.Extract(r)
		q, err := h.service.ParseQuery(kind, r.URL.Query())
		if err != nil {
			httpx.Fail(ctx, w, err)
			return
		}
		res, err := h.service.Search(ctx, q)
		if err != nil {
			httpx.Fail(ctx, w, err)
			return
		}
		httpx.OK(w, "Search results", toSearchResultDTO(res))
	}
}

func (h *CatalogHandler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	ref, err := listing.NewRef(r.PathValue("kind"), r.PathValue("id"))
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	l, err := h.service.GetListing(ctx, ref)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.OK(w, "Listing fetched", toListingDTO(l))
}

func (h *CatalogHandler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.Extract(r)
	actor, _ := auth.ActorFrom(r.Context())

	var d domain.ListingDraft
	if err := httpx.DecodeJSON(r, &d); err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	l, err := h.service.CreateListing(ctx, actor.ID, d)
	if err != nil {
		httpx.Fail(ctx, w, err)
		return
	}
	httpx.Created(w, "Listing created", toListingDTO(l))
}
