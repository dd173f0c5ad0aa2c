package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/service"
)

// ShopServicer defines the service methods needed by shop handlers.
// Satisfied by *service.ShopService; narrow interface for testability.
type ShopServicer interface {
	CreateShop(ctx context.Context, req service.CreateShopRequest) (database.Shop, error)
	UpdateShopSettings(ctx context.Context, shopID uuid.UUID, in service.ShopSettings) (database.Shop, error)
	DeleteShop(ctx context.Context, shopID uuid.UUID, confirmationName string, cascade bool) (*service.DeleteResult, error)
}

// ShopStore defines the read queries needed by shop handlers.
// Satisfied by *database.Queries.
type ShopStore interface {
	GetShop(ctx context.Context, id uuid.UUID) (database.Shop, error)
	ListShops(ctx context.Context) ([]database.Shop, error)
	ListShopsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.Shop, error)
}

type ShopHandler struct {
	svc   ShopServicer
	store ShopStore
	cache *cache.Store
}

func NewShopHandler(svc ShopServicer, store ShopStore, c *cache.Store) *ShopHandler {
	return &ShopHandler{svc: svc, store: store, cache: c}
}

// RegisterRoutes mounts the collection endpoints: /shops
func (h *ShopHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(middleware.RequireAdmin).Post("/", h.Create)
}

// RegisterShopRoutes mounts the single-shop endpoints inside /shops/{sid}.
func (h *ShopHandler) RegisterShopRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Patch("/", h.Update)
	r.With(middleware.RequireAdmin).Delete("/", h.Delete)
}

type createShopRequest struct {
	Name              string    `json:"name" validate:"required,max=120"`
	BusinessMode      string    `json:"business_mode" validate:"omitempty,oneof=restaurant shop"`
	OwnerID           uuid.UUID `json:"owner_id"`
	Timezone          string    `json:"timezone"`
	CleanAfterPayment *bool     `json:"clean_after_payment"`
}

type updateShopRequest struct {
	Name              *string `json:"name" validate:"omitempty,max=120"`
	BusinessMode      *string `json:"business_mode" validate:"omitempty,oneof=restaurant shop"`
	Timezone          *string `json:"timezone"`
	CleanAfterPayment *bool   `json:"clean_after_payment"`
}

// List returns every shop for admins, otherwise the caller's shops.
func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var (
		shops []database.Shop
		err   error
	)
	if claims.IsAdmin {
		shops, err = h.store.ListShops(r.Context())
	} else {
		shops, err = h.store.ListShopsByIDs(r.Context(), claims.ShopIDs)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if shops == nil {
		shops = []database.Shop{}
	}
	writeJSON(w, r, http.StatusOK, shops)
}

func (h *ShopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createShopRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	owner := req.OwnerID
	if owner == uuid.Nil {
		owner = middleware.ClaimsFromContext(r.Context()).UserID
	}
	shop, err := h.svc.CreateShop(r.Context(), service.CreateShopRequest{
		Name:              req.Name,
		BusinessMode:      database.BusinessMode(req.BusinessMode),
		OwnerID:           owner,
		Timezone:          req.Timezone,
		CleanAfterPayment: req.CleanAfterPayment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, shop)
}

func (h *ShopHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}
	serveCached(w, r, h.cache, cache.NewKey(cache.Shops, shopID), func(ctx context.Context) (any, error) {
		shop, err := h.store.GetShop(ctx, shopID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &service.NotFoundError{Err: service.ErrShopNotFound}
		}
		return shop, err
	})
}

// Update applies a partial settings change. Switching business mode is
// reserved for admins.
func (h *ShopHandler) Update(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	var req updateShopRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	in := service.ShopSettings{
		Name:              req.Name,
		Timezone:          req.Timezone,
		CleanAfterPayment: req.CleanAfterPayment,
	}
	if req.BusinessMode != nil {
		if claims := middleware.ClaimsFromContext(r.Context()); claims == nil || !claims.IsAdmin {
			writeMessage(w, r, http.StatusForbidden, "only admins can change business mode")
			return
		}
		mode := database.BusinessMode(*req.BusinessMode)
		in.BusinessMode = &mode
	}

	shop, err := h.svc.UpdateShopSettings(r.Context(), shopID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, shop)
}

// Delete removes a shop. A shop holding data is only removed with
// ?cascade=true&confirm_name=<exact shop name>; otherwise the response is a
// 409 carrying the row counts that would be deleted.
func (h *ShopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	cascade := false
	if v := r.URL.Query().Get("cascade"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeMessage(w, r, http.StatusBadRequest, "cascade must be a boolean")
			return
		}
		cascade = b
	}

	res, err := h.svc.DeleteShop(r.Context(), shopID, r.URL.Query().Get("confirm_name"), cascade)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
