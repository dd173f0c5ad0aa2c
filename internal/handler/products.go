package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/service"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListCategoriesByShop(ctx context.Context, shopID uuid.UUID) ([]database.Category, error)
	ListProductsByShop(ctx context.Context, arg database.ListProductsByShopParams) ([]database.Product, error)
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	AdjustProductStock(ctx context.Context, arg database.AdjustProductStockParams) (database.Product, error)
}

// ProductHandler handles product endpoints. Price changes never touch
// existing order items, which carry their own price snapshot.
type ProductHandler struct {
	store    ProductStore
	cache    *cache.Store
	notifier Notifier
}

func NewProductHandler(store ProductStore, c *cache.Store, n Notifier) *ProductHandler {
	return &ProductHandler{store: store, cache: c, notifier: orNop(n)}
}

// RegisterRoutes registers product endpoints on the given Chi router.
// Expected to be mounted inside a shop-scoped subrouter: /shops/{sid}/products
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/stock", h.AdjustStock)
}

// --- Request / Response types ---

type productRequest struct {
	CategoryID      uuid.UUID `json:"category_id" validate:"required"`
	Name            string    `json:"name" validate:"required,max=120"`
	Price           string    `json:"price" validate:"required"`
	Stock           int32     `json:"stock" validate:"gte=0"`
	RequiresKitchen bool      `json:"requires_kitchen"`
}

type adjustStockRequest struct {
	Delta int32 `json:"delta" validate:"required"`
}

type productResponse struct {
	ID              uuid.UUID `json:"id"`
	ShopID          uuid.UUID `json:"shop_id"`
	CategoryID      uuid.UUID `json:"category_id"`
	Name            string    `json:"name"`
	Price           string    `json:"price"`
	Stock           int32     `json:"stock"`
	RequiresKitchen bool      `json:"requires_kitchen"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		ShopID:          p.ShopID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Price:           numericToString(p.Price),
		Stock:           p.Stock,
		RequiresKitchen: p.RequiresKitchen,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// --- Handlers ---

// List returns the shop's products, optionally filtered by ?category_id=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	filter := pgtype.UUID{}
	if s := r.URL.Query().Get("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeMessage(w, r, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter = pgtype.UUID{Bytes: id, Valid: true}
	}

	key := cache.NewKey(cache.Products, shopID, r.URL.Query().Get("category_id"))
	serveCached(w, r, h.cache, key, func(ctx context.Context) (any, error) {
		products, err := h.store.ListProductsByShop(ctx, database.ListProductsByShopParams{ShopID: shopID, CategoryID: filter})
		if err != nil {
			return nil, err
		}
		resp := make([]productResponse, len(products))
		for i, p := range products {
			resp[i] = toProductResponse(p)
		}
		return resp, nil
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopID, productID, ok := shopParams(w, r, "id", "product")
	if !ok {
		return
	}

	p, err := h.store.GetProduct(r.Context(), database.GetProductParams{ID: productID, ShopID: shopID})
	if err != nil {
		writeError(w, r, productErr(err))
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	req, price, ok := h.decodeProduct(w, r, shopID)
	if !ok {
		return
	}

	p, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		ShopID:          shopID,
		CategoryID:      req.CategoryID,
		Name:            strings.TrimSpace(req.Name),
		Price:           price,
		Stock:           req.Stock,
		RequiresKitchen: req.RequiresKitchen,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.notify(r.Context(), p)
	writeJSON(w, r, http.StatusCreated, toProductResponse(p))
}

// Update replaces name, price, category and kitchen routing. Stock is only
// changed through AdjustStock.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	shopID, productID, ok := shopParams(w, r, "id", "product")
	if !ok {
		return
	}

	req, price, ok := h.decodeProduct(w, r, shopID)
	if !ok {
		return
	}

	p, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:              productID,
		ShopID:          shopID,
		CategoryID:      req.CategoryID,
		Name:            strings.TrimSpace(req.Name),
		Price:           price,
		RequiresKitchen: req.RequiresKitchen,
	})
	if err != nil {
		writeError(w, r, productErr(err))
		return
	}

	h.notify(r.Context(), p)
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

// AdjustStock applies a signed delta. Stock never goes below zero.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	shopID, productID, ok := shopParams(w, r, "id", "product")
	if !ok {
		return
	}

	var req adjustStockRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.GetProduct(r.Context(), database.GetProductParams{ID: productID, ShopID: shopID}); err != nil {
		writeError(w, r, productErr(err))
		return
	}

	p, err := h.store.AdjustProductStock(r.Context(), database.AdjustProductStockParams{
		ID:     productID,
		ShopID: shopID,
		Delta:  req.Delta,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, r, &service.ValidationError{Err: service.ErrInsufficientStock})
			return
		}
		writeError(w, r, err)
		return
	}

	h.notify(r.Context(), p)
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

// --- Helpers ---

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request, shopID uuid.UUID) (productRequest, pgtype.Numeric, bool) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return req, pgtype.Numeric{}, false
	}

	price, err := parseMoney(req.Price)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "price: "+err.Error())
		return req, pgtype.Numeric{}, false
	}

	categories, err := h.store.ListCategoriesByShop(r.Context(), shopID)
	if err != nil {
		writeError(w, r, err)
		return req, pgtype.Numeric{}, false
	}
	for _, c := range categories {
		if c.ID == req.CategoryID {
			return req, price, true
		}
	}
	writeMessage(w, r, http.StatusBadRequest, "category_id does not belong to this shop")
	return req, pgtype.Numeric{}, false
}

func (h *ProductHandler) notify(ctx context.Context, p database.Product) {
	h.notifier.Notify(ctx, events.Event{Type: events.CatalogUpdated, ShopID: p.ShopID, Payload: toProductResponse(p)})
}

func productErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &service.NotFoundError{Err: service.ErrProductNotFound}
	}
	return err
}
