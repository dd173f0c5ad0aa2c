package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/service"
)

// CategoryStore defines the database methods needed by category handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CategoryStore interface {
	ListCategoriesByShop(ctx context.Context, shopID uuid.UUID) ([]database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	DeleteCategory(ctx context.Context, arg database.DeleteCategoryParams) (uuid.UUID, error)
}

var errCategoryNotFound = errors.New("category not found")

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	store    CategoryStore
	cache    *cache.Store
	notifier Notifier
}

func NewCategoryHandler(store CategoryStore, c *cache.Store, n Notifier) *CategoryHandler {
	return &CategoryHandler{store: store, cache: c, notifier: orNop(n)}
}

// RegisterRoutes registers category endpoints on the given Chi router.
// Expected to be mounted inside a shop-scoped subrouter: /shops/{sid}/categories
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required,max=80"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}
	serveCached(w, r, h.cache, cache.NewKey(cache.Categories, shopID), func(ctx context.Context) (any, error) {
		categories, err := h.store.ListCategoriesByShop(ctx, shopID)
		if categories == nil {
			categories = []database.Category{}
		}
		return categories, err
	})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	var req createCategoryRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		ShopID: shopID,
		Name:   strings.TrimSpace(req.Name),
		Color:  req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.notifier.Notify(r.Context(), events.Event{Type: events.CatalogUpdated, ShopID: shopID, Payload: category})
	writeJSON(w, r, http.StatusCreated, category)
}

// Delete removes a category and its products. Products that already appear
// on orders keep the category alive.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	shopID, catID, ok := shopParams(w, r, "id", "category")
	if !ok {
		return
	}

	_, err := h.store.DeleteCategory(r.Context(), database.DeleteCategoryParams{ID: catID, ShopID: shopID})
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, r, &service.NotFoundError{Err: errCategoryNotFound})
		case errors.As(err, &pgErr) && pgErr.Code == "23503":
			writeMessage(w, r, http.StatusConflict, "category has products referenced by orders")
		default:
			writeError(w, r, err)
		}
		return
	}

	logger.FromContext(r.Context()).WithField("category_id", catID).Info("category deleted")
	h.notifier.Notify(r.Context(), events.Event{Type: events.CatalogUpdated, ShopID: shopID, Payload: map[string]uuid.UUID{"deleted_category_id": catID}})
	w.WriteHeader(http.StatusNoContent)
}
