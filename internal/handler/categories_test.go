package handler_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/handler"
)

// --- Mock store ---

type mockCategoryStore struct {
	categories map[uuid.UUID]database.Category // keyed by category ID
	lists      int
	deleteErr  error
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{categories: make(map[uuid.UUID]database.Category)}
}

func (m *mockCategoryStore) ListCategoriesByShop(_ context.Context, shopID uuid.UUID) ([]database.Category, error) {
	m.lists++
	var result []database.Category
	for _, c := range m.categories {
		if c.ShopID == shopID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockCategoryStore) CreateCategory(_ context.Context, arg database.CreateCategoryParams) (database.Category, error) {
	c := database.Category{
		ID:        uuid.New(),
		ShopID:    arg.ShopID,
		Name:      arg.Name,
		Color:     arg.Color,
		CreatedAt: time.Now(),
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockCategoryStore) DeleteCategory(_ context.Context, arg database.DeleteCategoryParams) (uuid.UUID, error) {
	if m.deleteErr != nil {
		return uuid.Nil, m.deleteErr
	}
	c, ok := m.categories[arg.ID]
	if !ok || c.ShopID != arg.ShopID {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.categories, c.ID)
	return c.ID, nil
}

// --- Helpers ---

func setupCategoryRouter(store *mockCategoryStore) (*chi.Mux, *cache.Store) {
	c := cache.New()
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := handler.NewCategoryHandler(store, c, events.NewDispatcher(c, log))
	r := chi.NewRouter()
	r.Route("/shops/{sid}/categories", h.RegisterRoutes)
	return r, c
}

// --- Tests ---

func TestCategoryList_Empty(t *testing.T) {
	router, _ := setupCategoryRouter(newMockCategoryStore())
	rr := doRequest(t, router, "GET", "/shops/"+uuid.New().String()+"/categories", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeList(t, rr); len(resp) != 0 {
		t.Fatalf("expected empty list, got %d items", len(resp))
	}
}

func TestCategoryList_CachedUntilWrite(t *testing.T) {
	store := newMockCategoryStore()
	router, _ := setupCategoryRouter(store)
	shopID := uuid.New()
	path := "/shops/" + shopID.String() + "/categories"

	first := doRequest(t, router, "GET", path, nil)
	second := doRequest(t, router, "GET", path, nil)
	if got := first.Header().Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache: got %q, want miss", got)
	}
	if got := second.Header().Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache: got %q, want hit", got)
	}
	if store.lists != 1 {
		t.Fatalf("store lists: got %d, want 1", store.lists)
	}

	rr := doRequest(t, router, "POST", path, map[string]string{"name": "Drinks", "color": "#33aaff"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	third := doRequest(t, router, "GET", path, nil)
	if got := third.Header().Get("X-Cache"); got != "miss" {
		t.Errorf("after write X-Cache: got %q, want miss", got)
	}
	if resp := decodeList(t, third); len(resp) != 1 || resp[0]["name"] != "Drinks" {
		t.Fatalf("unexpected list after create: %v", resp)
	}
}

func TestCategoryCreate_Validation(t *testing.T) {
	router, _ := setupCategoryRouter(newMockCategoryStore())
	path := "/shops/" + uuid.New().String() + "/categories"

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing name", map[string]string{"color": "#fff"}},
		{"bad color", map[string]string{"name": "Mains", "color": "red"}},
		{"not json", "just a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, "POST", path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCategoryCreate_InvalidShopID(t *testing.T) {
	router, _ := setupCategoryRouter(newMockCategoryStore())
	rr := doRequest(t, router, "POST", "/shops/not-a-uuid/categories", map[string]string{"name": "x"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCategoryDelete(t *testing.T) {
	store := newMockCategoryStore()
	router, _ := setupCategoryRouter(store)
	shopID := uuid.New()
	c, _ := store.CreateCategory(context.Background(), database.CreateCategoryParams{ShopID: shopID, Name: "Desserts"})

	// Wrong shop
	rr := doRequest(t, router, "DELETE", "/shops/"+uuid.New().String()+"/categories/"+c.ID.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("other shop status: got %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr = doRequest(t, router, "DELETE", "/shops/"+shopID.String()+"/categories/"+c.ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if len(store.categories) != 0 {
		t.Fatal("category not deleted")
	}
}

func TestCategoryDelete_ReferencedByOrders(t *testing.T) {
	store := newMockCategoryStore()
	store.deleteErr = &pgconn.PgError{Code: "23503"}
	router, _ := setupCategoryRouter(store)

	rr := doRequest(t, router, "DELETE", "/shops/"+uuid.New().String()+"/categories/"+uuid.New().String(), nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}
