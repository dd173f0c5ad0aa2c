package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/service"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService.
type TableServicer interface {
	CreateTable(ctx context.Context, shopID uuid.UUID, req service.CreateTableRequest) (database.DiningTable, error)
	UpdateStatus(ctx context.Context, shopID, tableID uuid.UUID, next database.TableStatus) (database.DiningTable, error)
}

type TableStore interface {
	ListTablesByShop(ctx context.Context, shopID uuid.UUID) ([]database.DiningTable, error)
}

// TableHandler handles the floor plan endpoints.
type TableHandler struct {
	svc   TableServicer
	store TableStore
	cache *cache.Store
}

func NewTableHandler(svc TableServicer, store TableStore, c *cache.Store) *TableHandler {
	return &TableHandler{svc: svc, store: store, cache: c}
}

// RegisterRoutes mounts /shops/{sid}/tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{id}/status", h.UpdateStatus)
}

type createTableRequest struct {
	Number   int32  `json:"number" validate:"required,gte=1"`
	Capacity int32  `json:"capacity" validate:"required,gte=1,lte=100"`
	Section  string `json:"section" validate:"max=60"`
}

type updateTableStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available occupied reserved cleaning"`
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}
	serveCached(w, r, h.cache, cache.NewKey(cache.Tables, shopID), func(ctx context.Context) (any, error) {
		tables, err := h.store.ListTablesByShop(ctx, shopID)
		if tables == nil {
			tables = []database.DiningTable{}
		}
		return tables, err
	})
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	var req createTableRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.svc.CreateTable(r.Context(), shopID, service.CreateTableRequest{
		Number:   req.Number,
		Capacity: req.Capacity,
		Section:  req.Section,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, table)
}

// UpdateStatus moves a table along the floor state machine. Releasing a
// table still claimed by an open order answers 409.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	shopID, tableID, ok := shopParams(w, r, "id", "table")
	if !ok {
		return
	}

	var req updateTableStatusRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.svc.UpdateStatus(r.Context(), shopID, tableID, database.TableStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).WithField("table_id", tableID).WithField("status", table.Status).Debug("table status changed")
	writeJSON(w, r, http.StatusOK, table)
}
