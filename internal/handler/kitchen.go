package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/service"
)

// KitchenServicer defines the service methods needed by kitchen handlers.
// Satisfied by *service.KitchenService.
type KitchenServicer interface {
	AdvanceTicket(ctx context.Context, shopID, ticketID uuid.UUID, next database.TicketStatus) (*service.TicketResult, error)
	GetTicket(ctx context.Context, shopID, ticketID uuid.UUID) (*service.TicketResult, error)
}

type KitchenStore interface {
	ListKitchenTickets(ctx context.Context, arg database.ListKitchenTicketsParams) ([]database.KitchenTicket, error)
}

// KitchenHandler serves the kitchen display.
type KitchenHandler struct {
	svc   KitchenServicer
	store KitchenStore
	cache *cache.Store
}

func NewKitchenHandler(svc KitchenServicer, store KitchenStore, c *cache.Store) *KitchenHandler {
	return &KitchenHandler{svc: svc, store: store, cache: c}
}

// RegisterRoutes mounts /shops/{sid}/kitchen.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tickets", h.List)
	r.Get("/tickets/{tid}", h.Get)
	r.Patch("/tickets/{tid}", h.Advance)
}

type advanceTicketRequest struct {
	Status string `json:"status" validate:"required,oneof=pending preparing ready served"`
}

// List returns tickets, optionally filtered by ?status=.
func (h *KitchenHandler) List(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	params := database.ListKitchenTicketsParams{ShopID: shopID}
	status := r.URL.Query().Get("status")
	if status != "" {
		if err := validate.Var(status, "oneof=pending preparing ready served"); err != nil {
			writeMessage(w, r, http.StatusBadRequest, "invalid status filter")
			return
		}
		params.Status = database.NullTicketStatus{TicketStatus: database.TicketStatus(status), Valid: true}
	}

	serveCached(w, r, h.cache, cache.NewKey(cache.KitchenTickets, shopID, status), func(ctx context.Context) (any, error) {
		tickets, err := h.store.ListKitchenTickets(ctx, params)
		if tickets == nil {
			tickets = []database.KitchenTicket{}
		}
		return tickets, err
	})
}

func (h *KitchenHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopID, ticketID, ok := shopParams(w, r, "tid", "ticket")
	if !ok {
		return
	}

	res, err := h.svc.GetTicket(r.Context(), shopID, ticketID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Advance moves a ticket forward. Backward moves answer 409.
func (h *KitchenHandler) Advance(w http.ResponseWriter, r *http.Request) {
	shopID, ticketID, ok := shopParams(w, r, "tid", "ticket")
	if !ok {
		return
	}

	var req advanceTicketRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.AdvanceTicket(r.Context(), shopID, ticketID, database.TicketStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
