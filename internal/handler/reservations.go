package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/conflict"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/service"
)

// ReservationServicer defines the service methods needed by reservation
// handlers. Satisfied by *service.ReservationService.
type ReservationServicer interface {
	CheckConflicts(ctx context.Context, shopID uuid.UUID, p conflict.Proposal) (conflict.Result, error)
	CreateReservation(ctx context.Context, shopID uuid.UUID, req service.ReservationRequest) (*service.ReservationResult, error)
	UpdateReservation(ctx context.Context, shopID, reservationID uuid.UUID, req service.ReservationRequest) (*service.ReservationResult, error)
	SeatReservation(ctx context.Context, shopID, reservationID, tableID uuid.UUID) (*service.ReservationResult, error)
	CancelReservation(ctx context.Context, shopID, reservationID uuid.UUID) (*database.Reservation, error)
	MarkNoShow(ctx context.Context, shopID, reservationID uuid.UUID) (*database.Reservation, error)
}

type ReservationStore interface {
	ListReservations(ctx context.Context, arg database.ListReservationsParams) ([]database.Reservation, error)
}

type ReservationHandler struct {
	svc   ReservationServicer
	store ReservationStore
	cache *cache.Store
}

func NewReservationHandler(svc ReservationServicer, store ReservationStore, c *cache.Store) *ReservationHandler {
	return &ReservationHandler{svc: svc, store: store, cache: c}
}

// RegisterRoutes mounts /shops/{sid}/reservations.
func (h *ReservationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/conflicts", h.CheckConflicts)
	r.Put("/{rid}", h.Update)
	r.Patch("/{rid}", h.UpdateStatus)
}

type reservationRequest struct {
	CustomerName    string     `json:"customer_name" validate:"required,max=120"`
	CustomerPhone   string     `json:"customer_phone" validate:"max=40"`
	PartySize       int32      `json:"party_size" validate:"required,gte=1,lte=100"`
	ReservationTime time.Time  `json:"reservation_time" validate:"required"`
	TableID         *uuid.UUID `json:"table_id"`
	Notes           string     `json:"notes" validate:"max=500"`
}

type conflictCheckRequest struct {
	PartySize            int32      `json:"party_size" validate:"required,gte=1"`
	ReservationTime      time.Time  `json:"reservation_time" validate:"required"`
	TableID              *uuid.UUID `json:"table_id"`
	ExcludeReservationID *uuid.UUID `json:"exclude_reservation_id"`
}

type reservationStatusRequest struct {
	Status  string     `json:"status" validate:"required,oneof=seated cancelled no_show"`
	TableID *uuid.UUID `json:"table_id"`
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// List returns reservations in an optional [from, to) window, RFC 3339.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var from, to pgtype.Timestamptz
	for _, p := range []struct {
		name string
		dst  *pgtype.Timestamptz
	}{{"from", &from}, {"to", &to}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeMessage(w, r, http.StatusBadRequest, "invalid "+p.name+": want RFC 3339")
			return
		}
		*p.dst = pgtype.Timestamptz{Time: t, Valid: true}
	}

	key := cache.NewKey(cache.Reservations, shopID, q.Get("from"), q.Get("to"))
	serveCached(w, r, h.cache, key, func(ctx context.Context) (any, error) {
		rs, err := h.store.ListReservations(ctx, database.ListReservationsParams{ShopID: shopID, From: from, To: to})
		if rs == nil {
			rs = []database.Reservation{}
		}
		return rs, err
	})
}

// CheckConflicts reports conflicts for a proposed booking without writing.
func (h *ReservationHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	var req conflictCheckRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.CheckConflicts(r.Context(), shopID, conflict.Proposal{
		Time:                 req.ReservationTime,
		PartySize:            req.PartySize,
		TableID:              derefUUID(req.TableID),
		ExcludeReservationID: derefUUID(req.ExcludeReservationID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	shopID, ok := shopParam(w, r)
	if !ok {
		return
	}

	req, ok := decodeReservation(w, r)
	if !ok {
		return
	}

	res, err := h.svc.CreateReservation(r.Context(), shopID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	shopID, rid, ok := shopParams(w, r, "rid", "reservation")
	if !ok {
		return
	}

	req, ok := decodeReservation(w, r)
	if !ok {
		return
	}

	res, err := h.svc.UpdateReservation(r.Context(), shopID, rid, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// UpdateStatus seats, cancels or marks a reservation as a no-show. Seating
// accepts an optional table_id overriding the booked table.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	shopID, rid, ok := shopParams(w, r, "rid", "reservation")
	if !ok {
		return
	}

	var req reservationStatusRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var (
		out any
		err error
	)
	switch database.ReservationStatus(req.Status) {
	case database.ReservationStatusSeated:
		out, err = h.svc.SeatReservation(r.Context(), shopID, rid, derefUUID(req.TableID))
	case database.ReservationStatusCancelled:
		out, err = h.svc.CancelReservation(r.Context(), shopID, rid)
	case database.ReservationStatusNoShow:
		out, err = h.svc.MarkNoShow(r.Context(), shopID, rid)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func decodeReservation(w http.ResponseWriter, r *http.Request) (service.ReservationRequest, bool) {
	var req reservationRequest
	if err := decode(r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return service.ReservationRequest{}, false
	}

	var createdBy uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID
	}
	return service.ReservationRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		PartySize:     req.PartySize,
		Time:          req.ReservationTime,
		TableID:       derefUUID(req.TableID),
		CreatedBy:     createdBy,
	}, true
}
