package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/conflict"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
)

const maxPartySize = 100

// ReservationRequest is the input for creating or editing a reservation.
type ReservationRequest struct {
	CustomerName  string
	CustomerPhone string
	Notes         string
	PartySize     int32
	Time          time.Time
	TableID       uuid.UUID // uuid.Nil leaves the reservation unassigned
	CreatedBy     uuid.UUID
}

// ReservationResult is a written reservation plus the advisory conflicts that
// did not block it.
type ReservationResult struct {
	Reservation database.Reservation `json:"reservation"`
	Conflicts   conflict.Result      `json:"conflicts"`
}

// ReservationService books, seats and closes reservations. Every write
// re-runs the conflict detector inside the shop-locked transaction.
type ReservationService struct {
	core
}

func NewReservationService(pool TxBeginner, newStore NewStore, opts Options) *ReservationService {
	return &ReservationService{core: newCore(pool, newStore, opts)}
}

// CheckConflicts runs the detector without writing, for form warnings. It
// does not take the shop lock; writes run the detector again under it.
func (s *ReservationService) CheckConflicts(ctx context.Context, shopID uuid.UUID, p conflict.Proposal) (conflict.Result, error) {
	var res conflict.Result
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		shop, err := readRestaurant(ctx, store, shopID)
		if err != nil {
			return nil, err
		}
		snap, err := snapshot(ctx, store, shop)
		if err != nil {
			return nil, err
		}
		res = conflict.Detect(p, snap)
		return nil, nil
	})
	return res, err
}

func (s *ReservationService) CreateReservation(ctx context.Context, shopID uuid.UUID, req ReservationRequest) (*ReservationResult, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	var result ReservationResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		shop, err := lockRestaurant(ctx, store, shopID)
		if err != nil {
			return nil, err
		}
		snap, err := snapshot(ctx, store, shop)
		if err != nil {
			return nil, err
		}
		res := conflict.Detect(conflict.Proposal{
			Time:      req.Time,
			PartySize: req.PartySize,
			TableID:   req.TableID,
		}, snap)
		if !res.CanProceed() {
			return nil, &ConflictError{Err: ErrReservationConflict, Conflicts: res.Conflicts}
		}

		r, err := store.CreateReservation(ctx, database.CreateReservationParams{
			ShopID:          shopID,
			TableID:         optionalUUID(req.TableID),
			CustomerName:    req.CustomerName,
			CustomerPhone:   optionalText(req.CustomerPhone),
			PartySize:       req.PartySize,
			ReservationTime: req.Time,
			Notes:           optionalText(req.Notes),
			CreatedBy:       req.CreatedBy,
		})
		if err != nil {
			return nil, fmt.Errorf("create reservation: %w", err)
		}
		result = ReservationResult{Reservation: r, Conflicts: res}

		evs := []events.Event{{Type: events.ReservationCreated, ShopID: shopID, Payload: r}}
		if req.TableID != uuid.Nil {
			t, changed, err := markReserved(ctx, store, shopID, req.TableID)
			if err != nil {
				return nil, err
			}
			if changed {
				evs = append(evs, tableEvent(t))
			}
		}
		return evs, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateReservation edits a confirmed reservation and moves its reserved
// marker when the table changes.
func (s *ReservationService) UpdateReservation(ctx context.Context, shopID, reservationID uuid.UUID, req ReservationRequest) (*ReservationResult, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	var result ReservationResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		shop, err := lockRestaurant(ctx, store, shopID)
		if err != nil {
			return nil, err
		}
		current, err := getConfirmed(ctx, store, shopID, reservationID)
		if err != nil {
			return nil, err
		}
		snap, err := snapshot(ctx, store, shop)
		if err != nil {
			return nil, err
		}
		res := conflict.Detect(conflict.Proposal{
			Time:                 req.Time,
			PartySize:            req.PartySize,
			TableID:              req.TableID,
			ExcludeReservationID: current.ID,
		}, snap)
		if !res.CanProceed() {
			return nil, &ConflictError{Err: ErrReservationConflict, Conflicts: res.Conflicts}
		}

		r, err := store.UpdateReservation(ctx, database.UpdateReservationParams{
			ID:              current.ID,
			ShopID:          shopID,
			TableID:         optionalUUID(req.TableID),
			CustomerName:    req.CustomerName,
			CustomerPhone:   optionalText(req.CustomerPhone),
			PartySize:       req.PartySize,
			ReservationTime: req.Time,
			Notes:           optionalText(req.Notes),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, conflicted(ErrConcurrentUpdate)
			}
			return nil, fmt.Errorf("update reservation: %w", err)
		}
		result = ReservationResult{Reservation: r, Conflicts: res}

		evs := []events.Event{{Type: events.ReservationUpdated, ShopID: shopID, Payload: r}}
		tableEvs, err := moveMarker(ctx, store, shopID, current.ID, tableOf(current), req.TableID)
		if err != nil {
			return nil, err
		}
		return append(evs, tableEvs...), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SeatReservation seats a confirmed party. The detector is re-run at commit
// time against the locked snapshot, so of two concurrent seat requests for
// the same table only the first succeeds. tableID overrides the assigned
// table when set.
func (s *ReservationService) SeatReservation(ctx context.Context, shopID, reservationID, tableID uuid.UUID) (*ReservationResult, error) {
	var result ReservationResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		shop, err := lockRestaurant(ctx, store, shopID)
		if err != nil {
			return nil, err
		}
		r, err := getConfirmed(ctx, store, shopID, reservationID)
		if err != nil {
			return nil, err
		}

		target := tableID
		if target == uuid.Nil {
			target = tableOf(r)
		}
		if target == uuid.Nil {
			return nil, invalid(ErrTableRequired)
		}

		snap, err := snapshot(ctx, store, shop)
		if err != nil {
			return nil, err
		}
		res := conflict.Detect(conflict.Proposal{
			Time:                 r.ReservationTime,
			PartySize:            r.PartySize,
			TableID:              target,
			ExcludeReservationID: r.ID,
		}, snap)
		if !res.TableScoped().CanProceed() {
			return nil, &ConflictError{Err: ErrReservationConflict, Conflicts: res.Conflicts}
		}

		t, err := getTable(ctx, store, shopID, target)
		if err != nil {
			return nil, err
		}
		if t.Status != database.TableStatusAvailable && t.Status != database.TableStatusReserved {
			return nil, &ConflictError{Err: ErrTableNotAvailable, Conflicts: res.Conflicts}
		}

		var evs []events.Event
		prev := tableOf(r)
		if target != prev {
			r, err = store.UpdateReservation(ctx, database.UpdateReservationParams{
				ID:              r.ID,
				ShopID:          shopID,
				TableID:         optionalUUID(target),
				CustomerName:    r.CustomerName,
				CustomerPhone:   r.CustomerPhone,
				PartySize:       r.PartySize,
				ReservationTime: r.ReservationTime,
				Notes:           r.Notes,
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, conflicted(ErrConcurrentUpdate)
				}
				return nil, fmt.Errorf("assign table: %w", err)
			}
		}

		seated, err := store.UpdateReservationStatus(ctx, database.UpdateReservationStatusParams{
			ID:         r.ID,
			ShopID:     shopID,
			Status:     database.ReservationStatusSeated,
			FromStatus: database.ReservationStatusConfirmed,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, conflicted(ErrConcurrentUpdate)
			}
			return nil, fmt.Errorf("seat reservation: %w", err)
		}
		// Release the old table's marker only after this reservation stopped
		// being confirmed, so it does not count itself.
		if prev != uuid.Nil && prev != target {
			ot, changed, err := releaseMarker(ctx, store, shopID, prev, r.ID)
			if err != nil {
				return nil, err
			}
			if changed {
				evs = append(evs, tableEvent(ot))
			}
		}

		t, err = setTableStatus(ctx, store, t, database.TableStatusOccupied)
		if err != nil {
			return nil, err
		}
		result = ReservationResult{Reservation: seated, Conflicts: res}
		evs = append([]events.Event{
			{Type: events.ReservationUpdated, ShopID: shopID, Payload: seated},
			tableEvent(t),
		}, evs...)
		return evs, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelReservation cancels a confirmed reservation.
func (s *ReservationService) CancelReservation(ctx context.Context, shopID, reservationID uuid.UUID) (*database.Reservation, error) {
	return s.close(ctx, shopID, reservationID, database.ReservationStatusCancelled)
}

// MarkNoShow closes a confirmed reservation whose party never arrived.
func (s *ReservationService) MarkNoShow(ctx context.Context, shopID, reservationID uuid.UUID) (*database.Reservation, error) {
	return s.close(ctx, shopID, reservationID, database.ReservationStatusNoShow)
}

func (s *ReservationService) close(ctx context.Context, shopID, reservationID uuid.UUID, status database.ReservationStatus) (*database.Reservation, error) {
	var result database.Reservation
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		if _, err := lockRestaurant(ctx, store, shopID); err != nil {
			return nil, err
		}
		r, err := getConfirmed(ctx, store, shopID, reservationID)
		if err != nil {
			return nil, err
		}
		closed, err := store.UpdateReservationStatus(ctx, database.UpdateReservationStatusParams{
			ID:         r.ID,
			ShopID:     shopID,
			Status:     status,
			FromStatus: database.ReservationStatusConfirmed,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, conflicted(ErrConcurrentUpdate)
			}
			return nil, fmt.Errorf("update reservation status: %w", err)
		}
		result = closed

		evs := []events.Event{{Type: events.ReservationUpdated, ShopID: shopID, Payload: closed}}
		if tid := tableOf(r); tid != uuid.Nil {
			t, changed, err := releaseMarker(ctx, store, shopID, tid, r.ID)
			if err != nil {
				return nil, err
			}
			if changed {
				evs = append(evs, tableEvent(t))
			}
		}
		return evs, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ReservationService) validate(req *ReservationRequest) error {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	if req.CustomerName == "" {
		return invalid(ErrCustomerNameRequired)
	}
	if req.PartySize < 1 || req.PartySize > maxPartySize {
		return invalid(ErrInvalidPartySize)
	}
	if !req.Time.After(s.opts.Now()) {
		return invalid(ErrReservationInPast)
	}
	return nil
}

func snapshot(ctx context.Context, store Store, shop database.Shop) (conflict.Snapshot, error) {
	tables, err := store.ListTablesByShop(ctx, shop.ID)
	if err != nil {
		return conflict.Snapshot{}, fmt.Errorf("list tables: %w", err)
	}
	reservations, err := store.ListActiveReservations(ctx, shop.ID)
	if err != nil {
		return conflict.Snapshot{}, fmt.Errorf("list reservations: %w", err)
	}
	return conflict.Snapshot{
		Reservations: reservations,
		Tables:       tables,
		Location:     shopLocation(shop),
	}, nil
}

func getConfirmed(ctx context.Context, store Store, shopID, reservationID uuid.UUID) (database.Reservation, error) {
	r, err := store.GetReservation(ctx, database.GetReservationParams{ID: reservationID, ShopID: shopID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, notFound(ErrReservationNotFound)
		}
		return r, fmt.Errorf("get reservation: %w", err)
	}
	switch r.Status {
	case database.ReservationStatusConfirmed:
		return r, nil
	case database.ReservationStatusSeated:
		return r, badState(ErrReservationSeated)
	default:
		return r, badState(ErrReservationNotConfirmed)
	}
}

func tableOf(r database.Reservation) uuid.UUID {
	return pgUUID(r.TableID)
}

func pgUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return uuid.UUID(id.Bytes)
}

// markReserved flags an available table as reserved.
func markReserved(ctx context.Context, store Store, shopID, tableID uuid.UUID) (database.DiningTable, bool, error) {
	t, err := getTable(ctx, store, shopID, tableID)
	if err != nil {
		return t, false, err
	}
	if t.Status != database.TableStatusAvailable {
		return t, false, nil
	}
	t, err = setTableStatus(ctx, store, t, database.TableStatusReserved)
	return t, err == nil, err
}

// releaseMarker returns a reserved table to available once no other
// confirmed reservation points at it.
func releaseMarker(ctx context.Context, store Store, shopID, tableID, excludeReservation uuid.UUID) (database.DiningTable, bool, error) {
	t, err := getTable(ctx, store, shopID, tableID)
	if err != nil {
		if errors.As(err, new(*NotFoundError)) {
			return t, false, nil
		}
		return t, false, err
	}
	if t.Status != database.TableStatusReserved {
		return t, false, nil
	}
	active, err := store.ListActiveReservations(ctx, shopID)
	if err != nil {
		return t, false, fmt.Errorf("list reservations: %w", err)
	}
	for _, r := range active {
		if r.ID != excludeReservation && r.Status == database.ReservationStatusConfirmed && tableOf(r) == tableID {
			return t, false, nil
		}
	}
	t, err = setTableStatus(ctx, store, t, database.TableStatusAvailable)
	return t, err == nil, err
}

func moveMarker(ctx context.Context, store Store, shopID, reservationID, from, to uuid.UUID) ([]events.Event, error) {
	if from == to {
		return nil, nil
	}
	var evs []events.Event
	if from != uuid.Nil {
		t, changed, err := releaseMarker(ctx, store, shopID, from, reservationID)
		if err != nil {
			return nil, err
		}
		if changed {
			evs = append(evs, tableEvent(t))
		}
	}
	if to != uuid.Nil {
		t, changed, err := markReserved(ctx, store, shopID, to)
		if err != nil {
			return nil, err
		}
		if changed {
			evs = append(evs, tableEvent(t))
		}
	}
	return evs, nil
}
