package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
)

var ErrDuplicateTableNumber = errors.New("table number already exists in shop")

// tableEdges are the legal manual table transitions.
var tableEdges = map[database.TableStatus][]database.TableStatus{
	database.TableStatusAvailable: {database.TableStatusReserved, database.TableStatusOccupied},
	database.TableStatusReserved:  {database.TableStatusOccupied, database.TableStatusAvailable},
	database.TableStatusOccupied:  {database.TableStatusCleaning, database.TableStatusAvailable},
	database.TableStatusCleaning:  {database.TableStatusAvailable},
}

// CanTransitionTable reports whether from -> to is a legal table edge.
func CanTransitionTable(from, to database.TableStatus) bool {
	for _, s := range tableEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TableService manages the floor plan of restaurant-mode shops.
type TableService struct {
	core
}

func NewTableService(pool TxBeginner, newStore NewStore, opts Options) *TableService {
	return &TableService{core: newCore(pool, newStore, opts)}
}

// CreateTableRequest is the validated input for adding a table.
type CreateTableRequest struct {
	Number   int32
	Capacity int32
	Section  string
}

func (s *TableService) CreateTable(ctx context.Context, shopID uuid.UUID, req CreateTableRequest) (database.DiningTable, error) {
	if req.Number <= 0 {
		return database.DiningTable{}, invalid(ErrInvalidTableNumber)
	}
	if req.Capacity <= 0 {
		return database.DiningTable{}, invalid(ErrInvalidCapacity)
	}

	var table database.DiningTable
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		if _, err := lockRestaurant(ctx, store, shopID); err != nil {
			return nil, err
		}
		t, err := store.CreateTable(ctx, database.CreateTableParams{
			ShopID:   shopID,
			Number:   req.Number,
			Capacity: req.Capacity,
			Section:  strings.TrimSpace(req.Section),
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, conflicted(ErrDuplicateTableNumber)
			}
			return nil, fmt.Errorf("create table: %w", err)
		}
		table = t
		return []events.Event{tableEvent(t)}, nil
	})
	return table, err
}

// UpdateStatus applies a manual status change. A table only becomes occupied
// while something claims it, and it cannot be cleared while an order is open
// on it. Clearing an occupied table marks its seated parties as departed.
func (s *TableService) UpdateStatus(ctx context.Context, shopID, tableID uuid.UUID, next database.TableStatus) (database.DiningTable, error) {
	if !next.Valid() {
		return database.DiningTable{}, invalid(ErrInvalidTableStatus)
	}

	var table database.DiningTable
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		if _, err := lockRestaurant(ctx, store, shopID); err != nil {
			return nil, err
		}
		t, err := getTable(ctx, store, shopID, tableID)
		if err != nil {
			return nil, err
		}
		if t.Status == next {
			table = t
			return nil, nil
		}
		if !CanTransitionTable(t.Status, next) {
			return nil, badState(fmt.Errorf("%w: %s -> %s", ErrInvalidTableTransition, t.Status, next))
		}

		if next == database.TableStatusOccupied {
			claimed, err := hasClaim(ctx, store, t.ID, uuid.Nil, uuid.Nil)
			if err != nil {
				return nil, err
			}
			if !claimed {
				return nil, badState(ErrTableNotClaimed)
			}
		}
		if t.Status == database.TableStatusOccupied {
			open, err := openOrders(ctx, store, t.ID, uuid.Nil)
			if err != nil {
				return nil, err
			}
			if open > 0 {
				return nil, conflicted(ErrTableClaimed)
			}
			if _, err := store.MarkTablePartiesDeparted(ctx, t.ID); err != nil {
				return nil, fmt.Errorf("mark parties departed: %w", err)
			}
		}

		updated, err := setTableStatus(ctx, store, t, next)
		if err != nil {
			return nil, err
		}
		table = updated
		return []events.Event{tableEvent(updated)}, nil
	})
	return table, err
}

func openOrders(ctx context.Context, store Store, tableID, excludeOrder uuid.UUID) (int64, error) {
	n, err := store.CountOpenTableOrders(ctx, database.CountOpenTableOrdersParams{
		TableID:        tableID,
		ExcludeOrderID: optionalUUID(excludeOrder),
	})
	if err != nil {
		return 0, fmt.Errorf("count open orders: %w", err)
	}
	return n, nil
}

// hasClaim reports whether an open order or a seated party still holds the
// table, ignoring the given order and reservation.
func hasClaim(ctx context.Context, store Store, tableID, excludeOrder, excludeReservation uuid.UUID) (bool, error) {
	open, err := openOrders(ctx, store, tableID, excludeOrder)
	if err != nil {
		return false, err
	}
	if open > 0 {
		return true, nil
	}
	seated, err := store.CountSeatedTableParties(ctx, database.CountSeatedTablePartiesParams{
		TableID:              tableID,
		ExcludeReservationID: optionalUUID(excludeReservation),
	})
	if err != nil {
		return false, fmt.Errorf("count seated parties: %w", err)
	}
	return seated > 0, nil
}
