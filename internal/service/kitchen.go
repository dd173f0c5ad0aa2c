package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
)

// TicketResult is a kitchen ticket with the order items routed to it.
type TicketResult struct {
	Ticket database.KitchenTicket `json:"ticket"`
	Items  []database.OrderItem   `json:"items"`
}

func ticketRank(s database.TicketStatus) int {
	switch s {
	case database.TicketStatusPending:
		return 1
	case database.TicketStatusPreparing:
		return 2
	case database.TicketStatusReady:
		return 3
	case database.TicketStatusServed:
		return 4
	}
	return 0
}

// CanAdvanceTicket reports whether a ticket may move from one status to
// another. Tickets only move forward; skipping a step is allowed.
func CanAdvanceTicket(from, to database.TicketStatus) bool {
	return ticketRank(to) > ticketRank(from) && ticketRank(from) > 0
}

// KitchenService moves kitchen tickets through pending -> preparing -> ready
// -> served.
type KitchenService struct {
	core
}

func NewKitchenService(pool TxBeginner, newStore NewStore, opts Options) *KitchenService {
	return &KitchenService{core: newCore(pool, newStore, opts)}
}

// AdvanceTicket moves a ticket forward. Under StockOnTicketReady the ticket's
// kitchen items take stock when it first reaches ready.
func (s *KitchenService) AdvanceTicket(ctx context.Context, shopID, ticketID uuid.UUID, next database.TicketStatus) (*TicketResult, error) {
	if !next.Valid() {
		return nil, invalid(ErrInvalidTicketStatus)
	}

	var result TicketResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		if _, err := lockShop(ctx, store, shopID); err != nil {
			return nil, err
		}
		ticket, err := getTicket(ctx, store, shopID, ticketID)
		if err != nil {
			return nil, err
		}
		if !CanAdvanceTicket(ticket.Status, next) {
			return nil, badState(fmt.Errorf("%w: %s -> %s", ErrInvalidTicketTransition, ticket.Status, next))
		}
		order, err := store.GetOrder(ctx, database.GetOrderParams{ID: ticket.OrderID, ShopID: shopID})
		if err != nil {
			return nil, fmt.Errorf("get ticket order: %w", err)
		}
		if order.Status == database.OrderStatusCancelled {
			return nil, badState(ErrOrderNotOpen)
		}

		updated, err := store.UpdateKitchenTicketStatus(ctx, database.UpdateKitchenTicketStatusParams{
			ID:         ticket.ID,
			ShopID:     shopID,
			Status:     next,
			FromStatus: ticket.Status,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, conflicted(ErrConcurrentUpdate)
			}
			return nil, fmt.Errorf("update ticket status: %w", err)
		}

		items, err := store.ListKitchenTicketItems(ctx, ticket.ID)
		if err != nil {
			return nil, fmt.Errorf("list ticket items: %w", err)
		}
		if s.opts.StockPolicy == StockOnTicketReady &&
			ticketRank(ticket.Status) < ticketRank(database.TicketStatusReady) &&
			ticketRank(next) >= ticketRank(database.TicketStatusReady) {
			if err := deductPending(ctx, store, shopID, items); err != nil {
				return nil, err
			}
			if items, err = store.ListKitchenTicketItems(ctx, ticket.ID); err != nil {
				return nil, fmt.Errorf("list ticket items: %w", err)
			}
		}

		result = TicketResult{Ticket: updated, Items: items}
		return []events.Event{{Type: events.KitchenTicketUpdated, ShopID: shopID, Payload: result}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *KitchenService) GetTicket(ctx context.Context, shopID, ticketID uuid.UUID) (*TicketResult, error) {
	var result TicketResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		ticket, err := getTicket(ctx, store, shopID, ticketID)
		if err != nil {
			return nil, err
		}
		items, err := store.ListKitchenTicketItems(ctx, ticket.ID)
		if err != nil {
			return nil, fmt.Errorf("list ticket items: %w", err)
		}
		result = TicketResult{Ticket: ticket, Items: items}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func getTicket(ctx context.Context, store Store, shopID, ticketID uuid.UUID) (database.KitchenTicket, error) {
	t, err := store.GetKitchenTicket(ctx, database.GetKitchenTicketParams{ID: ticketID, ShopID: shopID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, notFound(ErrTicketNotFound)
		}
		return t, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

// deductPending takes stock for items that have not been deducted yet.
func deductPending(ctx context.Context, store Store, shopID uuid.UUID, items []database.OrderItem) error {
	for _, it := range items {
		if it.StockDeducted {
			continue
		}
		if _, err := store.AdjustProductStock(ctx, database.AdjustProductStockParams{
			ID:     it.ProductID,
			ShopID: shopID,
			Delta:  -it.Quantity,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return invalid(fmt.Errorf("product %s: %w", it.ProductID, ErrInsufficientStock))
			}
			return fmt.Errorf("adjust stock: %w", err)
		}
		if err := store.MarkOrderItemStockDeducted(ctx, it.ID); err != nil {
			return fmt.Errorf("mark stock deducted: %w", err)
		}
	}
	return nil
}

// attachKitchenItems routes the kitchen items among items to the order's
// ticket, creating it with the next shop ticket number when missing. Returns
// nil and an empty type when none of the items needs the kitchen.
func (c *core) attachKitchenItems(ctx context.Context, store Store, order database.Order, items []database.OrderItem) (*TicketResult, events.Type, error) {
	var kitchen []database.OrderItem
	for _, it := range items {
		if it.RequiresKitchen {
			kitchen = append(kitchen, it)
		}
	}
	if len(kitchen) == 0 {
		return nil, "", nil
	}

	evType := events.KitchenTicketUpdated
	ticket, err := store.GetKitchenTicketByOrder(ctx, order.ID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		num, err := store.GetNextTicketNumber(ctx, order.ShopID)
		if err != nil {
			return nil, "", fmt.Errorf("next ticket number: %w", err)
		}
		ticket, err = store.CreateKitchenTicket(ctx, database.CreateKitchenTicketParams{
			ShopID:       order.ShopID,
			OrderID:      order.ID,
			TicketNumber: num,
		})
		if err != nil {
			return nil, "", fmt.Errorf("create kitchen ticket: %w", err)
		}
		evType = events.KitchenTicketCreated
	case err != nil:
		return nil, "", fmt.Errorf("get kitchen ticket: %w", err)
	case ticket.Status == database.TicketStatusServed:
		return nil, "", badState(ErrTicketClosed)
	}

	for _, it := range kitchen {
		if err := store.AddKitchenTicketItem(ctx, database.AddKitchenTicketItemParams{
			TicketID:    ticket.ID,
			OrderItemID: it.ID,
		}); err != nil {
			return nil, "", fmt.Errorf("add ticket item: %w", err)
		}
	}
	// Items joining a ticket that is already ready missed the deduction.
	if c.opts.StockPolicy == StockOnTicketReady && ticket.Status == database.TicketStatusReady {
		if err := deductPending(ctx, store, order.ShopID, kitchen); err != nil {
			return nil, "", err
		}
	}

	all, err := store.ListKitchenTicketItems(ctx, ticket.ID)
	if err != nil {
		return nil, "", fmt.Errorf("list ticket items: %w", err)
	}
	return &TicketResult{Ticket: ticket, Items: all}, evType, nil
}

func loadTicketForOrder(ctx context.Context, store Store, orderID uuid.UUID) (*TicketResult, error) {
	ticket, err := store.GetKitchenTicketByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get kitchen ticket: %w", err)
	}
	items, err := store.ListKitchenTicketItems(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("list ticket items: %w", err)
	}
	return &TicketResult{Ticket: ticket, Items: items}, nil
}
