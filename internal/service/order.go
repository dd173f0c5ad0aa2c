package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/payment"
)

// OrderItemRequest is a single line of an order.
type OrderItemRequest struct {
	ProductID uuid.UUID
	Quantity  int32
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	ShopID     uuid.UUID
	UserID     uuid.UUID
	TableID    uuid.UUID // uuid.Nil for counter orders
	GuestCount int32
	Items      []OrderItemRequest
}

// OrderResult is an order with its items and kitchen ticket, if any.
type OrderResult struct {
	Order  database.Order       `json:"order"`
	Items  []database.OrderItem `json:"items"`
	Ticket *TicketResult        `json:"kitchen_ticket,omitempty"`
}

// OrderService runs the order lifecycle: open -> completed or cancelled.
type OrderService struct {
	core
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewStore, opts Options) *OrderService {
	return &OrderService{core: newCore(pool, newStore, opts)}
}

// StockPolicy returns the configured stock policy.
func (s *OrderService) StockPolicy() StockPolicy { return s.opts.StockPolicy }

// CreateOrder validates the items, snapshots their prices, takes stock per
// the stock policy, occupies the table and opens a kitchen ticket for kitchen
// items, all in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if req.GuestCount < 0 {
		return nil, invalid(ErrInvalidGuestCount)
	}

	var result OrderResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		shop, err := lockShop(ctx, store, req.ShopID)
		if err != nil {
			return nil, err
		}

		var table *database.DiningTable
		if req.TableID != uuid.Nil {
			if shop.BusinessMode != database.BusinessModeRestaurant {
				return nil, invalid(ErrRestaurantModeRequired)
			}
			t, err := getTable(ctx, store, req.ShopID, req.TableID)
			if err != nil {
				return nil, err
			}
			if t.Status == database.TableStatusCleaning {
				return nil, &ConflictError{Err: ErrTableNotAvailable, Details: map[string]any{"table_status": t.Status}}
			}
			table = &t
		}

		lines, total, err := s.prepareItems(ctx, store, req.ShopID, req.Items)
		if err != nil {
			return nil, err
		}

		order, err := store.CreateOrder(ctx, database.CreateOrderParams{
			ShopID:     req.ShopID,
			TableID:    optionalUUID(req.TableID),
			UserID:     req.UserID,
			Total:      DecimalToNumeric(total),
			GuestCount: req.GuestCount,
		})
		if err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}

		items, err := insertItems(ctx, store, order.ID, lines)
		if err != nil {
			return nil, err
		}
		result = OrderResult{Order: order, Items: items}

		var evs []events.Event
		if table != nil && table.Status != database.TableStatusOccupied {
			t, err := setTableStatus(ctx, store, *table, database.TableStatusOccupied)
			if err != nil {
				return nil, err
			}
			evs = append(evs, tableEvent(t))
		}

		ticket, evType, err := s.attachKitchenItems(ctx, store, order, items)
		if err != nil {
			return nil, err
		}
		result.Ticket = ticket

		evs = append([]events.Event{{Type: events.OrderCreated, ShopID: order.ShopID, Payload: result}}, evs...)
		if ticket != nil {
			evs = append(evs, events.Event{Type: evType, ShopID: order.ShopID, Payload: ticket})
		}
		return evs, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddItemsToOrder appends items to an open order and routes new kitchen items
// to its ticket, creating the ticket if the order had none.
func (s *OrderService) AddItemsToOrder(ctx context.Context, shopID, orderID uuid.UUID, reqItems []OrderItemRequest) (*OrderResult, error) {
	if err := validateItems(reqItems); err != nil {
		return nil, err
	}

	var result OrderResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		if _, err := lockShop(ctx, store, shopID); err != nil {
			return nil, err
		}
		order, err := getOpenOrder(ctx, store, shopID, orderID)
		if err != nil {
			return nil, err
		}

		lines, _, err := s.prepareItems(ctx, store, shopID, reqItems)
		if err != nil {
			return nil, err
		}
		added, err := insertItems(ctx, store, order.ID, lines)
		if err != nil {
			return nil, err
		}

		all, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		order, err = store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
			ID:     order.ID,
			ShopID: shopID,
			Total:  DecimalToNumeric(sumItems(all)),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, conflicted(ErrConcurrentUpdate)
			}
			return nil, fmt.Errorf("update order total: %w", err)
		}

		ticket, evType, err := s.attachKitchenItems(ctx, store, order, added)
		if err != nil {
			return nil, err
		}
		if ticket == nil {
			ticket, err = loadTicketForOrder(ctx, store, order.ID)
			if err != nil {
				return nil, err
			}
		}
		result = OrderResult{Order: order, Items: all, Ticket: ticket}

		evs := []events.Event{{Type: events.OrderUpdated, ShopID: shopID, Payload: result}}
		if evType != "" {
			evs = append(evs, events.Event{Type: evType, ShopID: shopID, Payload: ticket})
		}
		return evs, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CompletePayment records the payment outcome and releases the table in the
// same transaction. A second call fails with ErrOrderAlreadyCompleted and
// changes nothing.
func (s *OrderService) CompletePayment(ctx context.Context, shopID, orderID uuid.UUID, method database.PaymentMethod) (*OrderResult, error) {
	if !method.Valid() {
		return nil, invalid(ErrInvalidPaymentMethod)
	}

	var result OrderResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		shop, err := lockShop(ctx, store, shopID)
		if err != nil {
			return nil, err
		}
		if _, err := getOpenOrder(ctx, store, shopID, orderID); err != nil {
			return nil, err
		}

		order, err := store.CompleteOrder(ctx, database.CompleteOrderParams{
			ID:            orderID,
			ShopID:        shopID,
			PaymentMethod: method,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, badState(ErrOrderAlreadyCompleted)
			}
			return nil, fmt.Errorf("complete order: %w", err)
		}
		items, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		result = OrderResult{Order: order, Items: items}

		evs := []events.Event{{Type: events.OrderCompleted, ShopID: shopID, Payload: result}}
		if order.TableID.Valid {
			t, changed, err := releaseAfterPayment(ctx, store, shop, uuid.UUID(order.TableID.Bytes), order.ID)
			if err != nil {
				return nil, err
			}
			if changed {
				evs = append(evs, tableEvent(t))
			}
		}
		evs = append(evs, events.Event{
			Type:    events.AnalyticsUpdated,
			ShopID:  shopID,
			Payload: map[string]any{"order_id": order.ID, "total": NumericToDecimal(order.Total)},
		})
		return evs, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// releaseAfterPayment frees an occupied table once no other open order holds
// it. The party that paid is marked departed.
func releaseAfterPayment(ctx context.Context, store Store, shop database.Shop, tableID, orderID uuid.UUID) (database.DiningTable, bool, error) {
	t, err := getTable(ctx, store, shop.ID, tableID)
	if err != nil {
		if errors.As(err, new(*NotFoundError)) {
			return t, false, nil
		}
		return t, false, err
	}
	if t.Status != database.TableStatusOccupied {
		return t, false, nil
	}
	open, err := openOrders(ctx, store, t.ID, orderID)
	if err != nil {
		return t, false, err
	}
	if open > 0 {
		return t, false, nil
	}
	if _, err := store.MarkTablePartiesDeparted(ctx, t.ID); err != nil {
		return t, false, fmt.Errorf("mark parties departed: %w", err)
	}
	next := database.TableStatusAvailable
	if shop.CleanAfterPayment {
		next = database.TableStatusCleaning
	}
	t, err = setTableStatus(ctx, store, t, next)
	return t, err == nil, err
}

// CancelOrder cancels an open order, returns deducted stock and frees the
// table when nothing else claims it. The kitchen ticket stays as history.
func (s *OrderService) CancelOrder(ctx context.Context, shopID, orderID uuid.UUID) (*OrderResult, error) {
	var result OrderResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		if _, err := lockShop(ctx, store, shopID); err != nil {
			return nil, err
		}
		if _, err := getOpenOrder(ctx, store, shopID, orderID); err != nil {
			return nil, err
		}

		order, err := store.CancelOrder(ctx, database.CancelOrderParams{ID: orderID, ShopID: shopID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, badState(ErrOrderNotOpen)
			}
			return nil, fmt.Errorf("cancel order: %w", err)
		}

		items, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		for _, it := range items {
			if !it.StockDeducted {
				continue
			}
			if _, err := store.AdjustProductStock(ctx, database.AdjustProductStockParams{
				ID:     it.ProductID,
				ShopID: shopID,
				Delta:  it.Quantity,
			}); err != nil {
				return nil, fmt.Errorf("restore stock: %w", err)
			}
		}
		result = OrderResult{Order: order, Items: items}

		evs := []events.Event{{Type: events.OrderCancelled, ShopID: shopID, Payload: result}}
		if order.TableID.Valid {
			t, err := getTable(ctx, store, shopID, uuid.UUID(order.TableID.Bytes))
			if err == nil && t.Status == database.TableStatusOccupied {
				claimed, err := hasClaim(ctx, store, t.ID, order.ID, uuid.Nil)
				if err != nil {
					return nil, err
				}
				if !claimed {
					t, err = setTableStatus(ctx, store, t, database.TableStatusAvailable)
					if err != nil {
						return nil, err
					}
					evs = append(evs, tableEvent(t))
				}
			} else if err != nil && !errors.As(err, new(*NotFoundError)) {
				return nil, err
			}
		}
		return evs, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrder returns an order with its items and ticket.
func (s *OrderService) GetOrder(ctx context.Context, shopID, orderID uuid.UUID) (*OrderResult, error) {
	var result OrderResult
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		order, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, ShopID: shopID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, notFound(ErrOrderNotFound)
			}
			return nil, fmt.Errorf("get order: %w", err)
		}
		items, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		ticket, err := loadTicketForOrder(ctx, store, order.ID)
		if err != nil {
			return nil, err
		}
		result = OrderResult{Order: order, Items: items, Ticket: ticket}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreatePaymentIntent asks the gateway to start a card payment for an open
// order. Gateway failures leave the order open for retry.
func (s *OrderService) CreatePaymentIntent(ctx context.Context, shopID, orderID uuid.UUID, currency string) (payment.Intent, error) {
	if currency == "" {
		currency = s.opts.Currency
	}
	if len(currency) != 3 {
		return payment.Intent{}, invalid(ErrInvalidCurrency)
	}

	var order database.Order
	err := s.inTx(ctx, func(store Store) ([]events.Event, error) {
		o, err := getOpenOrder(ctx, store, shopID, orderID)
		order = o
		return nil, err
	})
	if err != nil {
		return payment.Intent{}, err
	}

	total := NumericToDecimal(order.Total)
	if !total.IsPositive() {
		return payment.Intent{}, invalid(fmt.Errorf("%w: order total is zero", ErrPaymentFailed))
	}
	intent, err := s.opts.Gateway.CreatePaymentIntent(ctx, total, currency)
	if err != nil {
		s.opts.Logger.WithField("order_id", orderID).WithError(err).Warn("payment intent failed")
		return payment.Intent{}, invalid(fmt.Errorf("%w: %v", ErrPaymentFailed, err))
	}
	return intent, nil
}

// --- Helpers ---

func validateItems(items []OrderItemRequest) error {
	if len(items) == 0 {
		return invalid(ErrEmptyItems)
	}
	for i, it := range items {
		if it.Quantity <= 0 {
			return invalid(fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity))
		}
		if it.ProductID == uuid.Nil {
			return invalid(fmt.Errorf("item[%d]: %w", i, ErrProductNotFound))
		}
	}
	return nil
}

func getOpenOrder(ctx context.Context, store Store, shopID, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, ShopID: shopID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order, notFound(ErrOrderNotFound)
		}
		return order, fmt.Errorf("get order: %w", err)
	}
	switch order.Status {
	case database.OrderStatusOpen:
		return order, nil
	case database.OrderStatusCompleted:
		return order, badState(ErrOrderAlreadyCompleted)
	default:
		return order, badState(ErrOrderNotOpen)
	}
}

// prepareItems validates products, snapshots prices and takes stock for the
// items the policy deducts now. Returns the insert params and their total.
func (s *OrderService) prepareItems(ctx context.Context, store Store, shopID uuid.UUID, reqItems []OrderItemRequest) ([]database.CreateOrderItemParams, decimal.Decimal, error) {
	total := decimal.Zero
	lines := make([]database.CreateOrderItemParams, 0, len(reqItems))
	for i, it := range reqItems {
		product, err := store.GetProduct(ctx, database.GetProductParams{ID: it.ProductID, ShopID: shopID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, total, notFound(fmt.Errorf("item[%d]: %w", i, ErrProductNotFound))
			}
			return nil, total, fmt.Errorf("item[%d]: get product: %w", i, err)
		}

		deduct := s.opts.StockPolicy == StockOnOrder || !product.RequiresKitchen
		if deduct {
			if _, err := store.AdjustProductStock(ctx, database.AdjustProductStockParams{
				ID:     product.ID,
				ShopID: shopID,
				Delta:  -it.Quantity,
			}); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, total, invalid(fmt.Errorf("item[%d] %s: %w", i, product.Name, ErrInsufficientStock))
				}
				return nil, total, fmt.Errorf("item[%d]: adjust stock: %w", i, err)
			}
		} else if product.Stock < it.Quantity {
			return nil, total, invalid(fmt.Errorf("item[%d] %s: %w", i, product.Name, ErrInsufficientStock))
		}

		price := NumericToDecimal(product.Price)
		total = total.Add(price.Mul(decimal.NewFromInt32(it.Quantity)))
		lines = append(lines, database.CreateOrderItemParams{
			ProductID:       product.ID,
			Quantity:        it.Quantity,
			Price:           DecimalToNumeric(price),
			RequiresKitchen: product.RequiresKitchen,
			StockDeducted:   deduct,
		})
	}
	return lines, total, nil
}

func insertItems(ctx context.Context, store Store, orderID uuid.UUID, lines []database.CreateOrderItemParams) ([]database.OrderItem, error) {
	items := make([]database.OrderItem, 0, len(lines))
	for _, l := range lines {
		l.OrderID = orderID
		item, err := store.CreateOrderItem(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// sumItems totals stored item snapshots, never current product prices.
func sumItems(items []database.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(NumericToDecimal(it.Price).Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return total
}
