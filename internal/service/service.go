package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/payment"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the DB methods the coordination services need.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	CreateShop(ctx context.Context, arg database.CreateShopParams) (database.Shop, error)
	GetShop(ctx context.Context, id uuid.UUID) (database.Shop, error)
	LockShop(ctx context.Context, id uuid.UUID) (database.Shop, error)
	UpdateShop(ctx context.Context, arg database.UpdateShopParams) (database.Shop, error)
	CountShopData(ctx context.Context, shopID uuid.UUID) (database.CountShopDataRow, error)
	DeleteShop(ctx context.Context, id uuid.UUID) (int64, error)

	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	AdjustProductStock(ctx context.Context, arg database.AdjustProductStockParams) (database.Product, error)

	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.DiningTable, error)
	GetTable(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error)
	ListTablesByShop(ctx context.Context, shopID uuid.UUID) ([]database.DiningTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)
	CountOpenTableOrders(ctx context.Context, arg database.CountOpenTableOrdersParams) (int64, error)
	CountSeatedTableParties(ctx context.Context, arg database.CountSeatedTablePartiesParams) (int64, error)
	MarkTablePartiesDeparted(ctx context.Context, tableID uuid.UUID) (int64, error)

	CreateReservation(ctx context.Context, arg database.CreateReservationParams) (database.Reservation, error)
	GetReservation(ctx context.Context, arg database.GetReservationParams) (database.Reservation, error)
	ListActiveReservations(ctx context.Context, shopID uuid.UUID) ([]database.Reservation, error)
	UpdateReservation(ctx context.Context, arg database.UpdateReservationParams) (database.Reservation, error)
	UpdateReservationStatus(ctx context.Context, arg database.UpdateReservationStatusParams) (database.Reservation, error)

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	MarkOrderItemStockDeducted(ctx context.Context, id uuid.UUID) error
	UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error)
	CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)

	GetNextTicketNumber(ctx context.Context, shopID uuid.UUID) (int32, error)
	CreateKitchenTicket(ctx context.Context, arg database.CreateKitchenTicketParams) (database.KitchenTicket, error)
	AddKitchenTicketItem(ctx context.Context, arg database.AddKitchenTicketItemParams) error
	GetKitchenTicket(ctx context.Context, arg database.GetKitchenTicketParams) (database.KitchenTicket, error)
	GetKitchenTicketByOrder(ctx context.Context, orderID uuid.UUID) (database.KitchenTicket, error)
	ListKitchenTicketItems(ctx context.Context, ticketID uuid.UUID) ([]database.OrderItem, error)
	UpdateKitchenTicketStatus(ctx context.Context, arg database.UpdateKitchenTicketStatusParams) (database.KitchenTicket, error)
}

// NewStore creates a Store from a DBTX (pool or tx).
type NewStore func(db database.DBTX) Store

// Notifier receives events after their transaction committed.
type Notifier interface {
	Notify(ctx context.Context, evs ...events.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, ...events.Event) {}

// StockPolicy decides when kitchen items take stock.
type StockPolicy string

const (
	// StockOnOrder deducts every item when it is ordered.
	StockOnOrder StockPolicy = "on_order"
	// StockOnTicketReady deducts kitchen items when their ticket is ready;
	// other items are still deducted when ordered.
	StockOnTicketReady StockPolicy = "on_ticket_ready"
)

func ParseStockPolicy(s string) (StockPolicy, error) {
	switch p := StockPolicy(s); p {
	case StockOnOrder, StockOnTicketReady:
		return p, nil
	case "":
		return StockOnOrder, nil
	}
	return "", fmt.Errorf("unknown stock policy %q", s)
}

// Options configure the services. Zero values fall back to defaults.
type Options struct {
	StockPolicy StockPolicy
	Notifier    Notifier
	Gateway     payment.Gateway
	Currency    string
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

type core struct {
	pool     TxBeginner
	newStore NewStore
	opts     Options
}

func newCore(pool TxBeginner, newStore NewStore, opts Options) core {
	if opts.StockPolicy == "" {
		opts.StockPolicy = StockOnOrder
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Gateway == nil {
		opts.Gateway = payment.Noop{}
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return core{pool: pool, newStore: newStore, opts: opts}
}

// inTx runs fn in one transaction and publishes the events it returns once
// the commit succeeded.
func (c *core) inTx(ctx context.Context, fn func(store Store) ([]events.Event, error)) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	evs, err := fn(c.newStore(tx))
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	if len(evs) > 0 {
		c.opts.Notifier.Notify(ctx, evs...)
	}
	return nil
}

// lockShop takes the shop row lock that serializes every write to one shop.
func lockShop(ctx context.Context, store Store, shopID uuid.UUID) (database.Shop, error) {
	shop, err := store.LockShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shop, notFound(ErrShopNotFound)
		}
		return shop, fmt.Errorf("lock shop: %w", err)
	}
	return shop, nil
}

func lockRestaurant(ctx context.Context, store Store, shopID uuid.UUID) (database.Shop, error) {
	return requireRestaurant(lockShop(ctx, store, shopID))
}

// readRestaurant loads the shop without the row lock, for read-only checks.
func readRestaurant(ctx context.Context, store Store, shopID uuid.UUID) (database.Shop, error) {
	shop, err := store.GetShop(ctx, shopID)
	if errors.Is(err, pgx.ErrNoRows) {
		return shop, notFound(ErrShopNotFound)
	}
	if err != nil {
		return shop, fmt.Errorf("get shop: %w", err)
	}
	return requireRestaurant(shop, nil)
}

func requireRestaurant(shop database.Shop, err error) (database.Shop, error) {
	if err != nil {
		return shop, err
	}
	if shop.BusinessMode != database.BusinessModeRestaurant {
		return shop, invalid(ErrRestaurantModeRequired)
	}
	return shop, nil
}

func getTable(ctx context.Context, store Store, shopID, tableID uuid.UUID) (database.DiningTable, error) {
	t, err := store.GetTable(ctx, database.GetTableParams{ID: tableID, ShopID: shopID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, notFound(ErrTableNotFound)
		}
		return t, fmt.Errorf("get table: %w", err)
	}
	return t, nil
}

func setTableStatus(ctx context.Context, store Store, t database.DiningTable, status database.TableStatus) (database.DiningTable, error) {
	updated, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     t.ID,
		ShopID: t.ShopID,
		Status: status,
	})
	if err != nil {
		return updated, fmt.Errorf("update table status: %w", err)
	}
	return updated, nil
}

func shopLocation(shop database.Shop) *time.Location {
	loc, err := time.LoadLocation(shop.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func tableEvent(t database.DiningTable) events.Event {
	return events.Event{Type: events.TableUpdated, ShopID: t.ShopID, Payload: t}
}

func optionalUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// NumericToDecimal converts a pgtype.Numeric to decimal.Decimal.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric converts a decimal.Decimal to pgtype.Numeric with 2dp.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
