package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
)

// testNow is a Monday morning, well clear of the peak-hour windows.
var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// recorder is a Notifier that keeps every committed event.
type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Notify(_ context.Context, evs ...events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, evs...)
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.evs))
	for i, e := range r.evs {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.evs)
}

type fixture struct {
	t      *testing.T
	db     *fakeDB
	shop   database.Shop
	events *recorder
	logs   *test.Hook
	opts   Options
}

func newFixture(t *testing.T, mode database.BusinessMode) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{t: t, db: newFakeDB(), events: &recorder{}, logs: hook}
	f.opts = Options{
		StockPolicy: StockOnOrder,
		Notifier:    f.events,
		Logger:      logger,
		Now:         func() time.Time { return testNow },
	}
	f.shop = database.Shop{
		ID:           uuid.New(),
		Name:         "Corner Bistro",
		BusinessMode: mode,
		OwnerID:      uuid.New(),
		Timezone:     "UTC",
	}
	f.db.state.shops[f.shop.ID] = f.shop
	return f
}

func (f *fixture) withPolicy(p StockPolicy) *fixture {
	f.opts.StockPolicy = p
	return f
}

func (f *fixture) cleanAfterPayment() *fixture {
	f.shop.CleanAfterPayment = true
	f.db.state.shops[f.shop.ID] = f.shop
	return f
}

func (f *fixture) addTable(number, capacity int32) database.DiningTable {
	tb := database.DiningTable{
		ID:       uuid.New(),
		ShopID:   f.shop.ID,
		Number:   number,
		Capacity: capacity,
		Status:   database.TableStatusAvailable,
	}
	f.db.state.tables[tb.ID] = tb
	return tb
}

func (f *fixture) addProduct(name, price string, stock int32, kitchen bool) database.Product {
	p := database.Product{
		ID:              uuid.New(),
		ShopID:          f.shop.ID,
		CategoryID:      uuid.New(),
		Name:            name,
		Price:           DecimalToNumeric(decimal.RequireFromString(price)),
		Stock:           stock,
		RequiresKitchen: kitchen,
	}
	f.db.state.products[p.ID] = p
	return p
}

func (f *fixture) orders() *OrderService {
	return NewOrderService(f.db, fakeStore, f.opts)
}

func (f *fixture) kitchen() *KitchenService {
	return NewKitchenService(f.db, fakeStore, f.opts)
}

func (f *fixture) reservations() *ReservationService {
	return NewReservationService(f.db, fakeStore, f.opts)
}

func (f *fixture) tables() *TableService {
	return NewTableService(f.db, fakeStore, f.opts)
}

func (f *fixture) shops() *ShopService {
	return NewShopService(f.db, fakeStore, f.opts)
}

func (f *fixture) table(id uuid.UUID) database.DiningTable {
	return f.db.snapshot().tables[id]
}

func (f *fixture) product(id uuid.UUID) database.Product {
	return f.db.snapshot().products[id]
}

func (f *fixture) openOrder(tableID uuid.UUID, items ...OrderItemRequest) *OrderResult {
	f.t.Helper()
	res, err := f.orders().CreateOrder(context.Background(), CreateOrderRequest{
		ShopID:     f.shop.ID,
		UserID:     uuid.New(),
		TableID:    tableID,
		GuestCount: 2,
		Items:      items,
	})
	if err != nil {
		f.t.Fatalf("create order: %v", err)
	}
	return res
}

func line(p database.Product, qty int32) OrderItemRequest {
	return OrderItemRequest{ProductID: p.ID, Quantity: qty}
}

func numeric(s string) decimal.Decimal { return decimal.RequireFromString(s) }
