package service

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/database"
)

// fakeDB is an in-memory database. A transaction holds mu from Begin until
// Commit or Rollback and works on a private copy of the state, so writes are
// serialized like the shop row lock and a failed transaction leaves nothing
// behind.
type fakeDB struct {
	mu    sync.Mutex
	state *fakeState
	locks int // LockShop calls, guarded by mu
}

type fakeState struct {
	shops        map[uuid.UUID]database.Shop
	products     map[uuid.UUID]database.Product
	tables       map[uuid.UUID]database.DiningTable
	reservations map[uuid.UUID]database.Reservation
	departed     map[uuid.UUID]bool
	orders       map[uuid.UUID]database.Order
	items        []database.OrderItem
	tickets      map[uuid.UUID]database.KitchenTicket
	ticketItems  map[uuid.UUID][]uuid.UUID
}

func newFakeDB() *fakeDB {
	return &fakeDB{state: &fakeState{
		shops:        map[uuid.UUID]database.Shop{},
		products:     map[uuid.UUID]database.Product{},
		tables:       map[uuid.UUID]database.DiningTable{},
		reservations: map[uuid.UUID]database.Reservation{},
		departed:     map[uuid.UUID]bool{},
		orders:       map[uuid.UUID]database.Order{},
		tickets:      map[uuid.UUID]database.KitchenTicket{},
		ticketItems:  map[uuid.UUID][]uuid.UUID{},
	}}
}

func (s *fakeState) clone() *fakeState {
	ti := make(map[uuid.UUID][]uuid.UUID, len(s.ticketItems))
	for k, v := range s.ticketItems {
		ti[k] = slices.Clone(v)
	}
	return &fakeState{
		shops:        maps.Clone(s.shops),
		products:     maps.Clone(s.products),
		tables:       maps.Clone(s.tables),
		reservations: maps.Clone(s.reservations),
		departed:     maps.Clone(s.departed),
		orders:       maps.Clone(s.orders),
		items:        slices.Clone(s.items),
		tickets:      maps.Clone(s.tickets),
		ticketItems:  ti,
	}
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.mu.Lock()
	return &fakeTx{db: d, st: d.state.clone()}, nil
}

// snapshot returns the committed state for assertions.
func (d *fakeDB) snapshot() *fakeState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

func (d *fakeDB) lockCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locks
}

func fakeStore(db database.DBTX) Store { return db.(*fakeTx) }

// fakeTx implements pgx.Tx and Store. The SQL entry points panic so an
// accidental raw query fails loudly.
type fakeTx struct {
	db   *fakeDB
	st   *fakeState
	done bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.db.state = t.st
	t.done = true
	t.db.mu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.mu.Unlock()
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *fakeTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *fakeTx) Conn() *pgx.Conn { panic("not implemented") }

func uniqueViolation() error { return &pgconn.PgError{Code: "23505"} }

func pgIs(p pgtype.UUID, id uuid.UUID) bool { return p.Valid && uuid.UUID(p.Bytes) == id }

// --- shops ---

func (t *fakeTx) CreateShop(ctx context.Context, arg database.CreateShopParams) (database.Shop, error) {
	now := time.Now()
	s := database.Shop{
		ID:                uuid.New(),
		Name:              arg.Name,
		BusinessMode:      arg.BusinessMode,
		OwnerID:           arg.OwnerID,
		Timezone:          arg.Timezone,
		CleanAfterPayment: arg.CleanAfterPayment,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	t.st.shops[s.ID] = s
	return s, nil
}

func (t *fakeTx) GetShop(ctx context.Context, id uuid.UUID) (database.Shop, error) {
	s, ok := t.st.shops[id]
	if !ok {
		return s, pgx.ErrNoRows
	}
	return s, nil
}

func (t *fakeTx) LockShop(ctx context.Context, id uuid.UUID) (database.Shop, error) {
	t.db.locks++
	s, ok := t.st.shops[id]
	if !ok {
		return s, pgx.ErrNoRows
	}
	return s, nil
}

func (t *fakeTx) UpdateShop(ctx context.Context, arg database.UpdateShopParams) (database.Shop, error) {
	s, ok := t.st.shops[arg.ID]
	if !ok {
		return s, pgx.ErrNoRows
	}
	s.Name = arg.Name
	s.BusinessMode = arg.BusinessMode
	s.Timezone = arg.Timezone
	s.CleanAfterPayment = arg.CleanAfterPayment
	s.UpdatedAt = time.Now()
	t.st.shops[s.ID] = s
	return s, nil
}

func (t *fakeTx) CountShopData(ctx context.Context, shopID uuid.UUID) (database.CountShopDataRow, error) {
	var row database.CountShopDataRow
	for _, p := range t.st.products {
		if p.ShopID == shopID {
			row.Products++
		}
	}
	for _, tb := range t.st.tables {
		if tb.ShopID == shopID {
			row.Tables++
		}
	}
	for _, o := range t.st.orders {
		if o.ShopID == shopID {
			row.Orders++
		}
	}
	for _, r := range t.st.reservations {
		if r.ShopID == shopID {
			row.Reservations++
		}
	}
	return row, nil
}

func (t *fakeTx) DeleteShop(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := t.st.shops[id]; !ok {
		return 0, nil
	}
	delete(t.st.shops, id)
	maps.DeleteFunc(t.st.products, func(_ uuid.UUID, p database.Product) bool { return p.ShopID == id })
	maps.DeleteFunc(t.st.tables, func(_ uuid.UUID, tb database.DiningTable) bool { return tb.ShopID == id })
	maps.DeleteFunc(t.st.reservations, func(_ uuid.UUID, r database.Reservation) bool { return r.ShopID == id })
	maps.DeleteFunc(t.st.tickets, func(_ uuid.UUID, k database.KitchenTicket) bool { return k.ShopID == id })
	t.st.items = slices.DeleteFunc(t.st.items, func(it database.OrderItem) bool {
		o, ok := t.st.orders[it.OrderID]
		return ok && o.ShopID == id
	})
	maps.DeleteFunc(t.st.orders, func(_ uuid.UUID, o database.Order) bool { return o.ShopID == id })
	return 1, nil
}

// --- catalog ---

func (t *fakeTx) GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error) {
	p, ok := t.st.products[arg.ID]
	if !ok || p.ShopID != arg.ShopID {
		return database.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (t *fakeTx) AdjustProductStock(ctx context.Context, arg database.AdjustProductStockParams) (database.Product, error) {
	p, ok := t.st.products[arg.ID]
	if !ok || p.ShopID != arg.ShopID || p.Stock+arg.Delta < 0 {
		return database.Product{}, pgx.ErrNoRows
	}
	p.Stock += arg.Delta
	t.st.products[p.ID] = p
	return p, nil
}

// --- floor ---

func (t *fakeTx) CreateTable(ctx context.Context, arg database.CreateTableParams) (database.DiningTable, error) {
	for _, tb := range t.st.tables {
		if tb.ShopID == arg.ShopID && tb.Number == arg.Number {
			return database.DiningTable{}, uniqueViolation()
		}
	}
	now := time.Now()
	tb := database.DiningTable{
		ID:        uuid.New(),
		ShopID:    arg.ShopID,
		Number:    arg.Number,
		Capacity:  arg.Capacity,
		Section:   arg.Section,
		Status:    database.TableStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.st.tables[tb.ID] = tb
	return tb, nil
}

func (t *fakeTx) GetTable(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error) {
	tb, ok := t.st.tables[arg.ID]
	if !ok || tb.ShopID != arg.ShopID {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	return tb, nil
}

func (t *fakeTx) ListTablesByShop(ctx context.Context, shopID uuid.UUID) ([]database.DiningTable, error) {
	var out []database.DiningTable
	for _, tb := range t.st.tables {
		if tb.ShopID == shopID {
			out = append(out, tb)
		}
	}
	slices.SortFunc(out, func(a, b database.DiningTable) int { return cmp.Compare(a.Number, b.Number) })
	return out, nil
}

func (t *fakeTx) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error) {
	tb, ok := t.st.tables[arg.ID]
	if !ok || tb.ShopID != arg.ShopID {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	tb.Status = arg.Status
	tb.UpdatedAt = time.Now()
	t.st.tables[tb.ID] = tb
	return tb, nil
}

func (t *fakeTx) CountOpenTableOrders(ctx context.Context, arg database.CountOpenTableOrdersParams) (int64, error) {
	var n int64
	for _, o := range t.st.orders {
		if pgIs(o.TableID, arg.TableID) && o.Status == database.OrderStatusOpen && !pgIs(arg.ExcludeOrderID, o.ID) {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) CountSeatedTableParties(ctx context.Context, arg database.CountSeatedTablePartiesParams) (int64, error) {
	var n int64
	for _, r := range t.st.reservations {
		if pgIs(r.TableID, arg.TableID) && r.Status == database.ReservationStatusSeated &&
			!t.st.departed[r.ID] && !pgIs(arg.ExcludeReservationID, r.ID) {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) MarkTablePartiesDeparted(ctx context.Context, tableID uuid.UUID) (int64, error) {
	var n int64
	for _, r := range t.st.reservations {
		if pgIs(r.TableID, tableID) && r.Status == database.ReservationStatusSeated && !t.st.departed[r.ID] {
			t.st.departed[r.ID] = true
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) CreateReservation(ctx context.Context, arg database.CreateReservationParams) (database.Reservation, error) {
	now := time.Now()
	r := database.Reservation{
		ID:              uuid.New(),
		ShopID:          arg.ShopID,
		TableID:         arg.TableID,
		CustomerName:    arg.CustomerName,
		CustomerPhone:   arg.CustomerPhone,
		PartySize:       arg.PartySize,
		ReservationTime: arg.ReservationTime,
		Status:          database.ReservationStatusConfirmed,
		Notes:           arg.Notes,
		CreatedBy:       arg.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	t.st.reservations[r.ID] = r
	return r, nil
}

func (t *fakeTx) GetReservation(ctx context.Context, arg database.GetReservationParams) (database.Reservation, error) {
	r, ok := t.st.reservations[arg.ID]
	if !ok || r.ShopID != arg.ShopID {
		return database.Reservation{}, pgx.ErrNoRows
	}
	return r, nil
}

func (t *fakeTx) ListActiveReservations(ctx context.Context, shopID uuid.UUID) ([]database.Reservation, error) {
	var out []database.Reservation
	for _, r := range t.st.reservations {
		if r.ShopID != shopID {
			continue
		}
		if r.Status == database.ReservationStatusConfirmed ||
			(r.Status == database.ReservationStatusSeated && !t.st.departed[r.ID]) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b database.Reservation) int { return a.ReservationTime.Compare(b.ReservationTime) })
	return out, nil
}

func (t *fakeTx) UpdateReservation(ctx context.Context, arg database.UpdateReservationParams) (database.Reservation, error) {
	r, ok := t.st.reservations[arg.ID]
	if !ok || r.ShopID != arg.ShopID || r.Status != database.ReservationStatusConfirmed {
		return database.Reservation{}, pgx.ErrNoRows
	}
	r.TableID = arg.TableID
	r.CustomerName = arg.CustomerName
	r.CustomerPhone = arg.CustomerPhone
	r.PartySize = arg.PartySize
	r.ReservationTime = arg.ReservationTime
	r.Notes = arg.Notes
	r.UpdatedAt = time.Now()
	t.st.reservations[r.ID] = r
	return r, nil
}

func (t *fakeTx) UpdateReservationStatus(ctx context.Context, arg database.UpdateReservationStatusParams) (database.Reservation, error) {
	r, ok := t.st.reservations[arg.ID]
	if !ok || r.ShopID != arg.ShopID || r.Status != arg.FromStatus {
		return database.Reservation{}, pgx.ErrNoRows
	}
	r.Status = arg.Status
	r.UpdatedAt = time.Now()
	t.st.reservations[r.ID] = r
	return r, nil
}

// --- orders ---

func (t *fakeTx) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	now := time.Now()
	o := database.Order{
		ID:         uuid.New(),
		ShopID:     arg.ShopID,
		TableID:    arg.TableID,
		UserID:     arg.UserID,
		Status:     database.OrderStatusOpen,
		Total:      arg.Total,
		GuestCount: arg.GuestCount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.st.orders[o.ID] = o
	return o, nil
}

func (t *fakeTx) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	o, ok := t.st.orders[arg.ID]
	if !ok || o.ShopID != arg.ShopID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (t *fakeTx) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{
		ID:              uuid.New(),
		OrderID:         arg.OrderID,
		ProductID:       arg.ProductID,
		Quantity:        arg.Quantity,
		Price:           arg.Price,
		RequiresKitchen: arg.RequiresKitchen,
		StockDeducted:   arg.StockDeducted,
		CreatedAt:       time.Now(),
	}
	t.st.items = append(t.st.items, it)
	return it, nil
}

func (t *fakeTx) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	var out []database.OrderItem
	for _, it := range t.st.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (t *fakeTx) MarkOrderItemStockDeducted(ctx context.Context, id uuid.UUID) error {
	for i := range t.st.items {
		if t.st.items[i].ID == id {
			t.st.items[i].StockDeducted = true
		}
	}
	return nil
}

func (t *fakeTx) UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error) {
	o, ok := t.st.orders[arg.ID]
	if !ok || o.ShopID != arg.ShopID || o.Status != database.OrderStatusOpen {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Total = arg.Total
	t.st.orders[o.ID] = o
	return o, nil
}

func (t *fakeTx) CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
	o, ok := t.st.orders[arg.ID]
	if !ok || o.ShopID != arg.ShopID || o.Status != database.OrderStatusOpen {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = database.OrderStatusCompleted
	o.PaymentMethod = database.NullPaymentMethod{PaymentMethod: arg.PaymentMethod, Valid: true}
	o.CompletedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	t.st.orders[o.ID] = o
	return o, nil
}

func (t *fakeTx) CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
	o, ok := t.st.orders[arg.ID]
	if !ok || o.ShopID != arg.ShopID || o.Status != database.OrderStatusOpen {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = database.OrderStatusCancelled
	t.st.orders[o.ID] = o
	return o, nil
}

// --- kitchen ---

func (t *fakeTx) GetNextTicketNumber(ctx context.Context, shopID uuid.UUID) (int32, error) {
	var last int32
	for _, k := range t.st.tickets {
		if k.ShopID == shopID && k.TicketNumber > last {
			last = k.TicketNumber
		}
	}
	return last + 1, nil
}

func (t *fakeTx) CreateKitchenTicket(ctx context.Context, arg database.CreateKitchenTicketParams) (database.KitchenTicket, error) {
	for _, k := range t.st.tickets {
		if k.OrderID == arg.OrderID || (k.ShopID == arg.ShopID && k.TicketNumber == arg.TicketNumber) {
			return database.KitchenTicket{}, uniqueViolation()
		}
	}
	now := time.Now()
	k := database.KitchenTicket{
		ID:           uuid.New(),
		ShopID:       arg.ShopID,
		OrderID:      arg.OrderID,
		TicketNumber: arg.TicketNumber,
		Status:       database.TicketStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	t.st.tickets[k.ID] = k
	return k, nil
}

func (t *fakeTx) AddKitchenTicketItem(ctx context.Context, arg database.AddKitchenTicketItemParams) error {
	if slices.Contains(t.st.ticketItems[arg.TicketID], arg.OrderItemID) {
		return uniqueViolation()
	}
	t.st.ticketItems[arg.TicketID] = append(t.st.ticketItems[arg.TicketID], arg.OrderItemID)
	return nil
}

func (t *fakeTx) GetKitchenTicket(ctx context.Context, arg database.GetKitchenTicketParams) (database.KitchenTicket, error) {
	k, ok := t.st.tickets[arg.ID]
	if !ok || k.ShopID != arg.ShopID {
		return database.KitchenTicket{}, pgx.ErrNoRows
	}
	return k, nil
}

func (t *fakeTx) GetKitchenTicketByOrder(ctx context.Context, orderID uuid.UUID) (database.KitchenTicket, error) {
	for _, k := range t.st.tickets {
		if k.OrderID == orderID {
			return k, nil
		}
	}
	return database.KitchenTicket{}, pgx.ErrNoRows
}

func (t *fakeTx) ListKitchenTicketItems(ctx context.Context, ticketID uuid.UUID) ([]database.OrderItem, error) {
	var out []database.OrderItem
	for _, id := range t.st.ticketItems[ticketID] {
		for _, it := range t.st.items {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (t *fakeTx) UpdateKitchenTicketStatus(ctx context.Context, arg database.UpdateKitchenTicketStatusParams) (database.KitchenTicket, error) {
	k, ok := t.st.tickets[arg.ID]
	if !ok || k.ShopID != arg.ShopID || k.Status != arg.FromStatus {
		return database.KitchenTicket{}, pgx.ErrNoRows
	}
	k.Status = arg.Status
	k.UpdatedAt = time.Now()
	t.st.tickets[k.ID] = k
	return k, nil
}
