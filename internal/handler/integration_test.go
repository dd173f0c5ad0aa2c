//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tableside-pos/api/internal/auth"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/payment"
	"github.com/tableside-pos/api/internal/router"
	"github.com/tableside-pos/api/internal/service"
	"github.com/tableside-pos/api/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const integrationSecret = "integration-test-secret"

// TestIntegrationFlow walks a dinner service through the full stack: floor
// setup, a reservation, seating, ordering, the kitchen and payment.
func TestIntegrationFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connStr := setupPostgresContainer(t, ctx)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, database.Schema)
	require.NoError(t, err, "apply schema")

	log, _ := test.NewNullLogger()
	store := cache.New()
	hub := ws.NewHub(log)
	dispatcher := events.NewDispatcher(store, log, hub)
	go hub.Run(ctx)

	r := router.New(router.Deps{
		Config: &config.Config{
			JWTSecret:       integrationSecret,
			PaymentCurrency: "USD",
			CORSOrigins:     []string{"*"},
		},
		Pool:       pool,
		Queries:    database.New(pool),
		Hub:        hub,
		Cache:      store,
		Dispatcher: dispatcher,
		Options:    service.Options{StockPolicy: service.StockOnOrder, Gateway: payment.Noop{}},
		Logger:     log,
	})
	server := httptest.NewServer(r)
	defer server.Close()

	admin := signToken(t, &auth.Claims{UserID: uuid.New(), IsAdmin: true})

	// --- 1. Shop and catalog ---
	shop := httpJSON(t, server, "POST", "/shops", map[string]interface{}{"name": "Corner Bistro"}, admin, http.StatusCreated)
	shopID := uuid.MustParse(shop["id"].(string))
	base := "/shops/" + shopID.String()

	staff := signToken(t, &auth.Claims{UserID: uuid.New(), ShopIDs: []uuid.UUID{shopID}})
	feed := subscribe(t, ctx, server, shopID, staff)

	category := httpJSON(t, server, "POST", base+"/categories", map[string]interface{}{"name": "Mains"}, staff, http.StatusCreated)
	steak := httpJSON(t, server, "POST", base+"/products", map[string]interface{}{
		"category_id":      category["id"],
		"name":             "Steak",
		"price":            "24.50",
		"stock":            10,
		"requires_kitchen": true,
	}, staff, http.StatusCreated)

	// --- 2. Floor ---
	table := httpJSON(t, server, "POST", base+"/tables", map[string]interface{}{"number": 1, "capacity": 4}, staff, http.StatusCreated)
	tableID := table["id"].(string)

	// --- 3. Reservation: an oversized party is blocked, a fitting one is booked ---
	when := time.Now().Add(48 * time.Hour).Truncate(time.Hour).Add(15 * time.Minute)
	blocked := httpJSON(t, server, "POST", base+"/reservations", map[string]interface{}{
		"customer_name":    "Large Party",
		"party_size":       9,
		"reservation_time": when,
		"table_id":         tableID,
	}, staff, http.StatusConflict)
	assert.NotEmpty(t, blocked["conflicts"])

	booked := httpJSON(t, server, "POST", base+"/reservations", map[string]interface{}{
		"customer_name":    "Dana Reyes",
		"party_size":       3,
		"reservation_time": when,
		"table_id":         tableID,
	}, staff, http.StatusCreated)
	reservationID := booked["reservation"].(map[string]interface{})["id"].(string)
	assert.Equal(t, "reserved", tableStatus(t, server, base, tableID, staff))

	// --- 4. Seat ---
	seated := httpJSON(t, server, "PATCH", base+"/reservations/"+reservationID, map[string]interface{}{"status": "seated"}, staff, http.StatusOK)
	assert.Equal(t, "seated", seated["reservation"].(map[string]interface{})["status"])
	assert.Equal(t, "occupied", tableStatus(t, server, base, tableID, staff))

	// --- 5. Order with a kitchen line ---
	created := httpJSON(t, server, "POST", base+"/orders", map[string]interface{}{
		"table_id":    tableID,
		"guest_count": 3,
		"items":       []map[string]interface{}{{"product_id": steak["id"], "quantity": 2}},
	}, staff, http.StatusCreated)
	orderID := created["order"].(map[string]interface{})["id"].(string)
	ticket := created["kitchen_ticket"].(map[string]interface{})["ticket"].(map[string]interface{})
	ticketID := ticket["id"].(string)
	assert.Equal(t, "pending", ticket["status"])

	product := httpJSON(t, server, "GET", base+"/products/"+steak["id"].(string), nil, staff, http.StatusOK)
	assert.Equal(t, float64(8), product["stock"])

	// Releasing the table while the order is open is refused.
	httpJSON(t, server, "PATCH", base+"/tables/"+tableID+"/status", map[string]interface{}{"status": "available"}, staff, http.StatusConflict)

	// --- 6. Kitchen moves forward only ---
	httpJSON(t, server, "PATCH", base+"/kitchen/tickets/"+ticketID, map[string]interface{}{"status": "ready"}, staff, http.StatusOK)
	httpJSON(t, server, "PATCH", base+"/kitchen/tickets/"+ticketID, map[string]interface{}{"status": "preparing"}, staff, http.StatusConflict)

	// --- 7. Payment ---
	paid := httpJSON(t, server, "PATCH", base+"/orders/"+orderID+"/complete-payment", map[string]interface{}{"payment_method": "card"}, staff, http.StatusOK)
	assert.Equal(t, "completed", paid["order"].(map[string]interface{})["status"])
	assert.Equal(t, "cleaning", tableStatus(t, server, base, tableID, staff))
	httpJSON(t, server, "PATCH", base+"/tables/"+tableID+"/status", map[string]interface{}{"status": "available"}, staff, http.StatusOK)
	assert.Equal(t, "available", tableStatus(t, server, base, tableID, staff))
	httpJSON(t, server, "PATCH", base+"/orders/"+orderID+"/complete-payment", map[string]interface{}{"payment_method": "card"}, staff, http.StatusConflict)

	report := httpJSON(t, server, "GET", base+"/reports/sales", nil, staff, http.StatusOK)
	assert.Equal(t, float64(1), report["order_count"])
	assert.Equal(t, "49.00", report["total_revenue"])

	// --- 8. Live feed saw the whole service ---
	for _, want := range []events.Type{
		events.CatalogUpdated,
		events.ReservationCreated,
		events.ReservationUpdated,
		events.OrderCreated,
		events.KitchenTicketCreated,
		events.KitchenTicketUpdated,
		events.OrderCompleted,
	} {
		assert.Eventually(t, func() bool { return feed.saw(want) }, 5*time.Second, 20*time.Millisecond, "missing %s", want)
	}
}

// TestIntegrationShopDelete checks the cascade confirmation against real
// foreign keys.
func TestIntegrationShopDelete(t *testing.T) {
	ctx := context.Background()
	connStr := setupPostgresContainer(t, ctx)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()
	_, err = pool.Exec(ctx, database.Schema)
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	r := router.New(router.Deps{
		Config:     &config.Config{JWTSecret: integrationSecret, CORSOrigins: []string{"*"}},
		Pool:       pool,
		Queries:    database.New(pool),
		Hub:        ws.NewHub(log),
		Cache:      cache.New(),
		Dispatcher: events.NewDispatcher(cache.New(), log),
		Logger:     log,
	})
	server := httptest.NewServer(r)
	defer server.Close()

	admin := signToken(t, &auth.Claims{UserID: uuid.New(), IsAdmin: true})
	shop := httpJSON(t, server, "POST", "/shops", map[string]interface{}{"name": "Harbor Cafe"}, admin, http.StatusCreated)
	base := "/shops/" + shop["id"].(string)
	httpJSON(t, server, "POST", base+"/tables", map[string]interface{}{"number": 1, "capacity": 2}, admin, http.StatusCreated)

	refused := httpJSON(t, server, "DELETE", base+"?cascade=true&confirm_name=harbor", nil, admin, http.StatusConflict)
	assert.Equal(t, float64(1), refused["details"].(map[string]interface{})["tables"])

	deleted := httpJSON(t, server, "DELETE", base+"?cascade=true&confirm_name=Harbor%20Cafe", nil, admin, http.StatusOK)
	assert.Equal(t, true, deleted["cascade_delete"])
	httpJSON(t, server, "GET", base, nil, admin, http.StatusNotFound)
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}
	return connStr
}

func signToken(t *testing.T, c *auth.Claims) string {
	t.Helper()
	token, err := auth.GenerateToken(integrationSecret, c.UserID, c.IsAdmin, c.ShopIDs...)
	require.NoError(t, err)
	return token
}

func tableStatus(t *testing.T, server *httptest.Server, base, tableID, token string) string {
	t.Helper()
	for _, tb := range httpList(t, server, base+"/tables", token) {
		if tb["id"] == tableID {
			return tb["status"].(string)
		}
	}
	t.Fatalf("table %s not listed", tableID)
	return ""
}

// eventFeed records event types seen by a live subscriber.
type eventFeed struct {
	mu   sync.Mutex
	seen map[events.Type]int
}

func (f *eventFeed) saw(typ events.Type) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[typ] > 0
}

func subscribe(t *testing.T, ctx context.Context, server *httptest.Server, shopID uuid.UUID, token string) *eventFeed {
	t.Helper()
	feed := &eventFeed{seen: map[events.Type]int{}}
	connected := make(chan struct{})
	var once sync.Once

	log, _ := test.NewNullLogger()
	sub := ws.NewSubscriber(ws.SubscriberConfig{
		URL: fmt.Sprintf("ws%s/ws/shops/%s?token=%s", strings.TrimPrefix(server.URL, "http"), shopID, token),
		OnEvent: func(env events.Envelope) {
			feed.mu.Lock()
			feed.seen[env.Type]++
			feed.mu.Unlock()
		},
		OnStateChange: func(_, to ws.State) {
			if to == ws.StateConnected {
				once.Do(func() { close(connected) })
			}
		},
		Logger: log,
	})
	go sub.Run(ctx)

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not connect")
	}
	return feed
}

// --- HTTP helpers ---

func doHTTP(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string, want int) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	if resp.StatusCode != want {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		resp.Body.Close()
		t.Fatalf("%s %s: status %d, want %d, body: %v", method, path, resp.StatusCode, want, errResp)
	}
	return resp
}

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string, want int) map[string]interface{} {
	t.Helper()
	resp := doHTTP(t, server, method, path, body, token, want)
	defer resp.Body.Close()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func httpList(t *testing.T, server *httptest.Server, path, token string) []map[string]interface{} {
	t.Helper()
	resp := doHTTP(t, server, "GET", path, nil, token, http.StatusOK)
	defer resp.Body.Close()

	var result []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}
