package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/events"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, shopID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		shopID: shopID,
		send:   make(chan []byte, clientBuffer),
		log:    hub.log,
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func receive(t *testing.T, c *Client) events.Envelope {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		var env events.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return env
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return events.Envelope{}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)

	shopID := uuid.New()
	client := mockClient(hub, shopID)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if got := hub.Clients(shopID); got != 1 {
		t.Fatalf("Clients = %d, want 1", got)
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := startHub(t)

	shopID := uuid.New()
	client := mockClient(hub, shopID)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	// Room should be cleaned up when empty
	if hub.rooms[shopID] != nil {
		t.Fatal("shop room not cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("send channel should be closed")
	}
}

func TestPublishReachesOnlyItsShop(t *testing.T) {
	hub := startHub(t)

	shop1, shop2 := uuid.New(), uuid.New()
	a := mockClient(hub, shop1)
	b := mockClient(hub, shop1)
	other := mockClient(hub, shop2)
	hub.register <- a
	hub.register <- b
	hub.register <- other
	time.Sleep(10 * time.Millisecond)

	err := hub.Publish(context.Background(), events.Event{
		Type:    events.TableUpdated,
		ShopID:  shop1,
		Payload: map[string]string{"status": "occupied"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, c := range []*Client{a, b} {
		env := receive(t, c)
		if env.Type != events.TableUpdated {
			t.Errorf("type = %q, want %q", env.Type, events.TableUpdated)
		}
		var payload struct {
			ShopID     uuid.UUID       `json:"shop_id"`
			Invalidate []string        `json:"invalidate"`
			Data       json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload.ShopID != shop1 {
			t.Errorf("shop_id = %s, want %s", payload.ShopID, shop1)
		}
		if len(payload.Invalidate) == 0 {
			t.Error("invalidate list is empty")
		}
	}
	expectNothing(t, other)
}

func TestPublishToShopWithoutClients(t *testing.T) {
	hub := startHub(t)
	if err := hub.Publish(context.Background(), events.Event{Type: events.OrderCreated, ShopID: uuid.New()}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestPublishBufferFull(t *testing.T) {
	// Hub not running: nothing drains the queue.
	hub := NewHub(quietLogger())
	ev := events.Event{Type: events.OrderUpdated, ShopID: uuid.New()}
	for i := 0; i < broadcastBuffer; i++ {
		if err := hub.Publish(context.Background(), ev); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if err := hub.Publish(context.Background(), ev); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("err = %v, want ErrBufferFull", err)
	}
}

func TestSlowClientEvicted(t *testing.T) {
	hub := startHub(t)

	shopID := uuid.New()
	slow := &Client{hub: hub, shopID: shopID, send: make(chan []byte), log: hub.log}
	fast := mockClient(hub, shopID)
	hub.register <- slow
	hub.register <- fast
	time.Sleep(10 * time.Millisecond)

	if err := hub.Publish(context.Background(), events.Event{Type: events.OrderCreated, ShopID: shopID}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	receive(t, fast)

	if got := hub.Clients(shopID); got != 1 {
		t.Fatalf("Clients = %d, want 1 after eviction", got)
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("slow client channel should be closed")
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := mockClient(hub, uuid.New())
	hub.register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("client channel should be closed on shutdown")
	}
}

func TestJoinAndLeaveAfterShutdownDoNotBlock(t *testing.T) {
	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := mockClient(hub, uuid.New())
	if !hub.join(client) {
		t.Fatal("join should succeed while running")
	}
	cancel()
	<-stopped

	returned := make(chan bool)
	go func() {
		hub.leave(client)
		returned <- hub.join(mockClient(hub, uuid.New()))
	}()
	select {
	case joined := <-returned:
		if joined {
			t.Fatal("join after shutdown should report false")
		}
	case <-time.After(time.Second):
		t.Fatal("leave or join blocked after shutdown")
	}
}
