package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/events"
)

// ErrBufferFull is returned by Publish when the broadcast queue is full. The
// event is dropped; clients recover on the next event or their next poll.
var ErrBufferFull = errors.New("ws: broadcast buffer full")

const broadcastBuffer = 256

// shopMessage is an encoded envelope routed to one shop's room.
type shopMessage struct {
	shopID  uuid.UUID
	message []byte
}

// Hub maintains the set of active clients per shop and broadcasts committed
// events to them. A single goroutine (Run) owns all writes to the rooms.
type Hub struct {
	// Registered clients by shop ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan shopMessage

	// done is closed when Run returns; join and leave stop waiting on it.
	done     chan struct{}
	doneOnce sync.Once

	mu  sync.RWMutex
	log logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan shopMessage, broadcastBuffer),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub's main loop. It returns when ctx is done, after closing
// every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.doneOnce.Do(func() { close(h.done) })
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.shopID] == nil {
				h.rooms[client.shopID] = make(map[*Client]bool)
			}
			h.rooms[client.shopID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.shopID] {
				select {
				case client.send <- msg.message:
				default:
					// Slow client: its buffer is full, evict it.
					h.log.WithField("shop_id", msg.shopID).Warn("evicting slow websocket client")
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// join hands a client to Run. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a client back to Run. After shutdown closeAll has already
// released every client, so there is nothing left to do.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// remove drops a client and frees its room. Callers hold mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.shopID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.shopID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for shopID, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
		delete(h.rooms, shopID)
	}
}

// Publish implements events.Sink. It never blocks: when the queue is full the
// event is dropped and ErrBufferFull returned.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	message, err := encode(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- shopMessage{shopID: ev.ShopID, message: message}:
		return nil
	default:
		return ErrBufferFull
	}
}

// Clients returns the number of connected clients for a shop.
func (h *Hub) Clients(shopID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[shopID])
}
