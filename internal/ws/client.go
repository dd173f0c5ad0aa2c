package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/auth"
	"github.com/tableside-pos/api/internal/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	clientBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (we validate via JWT)
	},
}

func encode(ev events.Event) ([]byte, error) {
	env, err := ev.Envelope()
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Client represents a single WebSocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	shopID uuid.UUID
	send   chan []byte
	log    logrus.FieldLogger
}

// watch blocks until the peer goes away. Clients never send commands over
// the socket, so anything they do send is discarded.
func (c *Client) watch() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.log.WithError(err).Warn("websocket read failed")
		}
		return
	}
}

// deliver drains the send queue onto the socket and keeps the peer alive
// with pings. It returns once the hub closes the queue or a write fails.
func (c *Client) deliver() {
	keepalive := time.NewTicker(pingPeriod)
	defer keepalive.Stop()
	defer c.conn.Close()

	for {
		var err error
		select {
		case msg, open := <-c.send:
			if !open {
				c.control(websocket.CloseMessage)
				return
			}
			err = c.flush(msg)
		case <-keepalive.C:
			err = c.control(websocket.PingMessage)
		}
		if err != nil {
			c.log.WithError(err).Debug("websocket write stopped")
			return
		}
	}
}

// flush writes first plus whatever is already queued behind it as a single
// text frame, one envelope per line.
func (c *Client) flush(first []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	w.Write(first)
	for pending := len(c.send); pending > 0; pending-- {
		w.Write([]byte{'\n'})
		w.Write(<-c.send)
	}
	return w.Close()
}

func (c *Client) control(kind int) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, nil)
}

// ServeWS upgrades an authenticated request and joins the shop's room.
// Endpoint: WS /ws/shops/{sid}?token=JWT (an Authorization header also works)
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromRequest(r, jwtSecret, true)
	if errors.Is(err, auth.ErrNoToken) {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	shopID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		http.Error(w, "invalid shop id", http.StatusBadRequest)
		return
	}

	if !claims.CanAccessShop(shopID) {
		http.Error(w, "shop access denied", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		shopID: shopID,
		send:   make(chan []byte, clientBuffer),
		log: hub.log.WithFields(logrus.Fields{
			"shop_id": shopID,
			"user_id": claims.UserID,
		}),
	}
	if !hub.join(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.deliver()
	go client.watch()
}
