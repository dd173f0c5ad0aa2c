// Package events carries committed state transitions to the query cache and
// to realtime subscribers.
package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/cache"
)

// Type names an event on the wire.
type Type string

const (
	OrderCreated         Type = "order.created"
	OrderUpdated         Type = "order.updated"
	OrderCompleted       Type = "order.completed"
	OrderCancelled       Type = "order.cancelled"
	TableUpdated         Type = "table.updated"
	ReservationCreated   Type = "reservation.created"
	ReservationUpdated   Type = "reservation.updated"
	KitchenTicketCreated Type = "kitchen.ticket_created"
	KitchenTicketUpdated Type = "kitchen.ticket_updated"
	AnalyticsUpdated     Type = "analytics.updated"
	ShopUpdated          Type = "shop.updated"
	ShopDeleted          Type = "shop.deleted"
	CatalogUpdated       Type = "catalog.updated"
)

// InvalidationRules lists the cached resources each event type makes stale.
var InvalidationRules = map[Type][]cache.Resource{
	OrderCreated:         {cache.Orders, cache.Tables, cache.KitchenTickets, cache.Products},
	OrderUpdated:         {cache.Orders, cache.KitchenTickets, cache.Products},
	OrderCompleted:       {cache.Orders, cache.Tables, cache.Reservations},
	OrderCancelled:       {cache.Orders, cache.Tables, cache.Reservations, cache.KitchenTickets, cache.Products},
	TableUpdated:         {cache.Tables, cache.Reservations},
	ReservationCreated:   {cache.Reservations, cache.Tables},
	ReservationUpdated:   {cache.Reservations, cache.Tables},
	KitchenTicketCreated: {cache.KitchenTickets},
	KitchenTicketUpdated: {cache.KitchenTickets, cache.Products},
	AnalyticsUpdated:     {cache.Reports},
	ShopUpdated:          {cache.Shops, cache.Tables},
	CatalogUpdated:       {cache.Categories, cache.Products},
}

// Event is one committed state transition of a shop.
type Event struct {
	Type    Type
	ShopID  uuid.UUID
	Payload any
}

// Invalidates returns the resources this event makes stale.
func (e Event) Invalidates() []cache.Resource {
	return InvalidationRules[e.Type]
}

// Envelope is the message delivered to realtime clients.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type envelopePayload struct {
	ShopID     uuid.UUID        `json:"shop_id"`
	Invalidate []cache.Resource `json:"invalidate"`
	Data       any              `json:"data,omitempty"`
}

// Envelope encodes the event for the wire. The payload tells clients which
// resources to refetch.
func (e Event) Envelope() (Envelope, error) {
	inv := e.Invalidates()
	if inv == nil {
		inv = []cache.Resource{}
	}
	raw, err := json.Marshal(envelopePayload{ShopID: e.ShopID, Invalidate: inv, Data: e.Payload})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: e.Type, Payload: raw}, nil
}

// Sink receives committed events. Delivery is at most once.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Dispatcher invalidates the query cache for each event and then fans it out
// to every sink. Sink failures are logged and dropped.
type Dispatcher struct {
	cache *cache.Store
	sinks []Sink
	log   logrus.FieldLogger
}

func NewDispatcher(c *cache.Store, log logrus.FieldLogger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{cache: c, sinks: sinks, log: log}
}

// AddSink registers another sink. Not safe to call concurrently with Notify.
func (d *Dispatcher) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

func (d *Dispatcher) Notify(ctx context.Context, evs ...Event) {
	for _, ev := range evs {
		if d.cache != nil {
			if ev.Type == ShopDeleted {
				d.cache.Drop(ev.ShopID)
			} else {
				d.cache.Invalidate(ev.ShopID, ev.Invalidates()...)
			}
		}
		for _, s := range d.sinks {
			if err := s.Publish(ctx, ev); err != nil {
				d.log.WithFields(logrus.Fields{
					"event":   ev.Type,
					"shop_id": ev.ShopID,
				}).WithError(err).Warn("event dropped")
			}
		}
	}
}
