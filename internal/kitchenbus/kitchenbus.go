// Package kitchenbus forwards kitchen ticket events to RabbitMQ so kitchen
// display workers can consume them outside the HTTP process.
package kitchenbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/events"
)

const (
	Exchange       = "kitchen_topic"
	publishTimeout = 5 * time.Second
	kitchenPrefix  = "kitchen."
	queueSize      = 256
)

// ErrQueueFull is returned by Publish when the outbound queue is full.
var ErrQueueFull = errors.New("kitchenbus: publish queue full")

// Channel is the part of *amqp.Channel the bus publishes through.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Bus is an events.Sink for kitchen.* events. Publish only queues; Run
// sends to the broker, so a stalled broker never holds up a request.
type Bus struct {
	conn  *amqp.Connection
	ch    Channel
	queue chan events.Event
	log   logrus.FieldLogger
	now   func() time.Time
}

// Dial connects to the broker and declares the topic exchange.
func Dial(url string, log logrus.FieldLogger) (*Bus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	b := New(ch, log)
	b.conn = conn
	return b, nil
}

// New wraps an already prepared channel.
func New(ch Channel, log logrus.FieldLogger) *Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bus{ch: ch, queue: make(chan events.Event, queueSize), log: log, now: time.Now}
}

// RoutingKey is kitchen.<shop_id>.<event>, e.g.
// kitchen.7f1c...e2.ticket_created.
func RoutingKey(ev events.Event) string {
	return kitchenPrefix + ev.ShopID.String() + "." + strings.TrimPrefix(string(ev.Type), kitchenPrefix)
}

// Publish implements events.Sink. Non-kitchen events are ignored; kitchen
// events are queued for Run and dropped with ErrQueueFull when it lags.
func (b *Bus) Publish(_ context.Context, ev events.Event) error {
	if !strings.HasPrefix(string(ev.Type), kitchenPrefix) {
		return nil
	}
	select {
	case b.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run sends queued events until ctx is done. Events still queued at that
// point are dropped.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := len(b.queue); n > 0 {
				b.log.WithField("dropped", n).Warn("kitchen events left unsent")
			}
			return nil
		case ev := <-b.queue:
			if err := b.send(ctx, ev); err != nil {
				b.log.WithFields(logrus.Fields{
					"event":   ev.Type,
					"shop_id": ev.ShopID,
				}).WithError(err).Warn("kitchen event dropped")
			}
		}
	}
}

func (b *Bus) send(ctx context.Context, ev events.Event) error {
	env, err := ev.Envelope()
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	key := RoutingKey(ev)
	err = b.ch.PublishWithContext(ctx,
		Exchange, // exchange
		key,      // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    b.now(),
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	b.log.WithField("routing_key", key).Debug("kitchen event published")
	return nil
}

func (b *Bus) Close() error {
	err := b.ch.Close()
	if b.conn != nil {
		if cerr := b.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
