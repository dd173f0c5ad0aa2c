package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/events"
)

// State is the lifecycle state of a Subscriber session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StatePolling
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StatePolling:
		return "polling"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var ErrAlreadyStarted = errors.New("ws: subscriber already started")

// Dialer opens the WebSocket connection. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Poller refetches whatever the caller displays. It runs once per
// PollInterval after the subscriber gives up on the socket.
type Poller func(ctx context.Context) error

type SubscriberConfig struct {
	// URL including the ?token= query parameter.
	URL    string
	Dialer Dialer

	OnEvent       func(events.Envelope)
	OnStateChange func(from, to State)
	Poll          Poller

	InitialBackoff time.Duration // default 1s
	MaxAttempts    int           // default 5
	PollInterval   time.Duration // default 10s

	Logger logrus.FieldLogger
}

// Subscriber keeps a client view in sync with a shop's event stream. It
// connects, reconnects with exponential backoff after a drop, and falls back
// to polling once the attempts are exhausted.
type Subscriber struct {
	cfg SubscriberConfig

	mu    sync.Mutex
	state State
}

func NewSubscriber(cfg SubscriberConfig) *Subscriber {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Subscriber{cfg: cfg}
}

func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Subscriber) setState(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	s.changed(from, to)
}

func (s *Subscriber) changed(from, to State) {
	if from == to {
		return
	}
	s.cfg.Logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("subscriber state")
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(from, to)
	}
}

// start moves an idle subscriber to connecting in one step, so only one
// caller can win.
func (s *Subscriber) start() bool {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	s.state = StateConnecting
	s.mu.Unlock()
	s.changed(StateIdle, StateConnecting)
	return true
}

// Run drives the session until ctx is done. It can be called once.
func (s *Subscriber) Run(ctx context.Context) error {
	if !s.start() {
		return ErrAlreadyStarted
	}
	defer s.setState(StateClosed)

	for {
		conn, err := s.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.cfg.Logger.WithError(err).Warn("websocket unreachable, polling")
			s.setState(StatePolling)
			s.poll(ctx)
			return nil
		}

		s.setState(StateConnected)
		err = s.read(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		s.cfg.Logger.WithError(err).Info("websocket dropped")
		s.setState(StateReconnecting)
	}
}

func (s *Subscriber) connect(ctx context.Context) (*websocket.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.MaxElapsedTime = 0

	var (
		conn    *websocket.Conn
		attempt int
	)
	op := func() error {
		if attempt > 0 {
			s.setState(StateReconnecting)
		}
		attempt++
		c, resp, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, nil)
		if err != nil {
			// Auth failures will not heal by retrying.
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return backoff.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.MaxAttempts-1)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return conn, nil
}

// read delivers envelopes until the connection fails or ctx is done.
func (s *Subscriber) read(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		// The hub batches queued messages into one frame, newline separated.
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if len(line) == 0 {
				continue
			}
			var env events.Envelope
			if err := json.Unmarshal(line, &env); err != nil {
				s.cfg.Logger.WithError(err).Warn("undecodable event frame")
				continue
			}
			if s.cfg.OnEvent != nil {
				s.cfg.OnEvent(env)
			}
		}
	}
}

func (s *Subscriber) poll(ctx context.Context) {
	if s.cfg.Poll == nil {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if err := s.cfg.Poll(ctx); err != nil && ctx.Err() == nil {
			s.cfg.Logger.WithError(err).Warn("poll failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
