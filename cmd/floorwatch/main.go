// Command floorwatch follows a shop's live event feed from a terminal. When
// the feed cannot be reached it falls back to polling the table list.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/ws"
)

func main() {
	server := flag.String("server", "http://localhost:8081", "API base URL")
	shop := flag.String("shop", "", "shop ID to watch")
	token := flag.String("token", os.Getenv("FLOORWATCH_TOKEN"), "bearer token (default $FLOORWATCH_TOKEN)")
	poll := flag.Duration("poll", 10*time.Second, "poll interval after the live feed gives up")
	verbose := flag.Bool("v", false, "log connection details")
	flag.Parse()

	shopID, err := uuid.Parse(*shop)
	if err != nil || *token == "" {
		fmt.Fprintln(os.Stderr, "usage: floorwatch -shop <id> -token <jwt> [-server url]")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, closer, err := logger.New(logger.Config{Level: level, Format: "text"}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	wsURL, err := feedURL(*server, shopID, *token)
	if err != nil {
		log.WithError(err).Fatal("invalid server URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := &watcher{out: os.Stdout, client: &http.Client{Timeout: 5 * time.Second}}
	sub := ws.NewSubscriber(ws.SubscriberConfig{
		URL:     wsURL,
		OnEvent: w.printEvent,
		OnStateChange: func(from, to ws.State) {
			fmt.Fprintf(w.out, "-- %s -> %s\n", from, to)
		},
		Poll: func(ctx context.Context) error {
			return w.printTables(ctx, *server, shopID, *token)
		},
		PollInterval: *poll,
		Logger:       log.WithField("shop_id", shopID),
	})
	if err := sub.Run(ctx); err != nil {
		log.WithError(err).Error("subscriber stopped")
	}
}

// feedURL turns an http(s) base URL into the shop's websocket URL.
func feedURL(base string, shopID uuid.UUID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/shops/" + shopID.String()
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

type watcher struct {
	out    io.Writer
	client *http.Client
}

func (w *watcher) printEvent(env events.Envelope) {
	var body struct {
		Invalidate []string        `json:"invalidate"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(env.Payload, &body); err != nil {
		fmt.Fprintf(w.out, "%s  %s  (unreadable payload)\n", time.Now().Format("15:04:05"), env.Type)
		return
	}
	fmt.Fprintf(w.out, "%s  %-24s %s\n", time.Now().Format("15:04:05"), env.Type, summarize(env.Type, body.Data))
}

// summarize picks the few fields worth a glance for each event family.
func summarize(typ events.Type, data json.RawMessage) string {
	var m map[string]any
	if json.Unmarshal(data, &m) != nil {
		return ""
	}
	if inner, ok := m["order"].(map[string]any); ok {
		m = inner
	} else if inner, ok := m["ticket"].(map[string]any); ok {
		m = inner
	}

	var parts []string
	for _, k := range []string{"number", "ticket_number", "customer_name", "party_size", "status", "total"} {
		if v, ok := m[k]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	if len(parts) == 0 && strings.HasPrefix(string(typ), "catalog.") {
		return "catalog changed"
	}
	return strings.Join(parts, " ")
}

func (w *watcher) printTables(ctx context.Context, base string, shopID uuid.UUID, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/shops/"+shopID.String()+"/tables", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("poll tables: status %d", resp.StatusCode)
	}

	var tables []struct {
		Number   int32  `json:"number"`
		Capacity int32  `json:"capacity"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		return fmt.Errorf("decode tables: %w", err)
	}

	fmt.Fprintf(w.out, "%s  floor:", time.Now().Format("15:04:05"))
	for _, t := range tables {
		fmt.Fprintf(w.out, " #%d(%d)=%s", t.Number, t.Capacity, t.Status)
	}
	fmt.Fprintln(w.out)
	return nil
}
