// Package payment is the boundary to the external card payment gateway. The
// service only asks it for a payment intent; confirmation happens between the
// client and the gateway, and the outcome is recorded through complete-payment.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

var ErrGatewayUnavailable = errors.New("payment gateway not configured")

// Intent is what the client needs to confirm a card payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error)
}

// Noop is used when no gateway is configured. Every call fails.
type Noop struct{}

func (Noop) CreatePaymentIntent(context.Context, decimal.Decimal, string) (Intent, error) {
	return Intent{}, ErrGatewayUnavailable
}

// HTTPGateway posts form-encoded intents to a Stripe-compatible endpoint.
type HTTPGateway struct {
	endpoint   string
	apiKey     string
	client     *http.Client
	maxRetries uint64
}

func NewHTTPGateway(endpoint, apiKey string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{endpoint: endpoint, apiKey: apiKey, client: client, maxRetries: 2}
}

// MinorUnits converts an amount to the smallest currency unit, e.g. cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (g *HTTPGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (Intent, error) {
	minor := MinorUnits(amount)
	if minor <= 0 {
		return Intent{}, fmt.Errorf("amount must be positive, got %s", amount)
	}
	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", minor))
	form.Set("currency", strings.ToLower(currency))

	var intent Intent
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+g.apiKey)

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("gateway status %d", resp.StatusCode)
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		if err := json.Unmarshal(body, &intent); err != nil {
			return backoff.Permanent(fmt.Errorf("decode intent: %w", err))
		}
		if intent.ClientSecret == "" {
			return backoff.Permanent(errors.New("gateway returned no client_secret"))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
	), g.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return Intent{}, err
	}
	if intent.Amount == 0 {
		intent.Amount = minor
	}
	if intent.Currency == "" {
		intent.Currency = strings.ToLower(currency)
	}
	return intent, nil
}
