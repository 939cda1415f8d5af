package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// ErrGatewayUnavailable wraps provider-side failures, including a tripped
// circuit. The checkout marks the order failed and lets the user retry.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayOrder is the provider-side handle the payment widget is driven
// with. Amount is in the provider's smallest currency unit.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway creates provider orders ahead of widget-driven payment.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
}

// HTTPGateway talks to the payment provider's REST API. Calls run through a
// circuit breaker so a degraded provider fails fast instead of tying up
// checkout requests.
type HTTPGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*GatewayOrder]
}

func NewHTTPGateway(baseURL, keyID, keySecret string, client *http.Client) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    client,
		breaker: gobreaker.NewCircuitBreaker[*GatewayOrder](gobreaker.Settings{
			Name: "payment-gateway",
		}),
	}
}

// KeyID is the public half of the credentials; the client-side widget needs
// it to open a payment.
func (g *HTTPGateway) KeyID() string {
	return g.keyID
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order with the provider. Amount is in whole
// rupees here; the provider API takes paise.
func (g *HTTPGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	order, err := g.breaker.Execute(func() (*GatewayOrder, error) {
		return g.createOrder(ctx, amount, currency, receipt)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	return order, nil
}

func (g *HTTPGateway) createOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount * 100,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("gateway order missing id")
	}
	return &order, nil
}
