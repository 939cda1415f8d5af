package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPGateway_CreateOrder(t *testing.T) {
	t.Run("creates order and converts amount to paise", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/orders" {
				t.Errorf("expected /v1/orders, got %s", r.URL.Path)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key_id" || pass != "key_secret" {
				t.Errorf("unexpected credentials: %s/%s", user, pass)
			}

			var req createOrderRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Amount != 109000 {
				t.Errorf("expected amount 109000 paise, got %d", req.Amount)
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(GatewayOrder{
				ID:       "order_gw1",
				Amount:   req.Amount,
				Currency: req.Currency,
				Receipt:  req.Receipt,
			})
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "key_id", "key_secret", server.Client())
		order, err := gw.CreateOrder(context.Background(), 1090, "INR", "order-123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.ID != "order_gw1" {
			t.Errorf("unexpected order id: %s", order.ID)
		}
	})

	t.Run("provider error surfaces as gateway unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "key_id", "key_secret", server.Client())
		_, err := gw.CreateOrder(context.Background(), 1090, "INR", "order-123")
		if !errors.Is(err, ErrGatewayUnavailable) {
			t.Errorf("expected ErrGatewayUnavailable, got %v", err)
		}
	})

	t.Run("missing order id is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "key_id", "key_secret", server.Client())
		_, err := gw.CreateOrder(context.Background(), 1090, "INR", "order-123")
		if err == nil {
			t.Error("expected error for missing order id")
		}
	})

	t.Run("circuit opens after repeated failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, "key_id", "key_secret", server.Client())
		for range 10 {
			_, _ = gw.CreateOrder(context.Background(), 100, "INR", "r")
		}

		_, err := gw.CreateOrder(context.Background(), 100, "INR", "r")
		if !errors.Is(err, ErrGatewayUnavailable) {
			t.Errorf("expected ErrGatewayUnavailable with open circuit, got %v", err)
		}
	})
}
