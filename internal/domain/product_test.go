package domain

import (
	"encoding/json"
	"testing"
)

func TestProduct_PriceFor(t *testing.T) {
	t.Run("resolves explicit option from object map", func(t *testing.T) {
		p := Product{
			Prices: json.RawMessage(`{"full":1500,"hardware":900,"code":400}`),
			Price:  100,
		}

		if got := p.PriceFor(PriceOptionHardware); got != 900 {
			t.Errorf("expected 900, got %d", got)
		}
	})

	t.Run("no option prefers full then code", func(t *testing.T) {
		p := Product{Prices: json.RawMessage(`{"full":1500,"code":400}`)}
		if got := p.PriceFor(""); got != 1500 {
			t.Errorf("expected 1500, got %d", got)
		}

		p = Product{Prices: json.RawMessage(`{"code":400}`)}
		if got := p.PriceFor(""); got != 400 {
			t.Errorf("expected 400, got %d", got)
		}
	})

	t.Run("parses options map stored as JSON string", func(t *testing.T) {
		p := Product{
			Prices: json.RawMessage(`"{\"full\":2000,\"mentorship\":750}"`),
			Price:  100,
		}

		if got := p.PriceFor(PriceOptionMentorship); got != 750 {
			t.Errorf("expected 750, got %d", got)
		}
	})

	t.Run("falls back to flat price when map absent", func(t *testing.T) {
		p := Product{Price: 299}
		if got := p.PriceFor(PriceOptionFull); got != 299 {
			t.Errorf("expected 299, got %d", got)
		}
	})

	t.Run("falls back to flat price when map unparseable", func(t *testing.T) {
		p := Product{Prices: json.RawMessage(`"not json at all"`), Price: 350}
		if got := p.PriceFor(""); got != 350 {
			t.Errorf("expected 350, got %d", got)
		}
	})

	t.Run("unknown option falls back to flat price", func(t *testing.T) {
		p := Product{Prices: json.RawMessage(`{"full":1500}`), Price: 80}
		if got := p.PriceFor(PriceOptionCodeMentorship); got != 80 {
			t.Errorf("expected 80, got %d", got)
		}
	})
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusFailed, false},
		{OrderStatusPaid, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusProcessing, false},
		{OrderStatusFailed, OrderStatusPaid, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}
