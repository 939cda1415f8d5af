package checkout

import (
	"testing"

	"github.com/buildunia/commerce/internal/cart"
	"github.com/buildunia/commerce/internal/domain"
)

func TestPriceCart(t *testing.T) {
	t.Run("subtotal 1000 without mentorship", func(t *testing.T) {
		state := cart.State{Lines: []cart.Line{
			{ProductID: "p1", Category: "IoT", Quantity: 2, UnitPrice: 500},
		}}

		quote := PriceCart(state)

		if quote.Subtotal != 1000 {
			t.Errorf("expected subtotal 1000, got %d", quote.Subtotal)
		}
		if quote.Shipping != 10 {
			t.Errorf("expected shipping 10, got %d", quote.Shipping)
		}
		if quote.Tax != 80 {
			t.Errorf("expected tax 80, got %d", quote.Tax)
		}
		if quote.Total != 1090 {
			t.Errorf("expected total 1090, got %d", quote.Total)
		}
	})

	t.Run("mentorship line waives shipping", func(t *testing.T) {
		state := cart.State{Lines: []cart.Line{
			{ProductID: "p1", Category: "IoT", Quantity: 1, UnitPrice: 500},
			{ProductID: "m1", Category: domain.CategoryMentorship, Quantity: 1, UnitPrice: 750},
		}}

		quote := PriceCart(state)

		if quote.Shipping != 0 {
			t.Errorf("expected shipping 0, got %d", quote.Shipping)
		}
		if quote.Total != quote.Subtotal+quote.Shipping+quote.Tax {
			t.Errorf("total invariant broken: %+v", quote)
		}
	})

	t.Run("tax rounds to nearest rupee", func(t *testing.T) {
		// 131 * 0.08 = 10.48 -> 10; 144 * 0.08 = 11.52 -> 12
		state := cart.State{Lines: []cart.Line{{ProductID: "p1", Category: "IoT", Quantity: 1, UnitPrice: 131}}}
		if got := PriceCart(state).Tax; got != 10 {
			t.Errorf("expected tax 10, got %d", got)
		}

		state.Lines[0].UnitPrice = 144
		if got := PriceCart(state).Tax; got != 12 {
			t.Errorf("expected tax 12, got %d", got)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		quote := PriceCart(cart.State{})
		if quote.Subtotal != 0 || quote.Tax != 0 {
			t.Errorf("unexpected quote for empty cart: %+v", quote)
		}
		if quote.Total != quote.Subtotal+quote.Shipping+quote.Tax {
			t.Errorf("total invariant broken: %+v", quote)
		}
	})

	t.Run("total invariant holds across amounts", func(t *testing.T) {
		for _, price := range []int64{1, 7, 99, 250, 999, 12345} {
			state := cart.State{Lines: []cart.Line{{ProductID: "p", Category: "IoT", Quantity: 1, UnitPrice: price}}}
			quote := PriceCart(state)
			if quote.Total != quote.Subtotal+quote.Shipping+quote.Tax {
				t.Errorf("price %d: total invariant broken: %+v", price, quote)
			}
		}
	})
}
