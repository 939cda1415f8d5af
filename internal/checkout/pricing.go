package checkout

import (
	"math"

	"github.com/buildunia/commerce/internal/cart"
	"github.com/buildunia/commerce/internal/domain"
)

const (
	// FlatShippingFee applies to every order that ships something physical.
	// Mentorship sessions ship nothing, so any cart containing one waives it.
	FlatShippingFee int64 = 10

	taxRate = 0.08
)

// Quote is the derived pricing for a cart, in whole rupees.
// Total == Subtotal + Shipping + Tax always holds.
type Quote struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// PriceCart computes the quote for the current cart state. Pure; callers
// re-run it whenever the cart changes.
func PriceCart(state cart.State) Quote {
	subtotal := state.Subtotal()

	var shipping int64 = FlatShippingFee
	if state.HasCategory(domain.CategoryMentorship) {
		shipping = 0
	}

	tax := int64(math.Round(float64(subtotal) * taxRate))

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
