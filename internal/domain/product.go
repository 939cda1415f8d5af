package domain

import "encoding/json"

type PriceOption string

const (
	PriceOptionFull               PriceOption = "full"
	PriceOptionHardware           PriceOption = "hardware"
	PriceOptionCode               PriceOption = "code"
	PriceOptionMentorship         PriceOption = "mentorship"
	PriceOptionHardwareMentorship PriceOption = "hardware+mentorship"
	PriceOptionCodeMentorship     PriceOption = "code+mentorship"
)

// CategoryMentorship marks products that are mentorship sessions rather than
// physical kits. Orders containing one ship nothing and pay no shipping fee.
const CategoryMentorship = "Mentorship"

type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	// Prices holds the per-option price map as stored. Old catalog rows have
	// it as a JSON-encoded string rather than an object, or not at all.
	Prices json.RawMessage `json:"prices,omitempty"`
	// Price is the legacy flat price, used only when Prices is absent or
	// unparseable.
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// PriceFor resolves the price for a given option. With the zero option it
// prefers the "full" price, then "code". When the options map is missing or
// cannot be parsed it falls back to the flat Price field. The string-then-
// fallback chain matches how legacy catalog rows were written and must not
// be simplified.
func (p Product) PriceFor(opt PriceOption) int64 {
	prices, ok := parsePrices(p.Prices)
	if !ok {
		return p.Price
	}

	if opt != "" {
		if v, ok := prices[opt]; ok {
			return v
		}
		return p.Price
	}

	if v, ok := prices[PriceOptionFull]; ok {
		return v
	}
	if v, ok := prices[PriceOptionCode]; ok {
		return v
	}
	return p.Price
}

// parsePrices accepts the option map either as a JSON object or as a
// JSON-encoded string containing an object.
func parsePrices(raw json.RawMessage) (map[PriceOption]int64, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var prices map[PriceOption]int64
	if err := json.Unmarshal(raw, &prices); err == nil && len(prices) > 0 {
		return prices, true
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(encoded), &prices); err != nil || len(prices) == 0 {
		return nil, false
	}
	return prices, true
}
