// Package cart implements the cart state container. All mutations go through
// Apply, a pure reducer over discriminated actions; a mutation that would
// break a limit is rejected whole, leaving the state untouched.
package cart

import (
	"fmt"

	"github.com/buildunia/commerce/internal/domain"
)

const (
	MaxTotalItems   = 5
	MaxSameCategory = 2
)

type LimitKind string

const (
	LimitTotal    LimitKind = "total"
	LimitCategory LimitKind = "category"
)

// LimitError reports a rejected mutation. It is an expected outcome, not a
// fault: callers surface it to the user and keep the previous state.
type LimitError struct {
	Kind     LimitKind
	Category string
}

func (e *LimitError) Error() string {
	if e.Kind == LimitCategory {
		return fmt.Sprintf("cart limit exceeded: at most %d items of category %q", MaxSameCategory, e.Category)
	}
	return fmt.Sprintf("cart limit exceeded: at most %d items in total", MaxTotalItems)
}

// Line is one cart entry. Category and UnitPrice are snapshots of the
// product at the time it was added; insertion order of lines is preserved
// for display.
type Line struct {
	ProductID string             `json:"product_id"`
	Title     string             `json:"title"`
	Category  string             `json:"category"`
	Quantity  int                `json:"quantity"`
	Option    domain.PriceOption `json:"price_option,omitempty"`
	UnitPrice int64              `json:"unit_price"`
}

type State struct {
	Lines []Line `json:"lines"`
}

type Action interface {
	isAction()
}

type AddItem struct {
	Product  domain.Product
	Option   domain.PriceOption
	Quantity int // defaults to 1
}

type RemoveItem struct {
	ProductID string
}

type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

type Clear struct{}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (Clear) isAction()          {}

// Apply computes the next state for an action. It never mutates its input;
// on a limit violation it returns the input state unchanged together with a
// *LimitError.
func Apply(s State, a Action) (State, error) {
	switch action := a.(type) {
	case AddItem:
		return applyAdd(s, action)
	case RemoveItem:
		return applyRemove(s, action.ProductID), nil
	case UpdateQuantity:
		if action.Quantity <= 0 {
			return applyRemove(s, action.ProductID), nil
		}
		return applyUpdate(s, action)
	case Clear:
		return State{}, nil
	default:
		return s, fmt.Errorf("cart: unknown action %T", a)
	}
}

func applyAdd(s State, a AddItem) (State, error) {
	qty := a.Quantity
	if qty <= 0 {
		qty = 1
	}

	if s.TotalQuantity()+qty > MaxTotalItems {
		return s, &LimitError{Kind: LimitTotal}
	}
	if s.CategoryQuantity(a.Product.Category)+qty > MaxSameCategory {
		return s, &LimitError{Kind: LimitCategory, Category: a.Product.Category}
	}

	next := cloneLines(s)
	for i := range next.Lines {
		if next.Lines[i].ProductID == a.Product.ID {
			next.Lines[i].Quantity += qty
			return next, nil
		}
	}

	next.Lines = append(next.Lines, Line{
		ProductID: a.Product.ID,
		Title:     a.Product.Title,
		Category:  a.Product.Category,
		Quantity:  qty,
		Option:    a.Option,
		UnitPrice: a.Product.PriceFor(a.Option),
	})
	return next, nil
}

func applyRemove(s State, productID string) State {
	next := State{Lines: make([]Line, 0, len(s.Lines))}
	for _, line := range s.Lines {
		if line.ProductID != productID {
			next.Lines = append(next.Lines, line)
		}
	}
	return next
}

func applyUpdate(s State, a UpdateQuantity) (State, error) {
	idx := -1
	for i, line := range s.Lines {
		if line.ProductID == a.ProductID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return s, nil
	}

	line := s.Lines[idx]
	total := s.TotalQuantity() - line.Quantity + a.Quantity
	if total > MaxTotalItems {
		return s, &LimitError{Kind: LimitTotal}
	}
	categoryTotal := s.CategoryQuantity(line.Category) - line.Quantity + a.Quantity
	if categoryTotal > MaxSameCategory {
		return s, &LimitError{Kind: LimitCategory, Category: line.Category}
	}

	next := cloneLines(s)
	next.Lines[idx].Quantity = a.Quantity
	return next, nil
}

func cloneLines(s State) State {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	return State{Lines: lines}
}

func (s State) TotalQuantity() int {
	var total int
	for _, line := range s.Lines {
		total += line.Quantity
	}
	return total
}

func (s State) CategoryQuantity(category string) int {
	var total int
	for _, line := range s.Lines {
		if line.Category == category {
			total += line.Quantity
		}
	}
	return total
}

// Subtotal is the sum of line unit prices times quantities, in whole rupees.
func (s State) Subtotal() int64 {
	var subtotal int64
	for _, line := range s.Lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}
	return subtotal
}

func (s State) HasCategory(category string) bool {
	for _, line := range s.Lines {
		if line.Category == category {
			return true
		}
	}
	return false
}

// CheckLimits re-validates the invariants against the state as a whole. The
// checkout re-runs this in case the cart was mutated outside the engine
// within the same session.
func (s State) CheckLimits() error {
	if s.TotalQuantity() > MaxTotalItems {
		return &LimitError{Kind: LimitTotal}
	}

	byCategory := make(map[string]int)
	for _, line := range s.Lines {
		byCategory[line.Category] += line.Quantity
	}
	for category, qty := range byCategory {
		if qty > MaxSameCategory {
			return &LimitError{Kind: LimitCategory, Category: category}
		}
	}
	return nil
}

// Limits is the read-only snapshot handed to client UIs.
type Limits struct {
	TotalItems      int            `json:"total_items"`
	MaxTotalItems   int            `json:"max_total_items"`
	CategoryCounts  map[string]int `json:"category_counts"`
	MaxSameCategory int            `json:"max_same_category"`
}

func (s State) Limits() Limits {
	counts := make(map[string]int)
	for _, line := range s.Lines {
		counts[line.Category] += line.Quantity
	}
	return Limits{
		TotalItems:      s.TotalQuantity(),
		MaxTotalItems:   MaxTotalItems,
		CategoryCounts:  counts,
		MaxSameCategory: MaxSameCategory,
	}
}
