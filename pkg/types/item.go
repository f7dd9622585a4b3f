// Line item entity and the cart operations over an ordered list of items.
package types

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Product describes an item that can be added to the cart. It is a LineItem
// without a quantity.
type Product struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
}

// LineItem is one product entry in the cart together with its quantity.
// Quantity is at least 1 for every item held in a cart.
type LineItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Product returns the item without its quantity.
func (li LineItem) Product() Product {
	return Product{ID: li.ID, Title: li.Title, ImageURL: li.ImageURL, Price: li.Price}
}

// Line item validation errors.
var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrDuplicateID     = errors.New("duplicate line item id")
)

// AddToCart returns a new list with one more unit of p. An existing entry
// with the same ID keeps its fields, gains one unit, and moves to the end;
// otherwise p is appended with quantity 1. The input slice is not modified.
func AddToCart(items []LineItem, p Product) []LineItem {
	added := LineItem{ID: p.ID, Title: p.Title, ImageURL: p.ImageURL, Price: p.Price, Quantity: 1}
	out := make([]LineItem, 0, len(items)+1)
	for _, it := range items {
		if it.ID == p.ID {
			added = it
			added.Quantity = it.Quantity + 1
			continue
		}
		out = append(out, it)
	}
	return append(out, added)
}

// Increment returns a new list where the entry with the given ID has one
// more unit. Order is preserved. An unknown ID yields an unchanged copy.
func Increment(items []LineItem, id string) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity++
		}
	}
	return out
}

// Decrement returns a new list where the entry with the given ID has one
// fewer unit. An entry at quantity 1 is removed. The relative order of the
// remaining entries is preserved. An unknown ID yields an unchanged copy.
func Decrement(items []LineItem, id string) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.ID == id {
			if it.Quantity <= 1 {
				continue
			}
			it.Quantity--
		}
		out = append(out, it)
	}
	return out
}

// Contains reports whether an entry with the given ID is present.
func Contains(items []LineItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// CheckItems verifies the cart invariants: every quantity is at least 1 and
// no two entries share an ID.
func CheckItems(items []LineItem) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if seen[it.ID] {
			return ErrDuplicateID
		}
		seen[it.ID] = true
	}
	return nil
}

// Clone returns a copy of items that shares no backing array with it.
// A nil input yields an empty, non-nil slice.
func Clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
