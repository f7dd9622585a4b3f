package types

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
)

func product(id string) Product {
	return Product{ID: id, Title: "T" + id, ImageURL: "u" + id, Price: decimal.NewFromInt(10)}
}

func ids(items []LineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddToCart(t *testing.T) {
	t.Run("empty cart gets one entry with quantity 1", func(t *testing.T) {
		got := AddToCart(nil, Product{ID: "A", Title: "T", ImageURL: "u", Price: decimal.NewFromInt(10)})
		if len(got) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(got))
		}
		want := LineItem{ID: "A", Title: "T", ImageURL: "u", Price: decimal.NewFromInt(10), Quantity: 1}
		if got[0].ID != want.ID || got[0].Title != want.Title || got[0].ImageURL != want.ImageURL ||
			!got[0].Price.Equal(want.Price) || got[0].Quantity != want.Quantity {
			t.Fatalf("got %+v, want %+v", got[0], want)
		}
	})

	t.Run("same id twice merges into quantity 2", func(t *testing.T) {
		got := AddToCart(AddToCart(nil, product("A")), product("A"))
		if len(got) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(got))
		}
		if got[0].Quantity != 2 {
			t.Fatalf("expected quantity 2, got %d", got[0].Quantity)
		}
	})

	t.Run("existing entry moves to the end", func(t *testing.T) {
		items := AddToCart(AddToCart(AddToCart(nil, product("A")), product("B")), product("C"))
		got := AddToCart(items, product("A"))
		if want := []string{"B", "C", "A"}; !equalIDs(ids(got), want) {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
		if got[2].Quantity != 2 {
			t.Fatalf("expected quantity 2, got %d", got[2].Quantity)
		}
	})

	t.Run("existing entry keeps its fields", func(t *testing.T) {
		items := AddToCart(nil, product("A"))
		got := AddToCart(items, Product{ID: "A", Title: "renamed", Price: decimal.NewFromInt(99)})
		if got[0].Title != "TA" || !got[0].Price.Equal(decimal.NewFromInt(10)) {
			t.Fatalf("fields changed: %+v", got[0])
		}
	})

	t.Run("input slice is not modified", func(t *testing.T) {
		items := AddToCart(nil, product("A"))
		_ = AddToCart(items, product("A"))
		if items[0].Quantity != 1 {
			t.Fatalf("input mutated: quantity %d", items[0].Quantity)
		}
	})
}

func TestIncrement(t *testing.T) {
	items := []LineItem{{ID: "A", Quantity: 1}, {ID: "B", Quantity: 3}}

	got := Increment(items, "A")
	if got[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", got[0].Quantity)
	}
	if !equalIDs(ids(got), []string{"A", "B"}) {
		t.Fatalf("order changed: %v", ids(got))
	}
	if items[0].Quantity != 1 {
		t.Fatalf("input mutated")
	}

	unchanged := Increment(items, "Z")
	if len(unchanged) != 2 || unchanged[0].Quantity != 1 || unchanged[1].Quantity != 3 {
		t.Fatalf("unknown id changed the cart: %+v", unchanged)
	}
}

func TestDecrement(t *testing.T) {
	tests := []struct {
		name    string
		items   []LineItem
		id      string
		wantIDs []string
		wantQty []int
	}{
		{
			name:    "quantity above one decreases",
			items:   []LineItem{{ID: "A", Quantity: 3}, {ID: "B", Quantity: 1}},
			id:      "A",
			wantIDs: []string{"A", "B"},
			wantQty: []int{2, 1},
		},
		{
			name:    "quantity one removes the entry",
			items:   []LineItem{{ID: "A", Quantity: 1}, {ID: "B", Quantity: 2}, {ID: "C", Quantity: 1}},
			id:      "A",
			wantIDs: []string{"B", "C"},
			wantQty: []int{2, 1},
		},
		{
			name:    "middle removal keeps relative order",
			items:   []LineItem{{ID: "A", Quantity: 1}, {ID: "B", Quantity: 1}, {ID: "C", Quantity: 1}},
			id:      "B",
			wantIDs: []string{"A", "C"},
			wantQty: []int{1, 1},
		},
		{
			name:    "unknown id is a no-op",
			items:   []LineItem{{ID: "A", Quantity: 1}},
			id:      "Z",
			wantIDs: []string{"A"},
			wantQty: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decrement(tt.items, tt.id)
			if !equalIDs(ids(got), tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids(got), tt.wantIDs)
			}
			for i, q := range tt.wantQty {
				if got[i].Quantity != q {
					t.Fatalf("quantity[%d] = %d, want %d", i, got[i].Quantity, q)
				}
			}
		})
	}
}

func TestCheckItems(t *testing.T) {
	if err := CheckItems(nil); err != nil {
		t.Fatalf("empty list: %v", err)
	}
	if err := CheckItems([]LineItem{{ID: "A", Quantity: 0}}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := CheckItems([]LineItem{{ID: "A", Quantity: 1}, {ID: "A", Quantity: 2}}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

// TestOperationsKeepInvariants drives random operation sequences and checks
// that no zero-quantity or duplicate entry is ever observable.
func TestOperationsKeepInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	keys := []string{"A", "B", "C", "D"}

	for run := 0; run < 200; run++ {
		var items []LineItem
		for step := 0; step < 50; step++ {
			id := keys[r.IntN(len(keys))]
			switch r.IntN(3) {
			case 0:
				items = AddToCart(items, product(id))
			case 1:
				items = Increment(items, id)
			case 2:
				items = Decrement(items, id)
			}
			if err := CheckItems(items); err != nil {
				t.Fatalf("run %d step %d: %v (%+v)", run, step, err, items)
			}
		}
	}
}
