// This file provides the serialized form of the cart: a JSON array of line
// items under a single key.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// lineItemJSON is the persisted record for one line item. Price is written
// as a JSON number; quoted numbers are accepted on read.
type lineItemJSON struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

// encodeItems serializes the full ordered list.
func encodeItems(items []types.LineItem) (string, error) {
	records := make([]lineItemJSON, len(items))
	for i, it := range items {
		records[i] = lineItemJSON{
			ID:       it.ID,
			Title:    it.Title,
			ImageURL: it.ImageURL,
			Price:    json.Number(it.Price.String()),
			Quantity: it.Quantity,
		}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal cart: %w", err)
	}
	return string(b), nil
}

// decodeItems parses a payload written by encodeItems. Anything that is not
// a JSON array of line items, or that breaks the cart invariants, is
// reported as types.ErrCorruptPayload. A JSON null decodes to an empty cart.
func decodeItems(payload string) ([]types.LineItem, error) {
	var records []lineItemJSON
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptPayload, err)
	}

	items := make([]types.LineItem, len(records))
	for i, r := range records {
		price := decimal.Zero
		if r.Price != "" {
			p, err := decimal.NewFromString(r.Price.String())
			if err != nil {
				return nil, fmt.Errorf("%w: item %q price: %v", types.ErrCorruptPayload, r.ID, err)
			}
			price = p
		}
		items[i] = types.LineItem{
			ID:       r.ID,
			Title:    r.Title,
			ImageURL: r.ImageURL,
			Price:    price,
			Quantity: r.Quantity,
		}
	}

	if err := types.CheckItems(items); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptPayload, err)
	}
	return items, nil
}
