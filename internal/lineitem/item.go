package lineitem

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/money"
)

var (
	// ErrCorruptBlob is returned when a persisted collection cannot be decoded.
	ErrCorruptBlob = errors.New("corrupt collection blob")
	// ErrNoProductID is returned when an item to be added names no product.
	ErrNoProductID = errors.New("item has no product id")
)

// Item is one persisted entry of a cart or wishlist. Quantity and LineTotal are
// zero for wishlist entries.
type Item struct {
	ItemID string `json:"id"`
	// LegacyID is the cart_id/wishlist_id alias written by older clients.
	LegacyID            string    `json:"legacy_id,omitempty"`
	ProductID           string    `json:"product_id"`
	Quantity            int       `json:"qty,omitempty"`
	UnitPrice           float64   `json:"price"`
	DiscountedUnitPrice float64   `json:"price_after"`
	LineTotal           float64   `json:"total,omitempty"`
	DisplayName         string    `json:"name"`
	ImageURL            string    `json:"image"`
	Description         string    `json:"description,omitempty"`
	Category            string    `json:"category,omitempty"`
	Brand               string    `json:"brand,omitempty"`
	AddedAt             time.Time `json:"added_at"`
}

// NewItem snapshots p into a fresh entry. quantity 0 produces a wishlist entry.
func NewItem(itemID string, p Product, quantity int, now time.Time) Item {
	it := Item{
		ItemID:              itemID,
		ProductID:           p.ProductID,
		Quantity:            quantity,
		UnitPrice:           p.UnitPrice,
		DiscountedUnitPrice: p.DiscountedUnitPrice,
		DisplayName:         p.DisplayName,
		ImageURL:            p.ImageURL,
		Description:         p.Description,
		Category:            p.Category,
		Brand:               p.Brand,
		AddedAt:             now.UTC(),
	}
	if quantity > 0 {
		it.LineTotal = money.LineTotal(it.DiscountedUnitPrice, quantity)
	}
	return it
}

// WithQuantity returns a copy of it holding qty units and a recomputed total.
func (it Item) WithQuantity(qty int) Item {
	it.Quantity = qty
	it.LineTotal = money.LineTotal(it.DiscountedUnitPrice, qty)
	return it
}

type wireDetails struct {
	Name        string `json:"name"`
	Price       any    `json:"price"`
	PriceAfter  any    `json:"price_after"`
	Total       any    `json:"total"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Gallary     *struct {
		Name string `json:"gallary_name"`
	} `json:"gallary"`
}

type wireItem struct {
	ID          any          `json:"id"`
	LegacyID    any          `json:"legacy_id"`
	CartID      any          `json:"cart_id"`
	WishlistID  any          `json:"wishlist_id"`
	ProductID   any          `json:"product_id"`
	Qty         any          `json:"qty"`
	Price       any          `json:"price"`
	PriceAfter  any          `json:"price_after"`
	Total       any          `json:"total"`
	Name        string       `json:"name"`
	Image       string       `json:"image"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Brand       string       `json:"brand"`
	AddedAt     *time.Time   `json:"added_at"`
	Details     *wireDetails `json:"details"`
}

// UnmarshalJSON accepts both the current layout and the nested "details"
// layout persisted by earlier storefront versions.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d := w.Details
	if d == nil {
		d = &wireDetails{}
	}

	out := Item{
		ItemID:      ID(w.ID),
		ProductID:   ID(w.ProductID),
		DisplayName: firstText(w.Name, d.Name),
		ImageURL:    firstText(w.Image, d.Image),
		Description: firstText(w.Description, d.Description),
		Category:    firstText(w.Category, d.Category),
		Brand:       w.Brand,
	}
	if out.ImageURL == "" && d.Gallary != nil {
		out.ImageURL = d.Gallary.Name
	}
	for _, alias := range []any{w.LegacyID, w.CartID, w.WishlistID} {
		if id := ID(alias); id != "" && id != out.ItemID {
			out.LegacyID = id
			break
		}
	}
	if w.Qty != nil {
		out.Quantity = money.Quantity(w.Qty)
	}
	out.UnitPrice = money.Amount(firstValue(w.Price, d.Price))
	out.DiscountedUnitPrice = money.Amount(firstValue(w.PriceAfter, d.PriceAfter))
	out.LineTotal = money.Amount(firstValue(w.Total, d.Total))
	if w.AddedAt != nil {
		out.AddedAt = *w.AddedAt
	}

	*it = out
	return nil
}

// Decode parses a persisted collection blob.
func Decode(blob string) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Encode serialises a whole collection; an empty collection encodes as "[]".
func Encode(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal collection failed: %w", err)
	}
	return string(data), nil
}

func firstText(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstValue(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
