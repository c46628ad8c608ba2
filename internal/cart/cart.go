// Package cart is the quantity-bearing line-item collection of a session.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrEmptyCart is returned by Checkout when there is nothing to check out.
var ErrEmptyCart = errors.New("cart is empty")

const (
	msgAdded    = "Product added to cart successfully"
	msgRemoved  = "Product removed from cart successfully"
	msgUpdated  = "Quantity updated successfully"
	msgCleared  = "Cart cleared successfully"
	msgNotFound = "Product not found in cart"
)

// Store is an ordered cart backed by the cart_items blob. Every mutation
// rewrites the whole blob. A Store is not safe for concurrent use.
type Store struct {
	blobs blob.Store
	log   logrus.FieldLogger
	items []lineitem.Item
	newID func() string
	now   func() time.Time
}

type Option func(*Store)

// WithIDs overrides how item ids are allocated.
func WithIDs(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the time source used for AddedAt.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// Load builds a Store hydrated from blobs. A corrupt blob is logged and
// yields an empty cart; storage failures are returned.
func Load(ctx context.Context, blobs blob.Store, log logrus.FieldLogger, opts ...Option) (*Store, error) {
	s := &Store{
		blobs: blobs,
		log:   log,
		items: []lineitem.Item{},
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory items with the persisted ones.
func (s *Store) Reload(ctx context.Context) error {
	raw, err := blob.ReadOr(ctx, s.blobs, blob.KeyCart, "[]")
	if err != nil {
		return fmt.Errorf("failed to read cart: %w", err)
	}
	items, err := lineitem.Decode(raw)
	if err != nil {
		s.log.WithError(err).Warn("discarding unreadable cart")
		items = []lineitem.Item{}
	}
	for i, it := range items {
		if it.Quantity < 1 {
			items[i] = it.WithQuantity(1)
		}
	}
	s.items = items
	return nil
}

// Forget drops the in-memory items without touching storage.
func (s *Store) Forget() {
	s.items = []lineitem.Item{}
}

// Items returns a copy of the cart entries in insertion order.
func (s *Store) Items() []lineitem.Item {
	out := make([]lineitem.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns the number of entries.
func (s *Store) Count() int {
	return len(s.items)
}

// Quantity returns the number of units across all entries.
func (s *Store) Quantity() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Total sums the stored line totals. It does not re-derive them from
// price and quantity.
func (s *Store) Total() float64 {
	totals := make([]float64, len(s.items))
	for i, it := range s.items {
		totals[i] = it.LineTotal
	}
	return money.Sum(totals...)
}

// Add normalizes raw and either increments the entry already holding its
// product or appends a new one. An item without a product id is rejected
// with lineitem.ErrNoProductID.
func (s *Store) Add(ctx context.Context, raw lineitem.Raw) (lineitem.Result, error) {
	p := lineitem.Normalize(raw)
	if p.ProductID == "" {
		return lineitem.Result{}, lineitem.ErrNoProductID
	}

	next := s.Items()
	outcome := lineitem.Added
	var changed lineitem.Item
	if i := lineitem.CartIdentity.ByProduct(next, p.ProductID); i >= 0 {
		next[i] = next[i].WithQuantity(next[i].Quantity + p.Quantity)
		changed = next[i]
		outcome = lineitem.Incremented
	} else {
		changed = lineitem.NewItem(s.newID(), p, p.Quantity, s.now())
		next = append(next, changed)
	}

	if err := s.persist(ctx, next); err != nil {
		return lineitem.Result{}, err
	}
	s.log.WithFields(logrus.Fields{
		"product_id": changed.ProductID,
		"qty":        changed.Quantity,
	}).Debug("cart item added")
	return lineitem.Result{Outcome: outcome, Message: msgAdded, Item: &changed}, nil
}

// SetQuantity sets the quantity of the entry addressed by itemID. A quantity
// below one removes the entry.
func (s *Store) SetQuantity(ctx context.Context, itemID string, qty int) (lineitem.Result, error) {
	if qty < 1 {
		return s.Remove(ctx, itemID)
	}
	i := lineitem.CartIdentity.ByItem(s.items, itemID)
	if i < 0 {
		return lineitem.Result{Outcome: lineitem.NotFound, Message: msgNotFound}, nil
	}

	next := s.Items()
	next[i] = next[i].WithQuantity(qty)
	if err := s.persist(ctx, next); err != nil {
		return lineitem.Result{}, err
	}
	updated := next[i]
	return lineitem.Result{Outcome: lineitem.Updated, Message: msgUpdated, Item: &updated}, nil
}

// Remove deletes the entry addressed by itemID. Removing an absent id is a
// no-op and performs no write.
func (s *Store) Remove(ctx context.Context, itemID string) (lineitem.Result, error) {
	i := lineitem.CartIdentity.ByItem(s.items, itemID)
	if i < 0 {
		return lineitem.Result{Outcome: lineitem.NotFound, Message: msgNotFound}, nil
	}

	removed := s.items[i]
	next := make([]lineitem.Item, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return lineitem.Result{}, err
	}
	return lineitem.Result{Outcome: lineitem.Removed, Message: msgRemoved, Item: &removed}, nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) (lineitem.Result, error) {
	if err := s.persist(ctx, []lineitem.Item{}); err != nil {
		return lineitem.Result{}, err
	}
	return lineitem.Result{Outcome: lineitem.Cleared, Message: msgCleared}, nil
}

func (s *Store) persist(ctx context.Context, next []lineitem.Item) error {
	encoded, err := lineitem.Encode(next)
	if err != nil {
		return err
	}
	if err := s.blobs.Write(ctx, blob.KeyCart, encoded); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	s.items = next
	return nil
}
