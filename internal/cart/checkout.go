package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/sirupsen/logrus"
)

// Snapshot is the cart content handed over at checkout.
type Snapshot struct {
	CheckoutID   string          `json:"checkout_id"`
	Items        []lineitem.Item `json:"items"`
	Quantity     int             `json:"quantity"`
	Total        float64         `json:"total"`
	CheckedOutAt time.Time       `json:"checked_out_at"`
}

// CheckoutPublisher receives checked-out carts.
type CheckoutPublisher interface {
	PublishCheckout(ctx context.Context, snapshot Snapshot) error
}

// PublisherFunc adapts a function to CheckoutPublisher.
type PublisherFunc func(ctx context.Context, snapshot Snapshot) error

func (f PublisherFunc) PublishCheckout(ctx context.Context, snapshot Snapshot) error {
	return f(ctx, snapshot)
}

// Checkout hands the current content to pub and clears the cart once pub has
// accepted it. The cart is left untouched when publishing fails.
func (s *Store) Checkout(ctx context.Context, pub CheckoutPublisher) (Snapshot, error) {
	if len(s.items) == 0 {
		return Snapshot{}, ErrEmptyCart
	}

	snapshot := Snapshot{
		CheckoutID:   s.newID(),
		Items:        s.Items(),
		Quantity:     s.Quantity(),
		Total:        s.Total(),
		CheckedOutAt: s.now().UTC(),
	}
	if err := pub.PublishCheckout(ctx, snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to publish checkout: %w", err)
	}

	if _, err := s.Clear(ctx); err != nil {
		return Snapshot{}, err
	}
	s.log.WithFields(logrus.Fields{
		"checkout_id": snapshot.CheckoutID,
		"total":       snapshot.Total,
	}).Info("cart checked out")
	return snapshot, nil
}
