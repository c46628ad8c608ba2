package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// History stores orders in each session's user_orders blob, newest first.
// It also satisfies events.Sink, recording checkouts in-process when no
// broker sits in between.
type History struct {
	blobs blob.Store
	log   logrus.FieldLogger
	newID func() string
	now   func() time.Time

	mu sync.Mutex
}

func NewHistory(blobs blob.Store, log logrus.FieldLogger) *History {
	return &History{
		blobs: blobs,
		log:   log,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func (h *History) session(sessionID string) blob.Store {
	return blob.Prefixed(h.blobs, "session:"+sessionID)
}

// Record turns ev into a confirmed order. A checkout already recorded
// yields ErrDuplicateCheckout.
func (h *History) Record(ctx context.Context, ev events.CartCheckedOut) (Order, error) {
	if ev.SessionID == "" || ev.CheckoutID == "" {
		return Order{}, errors.New("checkout event without session or checkout id")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	store := h.session(ev.SessionID)
	list, err := h.load(ctx, store)
	if err != nil {
		return Order{}, err
	}
	for _, o := range list {
		if o.CheckoutID == ev.CheckoutID {
			return Order{}, ErrDuplicateCheckout
		}
	}

	order := fromEvent(h.newID(), ev, h.now())
	next := append([]Order{order}, list...)
	data, err := json.Marshal(next)
	if err != nil {
		return Order{}, fmt.Errorf("failed to encode orders: %w", err)
	}
	if err := store.Write(ctx, blob.KeyOrders, string(data)); err != nil {
		return Order{}, fmt.Errorf("failed to write orders: %w", err)
	}

	h.log.WithFields(logrus.Fields{
		"session":     ev.SessionID,
		"order_id":    order.ID,
		"checkout_id": order.CheckoutID,
	}).Info("order created")
	return order, nil
}

// List returns the session's orders, newest first.
func (h *History) List(ctx context.Context, sessionID string) ([]Order, error) {
	return h.load(ctx, h.session(sessionID))
}

func (h *History) Get(ctx context.Context, sessionID, orderID string) (Order, error) {
	list, err := h.List(ctx, sessionID)
	if err != nil {
		return Order{}, err
	}
	for _, o := range list {
		if o.ID == orderID {
			return o, nil
		}
	}
	return Order{}, ErrOrderNotFound
}

// PublishCheckout records the snapshot directly.
func (h *History) PublishCheckout(ctx context.Context, sessionID string, s cart.Snapshot) error {
	_, err := h.Record(ctx, events.NewCartCheckedOut(sessionID, s))
	return err
}

func (h *History) Close() error {
	return nil
}

func (h *History) load(ctx context.Context, store blob.Store) ([]Order, error) {
	raw, err := blob.ReadOr(ctx, store, blob.KeyOrders, "[]")
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	var list []Order
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		h.log.WithError(err).Warn("discarding unreadable order history")
		return []Order{}, nil
	}
	if list == nil {
		list = []Order{}
	}
	return list, nil
}
