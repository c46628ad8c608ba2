// Package wishlist is the account-scoped, quantity-free line-item collection.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrSignedOut is returned by mutations attempted while no user is logged in.
var ErrSignedOut = errors.New("wishlist requires a logged in user")

const (
	msgAdded    = "Product added to wishlist successfully"
	msgExists   = "Product already in wishlist"
	msgRemoved  = "Product removed from wishlist successfully"
	msgNotFound = "Product not found in wishlist"
	msgCleared  = "Wishlist cleared successfully"
)

// reloadTimeout bounds the storage read triggered by a login.
const reloadTimeout = 2 * time.Second

// Store holds the wishlist of the logged in user, backed by the
// wishlist_items blob. While logged out it is empty and refuses mutations.
// A Store is not safe for concurrent use.
type Store struct {
	blobs    blob.Store
	log      logrus.FieldLogger
	items    []lineitem.Item
	loggedIn bool
	login    *session.Broadcaster
	newID    func() string
	now      func() time.Time
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

// New returns an empty, logged-out Store. Call Follow or Reload to hydrate it.
func New(blobs blob.Store, log logrus.FieldLogger, opts ...Option) *Store {
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
	return s
}

// Follow keeps the Store in step with the login flag: it reloads from storage
// on LoggedIn and forgets the in-memory entries on LoggedOut. The returned
// function stops following.
func (s *Store) Follow(b *session.Broadcaster) (unsubscribe func()) {
	s.login = b
	return b.Subscribe(func(loggedIn bool) {
		if !loggedIn {
			s.Forget()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := s.Reload(ctx); err != nil {
			s.log.WithError(err).Error("wishlist reload failed")
		}
	})
}

// Reload replaces the entries with the persisted ones and marks the Store
// logged in. A corrupt blob is logged and yields an empty wishlist. When the
// read fails the Store stays logged out until a later read succeeds.
func (s *Store) Reload(ctx context.Context) error {
	raw, err := blob.ReadOr(ctx, s.blobs, blob.KeyWishlist, "[]")
	if err != nil {
		s.Forget()
		return fmt.Errorf("failed to read wishlist: %w", err)
	}
	items, err := lineitem.Decode(raw)
	if err != nil {
		s.log.WithError(err).Warn("discarding unreadable wishlist")
		items = []lineitem.Item{}
	}
	s.items = items
	s.loggedIn = true
	return nil
}

// Forget marks the Store logged out and drops its entries from memory only.
func (s *Store) Forget() {
	s.loggedIn = false
	s.items = []lineitem.Item{}
}

// Items returns a copy of the entries in insertion order.
func (s *Store) Items() []lineitem.Item {
	out := make([]lineitem.Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Count() int {
	return len(s.items)
}

// Contains reports whether productID is on the wishlist.
func (s *Store) Contains(productID string) bool {
	return lineitem.WishlistIdentity.ByProduct(s.items, productID) >= 0
}

// Add appends raw unless its product is already listed, in which case the
// wishlist is left untouched and AlreadyExists is reported.
func (s *Store) Add(ctx context.Context, raw lineitem.Raw) (lineitem.Result, error) {
	if err := s.ready(ctx); err != nil {
		return lineitem.Result{}, err
	}
	p := lineitem.Normalize(raw)
	if p.ProductID == "" {
		return lineitem.Result{}, lineitem.ErrNoProductID
	}
	if i := lineitem.WishlistIdentity.ByProduct(s.items, p.ProductID); i >= 0 {
		existing := s.items[i]
		return lineitem.Result{Outcome: lineitem.AlreadyExists, Message: msgExists, Item: &existing}, nil
	}

	added := lineitem.NewItem(s.newID(), p, 0, s.now())
	next := append(s.Items(), added)
	if err := s.persist(ctx, next); err != nil {
		return lineitem.Result{}, err
	}
	s.log.WithField("product_id", added.ProductID).Debug("wishlist item added")
	return lineitem.Result{Outcome: lineitem.Added, Message: msgAdded, Item: &added}, nil
}

// Remove deletes the entry addressed by id, which may be its item id, its
// legacy alias or its product id.
func (s *Store) Remove(ctx context.Context, id string) (lineitem.Result, error) {
	if err := s.ready(ctx); err != nil {
		return lineitem.Result{}, err
	}
	i := lineitem.WishlistIdentity.ByItem(s.items, id)
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

// Clear empties the wishlist.
func (s *Store) Clear(ctx context.Context) (lineitem.Result, error) {
	if err := s.ready(ctx); err != nil {
		return lineitem.Result{}, err
	}
	if err := s.persist(ctx, []lineitem.Item{}); err != nil {
		return lineitem.Result{}, err
	}
	return lineitem.Result{Outcome: lineitem.Cleared, Message: msgCleared}, nil
}

// ready retries hydration when the followed session is logged in but an
// earlier reload failed.
func (s *Store) ready(ctx context.Context) error {
	if s.loggedIn {
		return nil
	}
	if s.login == nil || !s.login.Get() {
		return ErrSignedOut
	}
	return s.Reload(ctx)
}

func (s *Store) persist(ctx context.Context, next []lineitem.Item) error {
	encoded, err := lineitem.Encode(next)
	if err != nil {
		return err
	}
	if err := s.blobs.Write(ctx, blob.KeyWishlist, encoded); err != nil {
		return fmt.Errorf("failed to persist wishlist: %w", err)
	}
	s.items = next
	return nil
}
