package storefront

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/address"
	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/wishlist"
	"github.com/sirupsen/logrus"
)

// Session is everything one client owns. Its fields must only be used
// inside Registry.With.
type Session struct {
	ID        string
	Login     *session.Broadcaster
	Cart      *cart.Store
	Wishlist  *wishlist.Store
	Addresses *address.Book
	Auth      *auth.Service

	checkout cart.CheckoutPublisher
	unfollow func()
}

// Checkout hands the cart to the configured sink and clears it.
func (s *Session) Checkout(ctx context.Context) (cart.Snapshot, error) {
	return s.Cart.Checkout(ctx, s.checkout)
}

func (s *Session) close() {
	if s.unfollow != nil {
		s.unfollow()
	}
}

func newSession(ctx context.Context, id string, deps Deps) (*Session, error) {
	store := blob.Prefixed(deps.Blobs, "session:"+id)
	log := deps.Log.WithField("session", id)

	token, err := blob.ReadOr(ctx, store, blob.KeyUserToken, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read session token: %w", err)
	}
	login := session.NewBroadcaster(token != "")

	c, err := cart.Load(ctx, store, log)
	if err != nil {
		return nil, err
	}
	book, err := address.Load(ctx, store, log)
	if err != nil {
		return nil, err
	}
	w := wishlist.New(store, log)

	s := &Session{
		ID:        id,
		Login:     login,
		Cart:      c,
		Wishlist:  w,
		Addresses: book,
		Auth:      auth.NewService(id, store, login, deps.Tokens, log, c, book),
		checkout:  events.For(deps.Checkout, id),
		unfollow:  w.Follow(login),
	}
	log.WithField("logged_in", login.Get()).Debug("session loaded")
	return s, nil
}

// Deps are shared by every session.
type Deps struct {
	Blobs    blob.Store
	Tokens   *auth.Tokens
	Checkout events.Sink
	Log      logrus.FieldLogger
}
