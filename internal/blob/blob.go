// Package blob persists whole collections as opaque strings under fixed keys.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when nothing is stored under the key.
var ErrNotFound = errors.New("blob not found")

// Store is a key-value store of serialised blobs. Writes fully replace the
// previous value.
type Store interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Well-known keys.
const (
	KeyCart      = "cart_items"
	KeyWishlist  = "wishlist_items"
	KeyAddresses = "user_addresses"
	KeyUser      = "user"
	KeyUserToken = "user_token"
	KeyUserName  = "user_name"
	KeyOrders    = "user_orders"
)

// ReadOr returns the value stored under key, or fallback when absent.
func ReadOr(ctx context.Context, s Store, key, fallback string) (string, error) {
	v, err := s.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
