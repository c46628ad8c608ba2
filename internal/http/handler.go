package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

// Sessions runs fn against the session with the given id.
type Sessions interface {
	With(ctx context.Context, id string, fn func(*storefront.Session) error) error
}

// requireLogin fails unless the session is logged in and the bearer token,
// or the stored one when none is sent, belongs to it.
func requireLogin(ctx context.Context, s *storefront.Session, r *http.Request) error {
	_, err := s.Auth.Authenticate(ctx, bearerToken(r))
	return err
}

// productKeys are the fields a request may carry while still asking for the
// product to be looked up in the catalog.
var productKeys = map[string]bool{"id": true, "product_id": true, "qty": true, "quantity": true}

// resolveProduct fills a bare product reference from the catalog. Requests
// carrying any product detail are used as sent.
func resolveProduct(ctx context.Context, src catalog.Source, raw lineitem.Raw) (lineitem.Raw, error) {
	for k := range raw {
		if !productKeys[k] {
			return raw, nil
		}
	}
	id := lineitem.ID(raw["product_id"])
	if id == "" {
		id = lineitem.ID(raw["id"])
	}
	if id == "" || src == nil {
		return raw, nil
	}

	p, err := src.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	full := p.Clone()
	for _, k := range []string{"qty", "quantity"} {
		if v, ok := raw[k]; ok {
			full[k] = v
		}
	}
	return full, nil
}

// hasProductID reports whether raw names a product at all.
func hasProductID(raw lineitem.Raw) bool {
	return lineitem.ID(raw["product_id"]) != "" || lineitem.ID(raw["id"]) != ""
}

// queryInt reads a positive integer query parameter.
func queryInt(r *http.Request, key string, defaultValue int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
