package lineitem

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Raw is a product-like JSON object as received from an upstream API or a
// client request. It is consumed opaquely and only read through Normalize.
type Raw map[string]any

// Shape identifies which upstream layout a Raw object follows.
type Shape string

const (
	// ShapeRequest is the storefront's own add-to-collection payload
	// (product_id, name, price, price_after, image, qty).
	ShapeRequest Shape = "request"
	// ShapeDummyJSON is a dummyjson.com product (title, discountPercentage,
	// thumbnail, images).
	ShapeDummyJSON Shape = "dummyjson"
	// ShapeFakeStore is a fakestoreapi.com product (title, image, rating).
	ShapeFakeStore Shape = "fakestore"
	ShapeUnknown   Shape = "unknown"
)

// DetectShape classifies raw by the keys it carries.
func DetectShape(raw Raw) Shape {
	switch {
	case raw.has("price_after"), raw.has("product_id"):
		return ShapeRequest
	case raw.has("discountPercentage"), raw.has("thumbnail"), raw.has("images"):
		return ShapeDummyJSON
	case raw.has("image"), raw.has("rating"):
		return ShapeFakeStore
	default:
		return ShapeUnknown
	}
}

// Clone returns a shallow copy of raw.
func (r Raw) Clone() Raw {
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Raw) has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// text returns the first non-blank string stored under one of keys.
func (r Raw) text(keys ...string) string {
	for _, k := range keys {
		if s, ok := r[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// strings returns r[key] as a list of strings, skipping non-string entries.
func (r Raw) strings(key string) []string {
	list, ok := r[key].([]any)
	if !ok {
		if typed, ok := r[key].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ID canonicalises an opaque identifier so that 7, 7.0, "7" and json.Number("7")
// compare equal.
func ID(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := n.Float64(); err == nil {
			return ID(f)
		}
		return n.String()
	default:
		return ""
	}
}
