// Package catalog reads products from the public demo APIs. Products are
// returned as raw JSON objects; shaping them is left to lineitem.Normalize.
package catalog

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/upstream"
)

// ErrProductNotFound is returned by Product for unknown ids.
var ErrProductNotFound = errors.New("product not found")

// Source is a product catalogue. Returned values are shared and must be
// treated as read-only; Clone a Raw before changing it.
type Source interface {
	Products(ctx context.Context) ([]lineitem.Raw, error)
	ProductsByCategory(ctx context.Context, category string) ([]lineitem.Raw, error)
	Product(ctx context.Context, id string) (lineitem.Raw, error)
	Categories(ctx context.Context) ([]string, error)
}

// Category is a display entry for a category listing. IDs are 1-based.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FormatCategories turns API category names into display entries, keeping
// at most limit of them. limit <= 0 keeps all.
func FormatCategories(names []string, limit int) []Category {
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	out := make([]Category, 0, len(names))
	for i, n := range names {
		out = append(out, Category{ID: i + 1, Name: displayName(n), Slug: n})
	}
	return out
}

// displayName upper-cases the first letter and drops the first possessive
// apostrophe: "men's clothing" becomes "Mens clothing".
func displayName(name string) string {
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	rest := strings.Replace(name[size:], "'s", "s", 1)
	return string(unicode.ToUpper(r)) + rest
}

// Related returns up to limit products sharing the category of product,
// excluding product itself.
func Related(ctx context.Context, src Source, product lineitem.Raw, limit int) ([]lineitem.Raw, error) {
	p := lineitem.Normalize(product)
	if p.Category == "" {
		return []lineitem.Raw{}, nil
	}
	siblings, err := src.ProductsByCategory(ctx, p.Category)
	if err != nil {
		return nil, err
	}
	out := make([]lineitem.Raw, 0, limit)
	for _, s := range siblings {
		if len(out) == limit {
			break
		}
		if lineitem.ID(s["id"]) == p.ProductID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func notFound(err error) error {
	var upErr *upstream.Error
	if errors.As(err, &upErr) && upErr.NotFound() {
		return ErrProductNotFound
	}
	return err
}
