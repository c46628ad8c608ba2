package lineitem

import (
	"regexp"

	"github.com/fjod/go_cart/storefront/internal/money"
)

// PlaceholderImage is substituted whenever a product has no usable http(s) image.
const PlaceholderImage = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iNzUiIGhlaWdodD0iNzUiIHZpZXdCb3g9IjAgMCA3NSA3NSIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj4KPHJlY3Qgd2lkdGg9Ijc1IiBoZWlnaHQ9Ijc1IiBmaWxsPSIjRjhGOUZBIi8+CjxwYXRoIGQ9Ik0zNy41IDIwQzQyLjE5NDQgMjAgNDYgMjMuODA1NiA0NiAyOC41QzQ2IDMzLjE5NDQgNDIuMTk0NCAzNyAzNy41IDM3QzMyLjgwNTYgMzcgMjkgMzMuMTk0NCAyOSAyOC41QzI5IDIzLjgwNTYgMzIuODA1NiAyMCAzNy41IDIwWk0zNy41IDU1QzQ3LjcxNjcgNTUgNTYgNDYuNzE2NyA1NiAzNi41QzU2IDI2LjI4MzMgNDcuNzE2NyAxOCAzNy41IDE4QzI3LjI4MzMgMTggMTkgMjYuMjgzMyAxOSAzNi41QzE5IDQ2LjcxNjcgMjcuMjgzMyA1NSAzNy41IDU1WiIgZmlsbD0iIzZCNzI4MCIvPgo8L3N2Zz4K"

// DefaultName is used when a product carries neither name nor title.
const DefaultName = "Product"

var imageURLPattern = regexp.MustCompile(`(?i)^https?://.+`)

// Product is the canonical form of any product-like input.
type Product struct {
	ProductID           string
	DisplayName         string
	UnitPrice           float64
	DiscountedUnitPrice float64
	ImageURL            string
	Description         string
	Category            string
	Brand               string
	// Quantity is the requested quantity, always >= 1.
	Quantity int
	Shape    Shape
}

// Normalize maps raw onto the canonical product fields. It has no side effects
// and never fails: malformed numbers become 0 and missing text gets defaults.
func Normalize(raw Raw) Product {
	if raw == nil {
		raw = Raw{}
	}
	return Product{
		ProductID:           productID(raw),
		DisplayName:         displayName(raw),
		UnitPrice:           unitPrice(raw),
		DiscountedUnitPrice: discountedPrice(raw),
		ImageURL:            ImageURL(raw),
		Description:         raw.text("description", "desc"),
		Category:            raw.text("category"),
		Brand:               raw.text("brand"),
		Quantity:            quantity(raw),
		Shape:               DetectShape(raw),
	}
}

func productID(raw Raw) string {
	if id := ID(raw["product_id"]); id != "" {
		return id
	}
	return ID(raw["id"])
}

func displayName(raw Raw) string {
	if name := raw.text("name", "title"); name != "" {
		return name
	}
	return DefaultName
}

func unitPrice(raw Raw) float64 {
	return money.Amount(raw["price"])
}

// discountedPrice resolves price_after, then price less discountPercentage,
// then price, then 0.
func discountedPrice(raw Raw) float64 {
	if v, ok := money.Number(raw["price_after"]); ok && v >= 0 {
		return money.Round2(v)
	}
	price, hasPrice := money.Number(raw["price"])
	if !hasPrice || price < 0 {
		return 0
	}
	if pct, ok := money.Number(raw["discountPercentage"]); ok {
		return money.Discounted(price, pct)
	}
	return money.Round2(price)
}

// ImageURL picks the first well-formed http(s) URL among image, images[0] and
// thumbnail, falling back to PlaceholderImage.
func ImageURL(raw Raw) string {
	candidates := make([]string, 0, 3)
	if s, ok := raw["image"].(string); ok {
		candidates = append(candidates, s)
	}
	if images := raw.strings("images"); len(images) > 0 {
		candidates = append(candidates, images[0])
	}
	if s, ok := raw["thumbnail"].(string); ok {
		candidates = append(candidates, s)
	}
	for _, c := range candidates {
		if imageURLPattern.MatchString(c) {
			return c
		}
	}
	return PlaceholderImage
}

func quantity(raw Raw) int {
	if raw.has("qty") {
		return money.Quantity(raw["qty"])
	}
	return money.Quantity(raw["quantity"])
}
