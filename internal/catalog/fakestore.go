package catalog

import (
	"context"
	"net/url"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/fjod/go_cart/storefront/internal/upstream"
)

// listMarkup derives the displayed list price from FakeStore's sale price.
const listMarkup = 1.2

// categoryAliases maps storefront URL slugs to FakeStore category names.
var categoryAliases = map[string]string{
	"mens-clothing":                         "men's clothing",
	"men-clothing":                          "men's clothing",
	"mens-casual-premium-slim-fit-t-shirts": "men's clothing",
	"womens-clothing":                       "women's clothing",
	"women-clothing":                        "women's clothing",
	"electronics":                           "electronics",
	"jewelery":                              "jewelery",
	"jewelry":                               "jewelery",
}

// CategoryName resolves a URL slug to the FakeStore category name. Unknown
// slugs pass through unchanged.
func CategoryName(slug string) string {
	if name, ok := categoryAliases[strings.ToLower(slug)]; ok {
		return name
	}
	return slug
}

// FakeStore reads fakestoreapi.com. Listed products are decorated the way
// the storefront shows them: the API price becomes price_after and a list
// price 20% higher is derived.
type FakeStore struct {
	client *upstream.Client
}

func NewFakeStore(client *upstream.Client) *FakeStore {
	return &FakeStore{client: client}
}

func (f *FakeStore) Products(ctx context.Context) ([]lineitem.Raw, error) {
	var out []lineitem.Raw
	if err := f.client.GetJSON(ctx, "products", nil, &out); err != nil {
		return nil, err
	}
	return decorateAll(out), nil
}

func (f *FakeStore) ProductsByCategory(ctx context.Context, category string) ([]lineitem.Raw, error) {
	var out []lineitem.Raw
	path := "products/category/" + url.PathEscape(CategoryName(category))
	if err := f.client.GetJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return decorateAll(out), nil
}

func (f *FakeStore) Product(ctx context.Context, id string) (lineitem.Raw, error) {
	var out lineitem.Raw
	if err := f.client.GetJSON(ctx, "products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, notFound(err)
	}
	if len(out) == 0 {
		return nil, ErrProductNotFound
	}
	return decorate(out), nil
}

func (f *FakeStore) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := f.client.GetJSON(ctx, "products/categories", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func decorateAll(products []lineitem.Raw) []lineitem.Raw {
	out := make([]lineitem.Raw, 0, len(products))
	for _, p := range products {
		if p != nil {
			out = append(out, decorate(p))
		}
	}
	return out
}

func decorate(p lineitem.Raw) lineitem.Raw {
	out := p.Clone()
	if _, ok := out["name"].(string); !ok {
		if title, ok := out["title"].(string); ok && title != "" {
			out["name"] = title
		} else {
			out["name"] = lineitem.DefaultName
		}
	}
	if price, ok := money.Number(p["price"]); ok {
		out["price_after"] = money.Round2(price)
		out["price"] = money.Markup(price, listMarkup)
	}
	return out
}
