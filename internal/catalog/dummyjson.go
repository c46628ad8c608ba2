package catalog

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/fjod/go_cart/storefront/internal/upstream"
)

// DummyJSON reads dummyjson.com. Products are passed through untouched;
// their discountPercentage is applied by the normalizer.
type DummyJSON struct {
	client *upstream.Client
}

func NewDummyJSON(client *upstream.Client) *DummyJSON {
	return &DummyJSON{client: client}
}

type dummyList struct {
	Products []lineitem.Raw `json:"products"`
	Total    int            `json:"total"`
}

// everything asks the API not to paginate.
var everything = url.Values{"limit": {"0"}}

func (d *DummyJSON) Products(ctx context.Context) ([]lineitem.Raw, error) {
	return d.list(ctx, "products")
}

func (d *DummyJSON) ProductsByCategory(ctx context.Context, category string) ([]lineitem.Raw, error) {
	return d.list(ctx, "products/category/"+url.PathEscape(category))
}

func (d *DummyJSON) list(ctx context.Context, path string) ([]lineitem.Raw, error) {
	var out dummyList
	if err := d.client.GetJSON(ctx, path, everything, &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []lineitem.Raw{}
	}
	return out.Products, nil
}

func (d *DummyJSON) Product(ctx context.Context, id string) (lineitem.Raw, error) {
	var out lineitem.Raw
	if err := d.client.GetJSON(ctx, "products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, notFound(err)
	}
	if len(out) == 0 {
		return nil, ErrProductNotFound
	}
	return out, nil
}

// Categories accepts both the plain string list and the {slug, name, url}
// objects the API has served over time.
func (d *DummyJSON) Categories(ctx context.Context) ([]string, error) {
	var raw []json.RawMessage
	if err := d.client.GetJSON(ctx, "products/categories", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var name string
		if err := json.Unmarshal(r, &name); err == nil {
			out = append(out, name)
			continue
		}
		var obj struct {
			Slug string `json:"slug"`
		}
		if err := json.Unmarshal(r, &obj); err == nil && obj.Slug != "" {
			out = append(out, obj.Slug)
		}
	}
	return out, nil
}
