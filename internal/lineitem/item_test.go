package lineitem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem_ComputesLineTotal(t *testing.T) {
	p := Product{ProductID: "1", DisplayName: "Mug", UnitPrice: 12, DiscountedUnitPrice: 9.99}
	it := NewItem("item-1", p, 3, time.Unix(0, 0))

	assert.Equal(t, 29.97, it.LineTotal)
	assert.Equal(t, 3, it.Quantity)
	assert.Equal(t, "Mug", it.DisplayName)
}

func TestNewItem_WishlistEntryHasNoQuantity(t *testing.T) {
	it := NewItem("w-1", Product{ProductID: "1", DiscountedUnitPrice: 5}, 0, time.Now())
	assert.Zero(t, it.Quantity)
	assert.Zero(t, it.LineTotal)
}

func TestWithQuantity_RecomputesTotal(t *testing.T) {
	it := Item{DiscountedUnitPrice: 80, Quantity: 2, LineTotal: 160}
	next := it.WithQuantity(5)

	assert.Equal(t, 400.0, next.LineTotal)
	assert.Equal(t, 160.0, it.LineTotal, "original is untouched")
}

func TestEncodeDecode_EmptyCollection(t *testing.T) {
	blob, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", blob)

	items, err := Decode("null")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestDecode_CurrentLayout(t *testing.T) {
	added := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := []Item{NewItem("a", Product{ProductID: "1", DisplayName: "A", UnitPrice: 10, DiscountedUnitPrice: 8, ImageURL: "https://x/a.png"}, 2, added)}

	blob, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_LegacyCartLayout(t *testing.T) {
	blob := `[{
		"id": 1718000000000,
		"cart_id": 1718000000001,
		"product_id": 5,
		"qty": 2,
		"details": {
			"name": "Old Shirt",
			"price": 24,
			"price_after": 20,
			"total": 40,
			"gallary": {"gallary_name": "https://x/shirt.png"}
		}
	}]`

	items, err := Decode(blob)
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, "1718000000000", it.ItemID)
	assert.Equal(t, "1718000000001", it.LegacyID)
	assert.Equal(t, "5", it.ProductID)
	assert.Equal(t, 2, it.Quantity)
	assert.Equal(t, "Old Shirt", it.DisplayName)
	assert.Equal(t, 24.0, it.UnitPrice)
	assert.Equal(t, 20.0, it.DiscountedUnitPrice)
	assert.Equal(t, 40.0, it.LineTotal)
	assert.Equal(t, "https://x/shirt.png", it.ImageURL)
}

func TestDecode_LegacyWishlistWithoutProductID(t *testing.T) {
	items, err := Decode(`[{"id": 42, "wishlist_id": 42, "name": "Lamp", "price": "15.5"}]`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "42", items[0].ItemID)
	assert.Empty(t, items[0].LegacyID, "alias equal to the id is dropped")
	assert.Empty(t, items[0].ProductID)
	assert.Zero(t, items[0].Quantity)
	assert.Equal(t, 15.5, items[0].UnitPrice)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode(`[{"id": 1,`)
	require.ErrorIs(t, err, ErrCorruptBlob)

	_, err = Decode(`{"not": "a list"}`)
	require.ErrorIs(t, err, ErrCorruptBlob)
}
