package lineitem

// Identity decides which entry of a collection an incoming id refers to. Every
// mutating operation of a collection resolves ids through its Identity.
type Identity struct {
	// legacyProduct lets an entry's item id stand in for its product id.
	// Entries persisted before product ids existed only carry an item id.
	legacyProduct bool
	// productAsItem accepts a product id wherever an item id is expected.
	productAsItem bool
}

var (
	CartIdentity     = Identity{}
	WishlistIdentity = Identity{legacyProduct: true, productAsItem: true}
)

// ByProduct returns the index of the entry referencing productID, or -1.
func (p Identity) ByProduct(items []Item, productID string) int {
	if productID == "" {
		return -1
	}
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
		if p.legacyProduct && it.ItemID == productID {
			return i
		}
	}
	return -1
}

// ByItem returns the index of the entry addressed by id through its item id or
// legacy alias, or -1.
func (p Identity) ByItem(items []Item, id string) int {
	if id == "" {
		return -1
	}
	for i, it := range items {
		if it.ItemID == id || (it.LegacyID != "" && it.LegacyID == id) {
			return i
		}
		if p.productAsItem && it.ProductID == id {
			return i
		}
	}
	return -1
}
