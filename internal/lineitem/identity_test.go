package lineitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixtureItems() []Item {
	return []Item{
		{ItemID: "a", ProductID: "1"},
		{ItemID: "b", LegacyID: "legacy-b", ProductID: "2"},
		{ItemID: "17"}, // persisted before product ids existed
	}
}

func TestByProduct(t *testing.T) {
	items := fixtureItems()

	assert.Equal(t, 0, CartIdentity.ByProduct(items, "1"))
	assert.Equal(t, 1, CartIdentity.ByProduct(items, "2"))
	assert.Equal(t, -1, CartIdentity.ByProduct(items, "17"), "cart ignores legacy item ids")
	assert.Equal(t, 2, WishlistIdentity.ByProduct(items, "17"))
	assert.Equal(t, -1, WishlistIdentity.ByProduct(items, "99"))
	assert.Equal(t, -1, WishlistIdentity.ByProduct(items, ""), "empty id never matches")
}

func TestByItem(t *testing.T) {
	items := fixtureItems()

	assert.Equal(t, 0, CartIdentity.ByItem(items, "a"))
	assert.Equal(t, 1, CartIdentity.ByItem(items, "legacy-b"))
	assert.Equal(t, -1, CartIdentity.ByItem(items, "2"), "cart does not accept product ids")
	assert.Equal(t, 1, WishlistIdentity.ByItem(items, "2"))
	assert.Equal(t, -1, CartIdentity.ByItem(items, ""))
	assert.Equal(t, -1, CartIdentity.ByItem(nil, "a"))
}

func TestResult_Changed(t *testing.T) {
	assert.True(t, Result{Outcome: Added}.Changed())
	assert.True(t, Result{Outcome: Removed}.Changed())
	assert.False(t, Result{Outcome: NotFound}.Changed())
	assert.False(t, Result{Outcome: AlreadyExists}.Changed())
}
