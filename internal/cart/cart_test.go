package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func setupCart(t *testing.T, blobs blob.Store) *Store {
	t.Helper()
	s, err := Load(context.Background(), blobs, quietLogger(),
		WithIDs(sequentialIDs()),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return s
}

// countingStore records writes and can be told to fail them.
type countingStore struct {
	*blob.Memory
	writes   int
	writeErr error
	readErr  error
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: blob.NewMemory()}
}

func (c *countingStore) Read(ctx context.Context, key string) (string, error) {
	if c.readErr != nil {
		return "", c.readErr
	}
	return c.Memory.Read(ctx, key)
}

func (c *countingStore) Write(ctx context.Context, key, value string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes++
	return c.Memory.Write(ctx, key, value)
}

func persisted(t *testing.T, s blob.Store) string {
	t.Helper()
	v, err := s.Read(context.Background(), blob.KeyCart)
	require.NoError(t, err)
	return v
}

func TestAdd_MergesSameProduct(t *testing.T) {
	ctx := context.Background()
	c := setupCart(t, blob.NewMemory())

	res, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0, "price": 100.0, "price_after": 80.0, "qty": 2.0})
	require.NoError(t, err)
	assert.Equal(t, lineitem.Added, res.Outcome)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 160.0, c.Items()[0].LineTotal)

	res, err = c.Add(ctx, lineitem.Raw{"product_id": 1.0, "qty": 3.0})
	require.NoError(t, err)
	assert.Equal(t, lineitem.Incremented, res.Outcome)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "item-1", items[0].ItemID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 400.0, items[0].LineTotal)
	assert.Equal(t, 400.0, c.Total())
}

func TestAdd_DefaultsQuantityToOne(t *testing.T) {
	c := setupCart(t, blob.NewMemory())

	_, err := c.Add(context.Background(), lineitem.Raw{"product_id": "9", "price": "abc"})
	require.NoError(t, err)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Zero(t, items[0].UnitPrice)
	assert.Zero(t, items[0].LineTotal)
}

func TestAdd_PersistsWholeCollection(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	c := setupCart(t, store)

	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0, "price": 10.0})
	require.NoError(t, err)
	_, err = c.Add(ctx, lineitem.Raw{"id": 2.0, "title": "Phone", "price": 500.0, "discountPercentage": 10.0})
	require.NoError(t, err)

	reloaded := setupCart(t, store)
	assert.Equal(t, c.Items(), reloaded.Items())
	assert.Equal(t, 460.0, reloaded.Total())
	assert.Equal(t, 2, reloaded.Count())
	assert.Equal(t, 2, reloaded.Quantity())
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	c := setupCart(t, blob.NewMemory())
	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0, "price_after": 2.5})
	require.NoError(t, err)

	res, err := c.SetQuantity(ctx, "item-1", 4)
	require.NoError(t, err)
	assert.Equal(t, lineitem.Updated, res.Outcome)
	assert.Equal(t, 10.0, res.Item.LineTotal)
	assert.Equal(t, 4, c.Items()[0].Quantity)
}

func TestSetQuantity_ZeroRemoves(t *testing.T) {
	ctx := context.Background()
	c := setupCart(t, blob.NewMemory())
	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0})
	require.NoError(t, err)
	_, err = c.Add(ctx, lineitem.Raw{"product_id": 2.0})
	require.NoError(t, err)

	res, err := c.SetQuantity(ctx, "item-1", 0)
	require.NoError(t, err)
	assert.Equal(t, lineitem.Removed, res.Outcome)
	assert.Len(t, c.Items(), 1)
	assert.Equal(t, "2", c.Items()[0].ProductID)
}

func TestSetQuantity_UnknownItemIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	c := setupCart(t, store)
	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0})
	require.NoError(t, err)

	res, err := c.SetQuantity(ctx, "nope", 3)
	require.NoError(t, err)
	assert.Equal(t, lineitem.NotFound, res.Outcome)
	assert.False(t, res.Changed())
	assert.Equal(t, 1, store.writes)
}

func TestRemove_UnknownLeavesBlobUntouched(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	c := setupCart(t, store)
	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0, "price": 3.0})
	require.NoError(t, err)
	before := persisted(t, store)

	res, err := c.Remove(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, lineitem.NotFound, res.Outcome)
	assert.Equal(t, before, persisted(t, store))
	assert.Equal(t, 1, store.writes)
}

func TestRemove_ByLegacyAlias(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	require.NoError(t, store.Write(ctx, blob.KeyCart,
		`[{"id": 100, "cart_id": 200, "product_id": 5, "qty": 1, "details": {"name": "Old", "price": 3, "price_after": 3, "total": 3}}]`))
	c := setupCart(t, store)
	require.Len(t, c.Items(), 1)

	res, err := c.Remove(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, lineitem.Removed, res.Outcome)
	assert.Equal(t, "[]", persisted(t, store))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	c := setupCart(t, store)
	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0})
	require.NoError(t, err)

	res, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, lineitem.Cleared, res.Outcome)
	assert.Empty(t, c.Items())
	assert.Equal(t, "[]", persisted(t, store))
}

func TestTotal_UsesStoredLineTotals(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	require.NoError(t, store.Write(ctx, blob.KeyCart,
		`[{"id":"a","product_id":"1","qty":2,"price":10,"price_after":10,"total":7.5},
		  {"id":"b","product_id":"2","qty":1,"price":0.1,"price_after":0.1,"total":0.2}]`))

	c := setupCart(t, store)
	assert.Equal(t, 7.7, c.Total())
}

func TestLoad_CorruptBlobFallsBackToEmpty(t *testing.T) {
	store := blob.NewMemory()
	require.NoError(t, store.Write(context.Background(), blob.KeyCart, "{not json"))

	c := setupCart(t, store)
	assert.Empty(t, c.Items())
}

func TestLoad_StorageError(t *testing.T) {
	store := newCountingStore()
	store.readErr = errors.New("connection refused")

	_, err := Load(context.Background(), store, quietLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
}

func TestFailedWriteKeepsMemoryInSync(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	c := setupCart(t, store)
	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0})
	require.NoError(t, err)

	store.writeErr = errors.New("disk full")
	_, err = c.Add(ctx, lineitem.Raw{"product_id": 1.0})
	require.Error(t, err)
	_, err = c.Remove(ctx, "item-1")
	require.Error(t, err)

	require.Len(t, c.Items(), 1)
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestReloadAndForget(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	c := setupCart(t, store)
	_, err := c.Add(ctx, lineitem.Raw{"product_id": 1.0})
	require.NoError(t, err)

	c.Forget()
	assert.Empty(t, c.Items())

	require.NoError(t, c.Reload(ctx))
	assert.Len(t, c.Items(), 1)
}

func TestItems_ReturnsCopy(t *testing.T) {
	c := setupCart(t, blob.NewMemory())
	_, err := c.Add(context.Background(), lineitem.Raw{"product_id": 1.0})
	require.NoError(t, err)

	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestLoad_LegacyEntryWithoutQuantityCountsAsOne(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	require.NoError(t, store.Write(ctx, blob.KeyCart,
		`[{"id":1,"cart_id":1,"product_id":5,"details":{"name":"Mug","price":12,"price_after":10,"total":10}}]`))

	c := setupCart(t, store)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 10.0, items[0].LineTotal)

	res, err := c.Add(ctx, lineitem.Raw{"product_id": 5.0})
	require.NoError(t, err)
	assert.Equal(t, lineitem.Incremented, res.Outcome)
	assert.Equal(t, 2, res.Item.Quantity)
	assert.Equal(t, 20.0, res.Item.LineTotal)

	reloaded, err := lineitem.Decode(persisted(t, store))
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, 2, reloaded[0].Quantity)
}

func TestAdd_RejectsItemWithoutProductID(t *testing.T) {
	store := newCountingStore()
	c := setupCart(t, store)

	for range 2 {
		_, err := c.Add(context.Background(), lineitem.Raw{"name": "Mystery", "price": 5.0})
		require.ErrorIs(t, err, lineitem.ErrNoProductID)
	}
	assert.Empty(t, c.Items())
	assert.Zero(t, store.writes)
}
