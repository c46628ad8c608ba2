package address

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var baseTime = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func setupBook(t *testing.T, store blob.Store) *Book {
	t.Helper()
	b, err := Load(context.Background(), store, quietLogger(),
		WithClock(func() time.Time { return baseTime }))
	require.NoError(t, err)
	return b
}

func home() Address {
	return Address{
		StreetAddress: "1 Nile St",
		CountryName:   "Egypt",
		StateName:     "Cairo",
		CityName:      "Cairo",
		Phone:         "01012345678",
	}
}

func TestAdd_AssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	b := setupBook(t, blob.NewMemory())

	first, err := b.Add(ctx, home())
	require.NoError(t, err)
	second, err := b.Add(ctx, home())
	require.NoError(t, err)

	assert.Equal(t, baseTime.UnixMilli(), first.ID)
	assert.Equal(t, first.ID+1, second.ID, "same millisecond still yields a new id")
	require.NotNil(t, first.CreatedAt)
	assert.Equal(t, baseTime, *first.CreatedAt)
	assert.Len(t, b.List(), 2)
}

func TestAdd_RequiresFields(t *testing.T) {
	b := setupBook(t, blob.NewMemory())

	_, err := b.Add(context.Background(), Address{CountryName: "Egypt"})
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "street_address")
	assert.ErrorContains(t, err, "city_name")
	assert.Empty(t, b.List())
}

func TestAdd_DefaultIsExclusive(t *testing.T) {
	ctx := context.Background()
	b := setupBook(t, blob.NewMemory())

	a := home()
	a.IsDefault = true
	first, err := b.Add(ctx, a)
	require.NoError(t, err)
	second, err := b.Add(ctx, a)
	require.NoError(t, err)

	assert.False(t, b.Get(first.ID).IsDefault)
	assert.True(t, b.Get(second.ID).IsDefault)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	b := setupBook(t, store)
	created, err := b.Add(ctx, home())
	require.NoError(t, err)

	changed := home()
	changed.StreetAddress = "2 Nile St"
	changed.ID = 999
	updated, ok, err := b.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, "2 Nile St", setupBook(t, store).Get(created.ID).StreetAddress)
}

func TestUpdate_Missing(t *testing.T) {
	b := setupBook(t, blob.NewMemory())

	_, ok, err := b.Update(context.Background(), 42, home())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	b := setupBook(t, blob.NewMemory())
	a, err := b.Add(ctx, home())
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, a.ID))
	require.NoError(t, b.Delete(ctx, a.ID))
	assert.Nil(t, b.Get(a.ID))
	assert.Empty(t, b.List())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	b := setupBook(t, store)
	_, err := b.Add(ctx, home())
	require.NoError(t, err)

	require.NoError(t, b.Reset(ctx))
	v, err := store.Read(ctx, blob.KeyAddresses)
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestLoad_LegacyBlob(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	require.NoError(t, store.Write(ctx, blob.KeyAddresses,
		`[{"id":1717000000000,"street_address":"Old road","country_name":"Egypt","city_name":"Giza","is_default":true,"created_at":"2024-05-29T16:26:40.000Z"}]`))

	b := setupBook(t, store)
	got := b.Get(1717000000000)
	require.NotNil(t, got)
	assert.Equal(t, "Old road", got.StreetAddress)
	assert.True(t, got.IsDefault)
}

func TestLoad_CorruptBlob(t *testing.T) {
	store := blob.NewMemory()
	require.NoError(t, store.Write(context.Background(), blob.KeyAddresses, "nope"))

	assert.Empty(t, setupBook(t, store).List())
}
