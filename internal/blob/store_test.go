package blob

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("read missing", func(t *testing.T) {
		_, err := s.Read(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("write then read", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, KeyCart, `[{"id":"a"}]`))
		v, err := s.Read(ctx, KeyCart)
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"a"}]`, v)
	})

	t.Run("write overwrites", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, KeyWishlist, `[1]`))
		require.NoError(t, s.Write(ctx, KeyWishlist, `[]`))
		v, err := s.Read(ctx, KeyWishlist)
		require.NoError(t, err)
		assert.Equal(t, `[]`, v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, KeyUserToken, "tok"))
		require.NoError(t, s.Delete(ctx, KeyUserToken))
		_, err := s.Read(ctx, KeyUserToken)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "never-written"))
	})

	t.Run("read or fallback", func(t *testing.T) {
		v, err := ReadOr(ctx, s, "absent", "[]")
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestPrefixedStore(t *testing.T) {
	base := NewMemory()
	runStoreContract(t, Prefixed(base, "session:abc"))

	ctx := context.Background()
	require.NoError(t, Prefixed(base, "session:abc").Write(ctx, KeyAddresses, "[]"))

	v, err := base.Read(ctx, "session:abc:"+KeyAddresses)
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	_, err = Prefixed(base, "session:other").Read(ctx, KeyAddresses)
	assert.ErrorIs(t, err, ErrNotFound, "namespaces are isolated")
}

func setupTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, ttl), mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	runStoreContract(t, s)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	require.NoError(t, s.Write(context.Background(), KeyCart, "[]"))

	stored, err := mr.Get("storefront:" + KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", stored)
	assert.Zero(t, mr.TTL("storefront:"+KeyCart), "no ttl configured")
}

func TestRedisStore_WithTTL(t *testing.T) {
	s, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, s.Write(context.Background(), KeyCart, "[]"))

	require.NoError(t, s.Write(context.Background(), KeyUserToken, "tok"))

	assert.Equal(t, time.Hour, mr.TTL("storefront:"+KeyCart))
	assert.Equal(t, mr.TTL("storefront:"+KeyCart), mr.TTL("storefront:"+KeyUserToken))

	mr.FastForward(2 * time.Hour)
	_, err := s.Read(context.Background(), KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Read(context.Background(), KeyCart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}

func setupTestSQLite(t *testing.T) *SQLite {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.RunMigrations())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, setupTestSQLite(t))
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	s := setupTestSQLite(t)
	assert.NoError(t, s.RunMigrations())
}

func TestSQLiteStore_CancelledContext(t *testing.T) {
	s := setupTestSQLite(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Read(ctx, KeyCart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
