package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// cacheWriteTimeout bounds the background cache fill.
const cacheWriteTimeout = time.Second

// Cached puts a Cache in front of a Source. Concurrent misses for the same
// key share one upstream call.
type Cached struct {
	next  Source
	cache Cache
	log   logrus.FieldLogger
	sfg   singleflight.Group
}

func NewCached(next Source, cache Cache, log logrus.FieldLogger) *Cached {
	return &Cached{
		next:  next,
		cache: cache,
		log:   log,
	}
}

func (c *Cached) Products(ctx context.Context) ([]lineitem.Raw, error) {
	return load(ctx, c, "products", c.next.Products)
}

func (c *Cached) ProductsByCategory(ctx context.Context, category string) ([]lineitem.Raw, error) {
	return load(ctx, c, "category:"+category, func(ctx context.Context) ([]lineitem.Raw, error) {
		return c.next.ProductsByCategory(ctx, category)
	})
}

func (c *Cached) Product(ctx context.Context, id string) (lineitem.Raw, error) {
	return load(ctx, c, "product:"+id, func(ctx context.Context) (lineitem.Raw, error) {
		return c.next.Product(ctx, id)
	})
}

func (c *Cached) Categories(ctx context.Context) ([]string, error) {
	return load(ctx, c, "categories", c.next.Categories)
}

func load[T any](ctx context.Context, c *Cached, key string, fetch func(context.Context) (T, error)) (T, error) {
	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		var cached T
		err := c.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.WithError(err).WithField("key", key).Warn("catalog cache get failed")
		}

		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
			defer cancel()
			if err := c.cache.Set(ctx, key, fresh); err != nil {
				c.log.WithError(err).WithField("key", key).Warn("catalog cache set failed")
			}
		}()

		return fresh, nil
	})

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
