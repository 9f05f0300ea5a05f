package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const priceKeyPrefix = "catalog:price:"

// Cache stores unit prices in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A non-positive ttl keeps entries until evicted.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{client: client, ttl: ttl}
}

// GetPrice reports the cached price for p and whether it was present.
func (c *Cache) GetPrice(ctx context.Context, p Product) (float64, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}
	raw, err := c.client.Get(ctx, priceKey(p)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

// SetPrice stores the price for p with the configured TTL.
func (c *Cache) SetPrice(ctx context.Context, p Product, price float64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, priceKey(p), strconv.FormatFloat(price, 'g', -1, 64), c.ttl).Err()
}

func priceKey(p Product) string {
	return priceKeyPrefix + p.Unit.String() + ":" + p.Name
}

// Cached is a read-through Catalog. Lookup failures of the source are
// returned as-is and never cached.
type Cached struct {
	Source Catalog
	Cache  *Cache
	// OnLookup, when set, receives "hit", "miss" or "error" for every cache access.
	OnLookup func(result string)
}

// UnitPrice implements Catalog.
func (c Cached) UnitPrice(ctx context.Context, p Product) (float64, error) {
	if price, ok, err := c.Cache.GetPrice(ctx, p); err == nil && ok {
		c.observe("hit")
		return price, nil
	} else if err != nil {
		c.observe("error")
	} else {
		c.observe("miss")
	}
	price, err := c.Source.UnitPrice(ctx, p)
	if err != nil {
		return 0, err
	}
	_ = c.Cache.SetPrice(ctx, p, price)
	return price, nil
}

func (c Cached) observe(result string) {
	if c.OnLookup != nil {
		c.OnLookup(result)
	}
}
