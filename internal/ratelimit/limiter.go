// Package ratelimit throttles API clients with ulule/limiter.
package ratelimit

import (
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// New builds a limiter for rate in ulule's "<limit>-<period>" format
// (for example "60-M"). Counters live in Redis when client is non-nil so
// every API replica shares them; otherwise they are process-local.
func New(rate string, client *redis.Client, prefix string) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	opts := limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute}
	if client == nil {
		return limiter.New(memory.NewStoreWithOptions(opts), parsed), nil
	}
	store, err := sredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("redis rate limit store: %w", err)
	}
	return limiter.New(store, parsed), nil
}
