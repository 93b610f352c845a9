package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reservely/models"
	"reservely/utils"

	"github.com/go-redis/redis/v8"
)

// IdempotencyCache replays the result of a completed creation when the
// client retries with the same idempotency key. A hit must not re-execute
// any side effect.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]models.Booking, bool, error)
	Save(ctx context.Context, key string, bookings []models.Booking) error
}

type redisIdempotencyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyCache builds the redis-backed cache with a bounded
// retention window.
func NewRedisIdempotencyCache(client *redis.Client, ttl time.Duration) IdempotencyCache {
	return &redisIdempotencyCache{client: client, ttl: ttl}
}

func (c *redisIdempotencyCache) Get(ctx context.Context, key string) ([]models.Booking, bool, error) {
	raw, err := c.client.Get(ctx, utils.IdemCachePrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("idempotency lookup failed: %w", err)
	}

	var bookings []models.Booking
	if err := json.Unmarshal([]byte(raw), &bookings); err != nil {
		return nil, false, fmt.Errorf("failed to parse cached idempotency record: %w", err)
	}
	return bookings, true, nil
}

func (c *redisIdempotencyCache) Save(ctx context.Context, key string, bookings []models.Booking) error {
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency record: %w", err)
	}
	if err := c.client.Set(ctx, utils.IdemCachePrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache idempotency record: %w", err)
	}
	return nil
}
