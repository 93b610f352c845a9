// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"reservely/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (idempotency records, provider preferences).
	CacheClient *redis.Client
	// VerifyCacheClient is the dedicated client for cancellation verification codes.
	VerifyCacheClient *redis.Client
)

// InitCache initializes the generic Redis cache client (using DB from AppConfig for general caching).
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitVerifyCache initializes the Redis client for cancellation verification codes.
func InitVerifyCache() {
	VerifyCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisVerifyDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := VerifyCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Verify Cache): %v", err)
	}
}

// GetVerifyCacheClient returns the Redis client for cancellation verification codes.
func GetVerifyCacheClient() *redis.Client {
	if VerifyCacheClient == nil {
		InitVerifyCache()
	}
	return VerifyCacheClient
}

// InitRedis initializes all Redis clients at startup.
func InitRedis() {
	InitCache()
	InitVerifyCache()
}
