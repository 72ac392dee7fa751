package utils

import (
	"context"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var cacheClient *redis.Client

// InitRedis initializes the shared Redis cache client.
func InitRedis() {
	cacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cacheClient.Ping(ctx).Err(); err != nil {
		GetLogger().Warn("Redis unavailable, cache-backed fast paths disabled", zap.Error(err))
	}
}

// GetCacheClient returns the shared Redis client, or nil when Redis was
// never initialized (callers must degrade gracefully).
func GetCacheClient() *redis.Client {
	return cacheClient
}
