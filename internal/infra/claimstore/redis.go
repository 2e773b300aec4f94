package claimstore

import (
	"context"
	"fmt"
	"time"

	"notigate/internal/common"
	"notigate/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

var _ notification.ClaimStore = (*Redis)(nil)

// Redis keeps claim counters in Redis so rate-limit windows are shared
// across every instance of the service.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection before returning.
func NewRedis(addr, password string, db int) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client}, nil
}

// TryClaim increments the counter for key and reports whether the caller
// stayed within limit. The expiry is attached only when the counter is
// created (EXPIRE NX), so repeat attempts never stretch the window.
func (s *Redis) TryClaim(ctx context.Context, key string, limit int, ttl time.Duration) (bool, error) {
	pipe := s.client.TxPipeline()
	counter := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, common.NewStoreError("redis", err.Error())
	}

	return counter.Val() <= int64(limit), nil
}

// Close closes the Redis connection.
func (s *Redis) Close() error {
	return s.client.Close()
}
