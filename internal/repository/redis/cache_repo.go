package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
)

// CacheRepo implements repository.CacheRepository over Redis.
type CacheRepo struct {
	client redis.UniversalClient
}

// NewCacheRepo creates the repository and fails on a nil client.
func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required for CacheRepo")
	}
	return &CacheRepo{client: client}, nil
}

// Get returns the value at key, mapping redis.Nil to apperrors.ErrNotFound.
func (r *CacheRepo) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return val, nil
}

// Set stores value at key with a TTL.
func (r *CacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Delete removes the given keys.
func (r *CacheRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
