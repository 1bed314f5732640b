package repository

import (
	"context"
	"time"
)

// CacheRepository is the TTL key-value store backing all OTP and
// rate-limit state. Implementations must guarantee per-key atomicity of
// the individual calls; the services deliberately do not rely on any
// cross-call atomicity.
type CacheRepository interface {
	// Get returns the value at key, or apperrors.ErrNotFound if the key is
	// absent or has expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key with the given TTL.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
