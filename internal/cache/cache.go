// Package cache is a small key/value layer used for idempotency keys and the
// wallet-stats read cache. Nothing stored here is a source of truth.
package cache

import (
	"context"
	"time"
)

type Store interface {
	// Get returns ok=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}
