package interfaces

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with a TTL. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
