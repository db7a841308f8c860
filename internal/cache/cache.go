package cache

import (
	"context"
	"time"
)

// BytesCache is a TTL'd byte store shared by the fetcher and its backends.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
