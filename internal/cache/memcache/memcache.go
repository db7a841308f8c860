package memcache

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/pkg/errors"
)

const minSizeBytes = 512 * 1024

// Cache is the single-process BytesCache used when no redis is configured.
type Cache struct {
	c *freecache.Cache
}

func New(sizeBytes int) *Cache {
	if sizeBytes < minSizeBytes {
		sizeBytes = minSizeBytes
	}
	return &Cache{c: freecache.NewCache(sizeBytes)}
}

func newWithTimer(sizeBytes int, timer freecache.Timer) *Cache {
	return &Cache{c: freecache.NewCacheCustomTimer(sizeBytes, timer)}
}

func (m *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, err := m.c.Get([]byte(key))
	if err == freecache.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "freecache get")
	}
	return val, true, nil
}

// Set rounds ttl up to whole seconds; ttl<=0 means no expiry.
func (m *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	secs := 0
	if ttl > 0 {
		secs = int((ttl + time.Second - 1) / time.Second)
	}
	if err := m.c.Set([]byte(key), value, secs); err != nil {
		return errors.Wrap(err, "freecache set")
	}
	return nil
}

func (m *Cache) EntryCount() int64 {
	return m.c.EntryCount()
}
