package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lruItem wraps cached bytes with their expiry.
type lruItem struct {
	data      []byte
	expiresAt time.Time
}

// LRU is an in-process Cache for single-instance deployments without a
// Redis tier. Entries carry a per-entry TTL on top of LRU eviction.
type LRU struct {
	entries *lru.Cache[string, lruItem]
}

func NewLRU(size int) (*LRU, error) {
	l, err := lru.New[string, lruItem](size)
	if err != nil {
		return nil, err
	}
	return &LRU{entries: l}, nil
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, error) {
	item, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if time.Now().After(item.expiresAt) {
		c.entries.Remove(key)
		return nil, ErrMiss
	}
	return item.data, nil
}

func (c *LRU) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.entries.Add(key, lruItem{data: val, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (c *LRU) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}
