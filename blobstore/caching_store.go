package blobstore

import (
	"container/list"
	"context"
	"sync"
)

// CachingStore wraps a Store with an in-memory LRU cache, bounded by a
// total byte budget. Reads of hot snapshots skip the backing store, which
// matters for remote backends like S3.
type CachingStore struct {
	inner Store
	limit int64

	mu      sync.Mutex
	size    int64
	entries map[string]*list.Element
	lru     *list.List // front = most recently used
}

type cacheEntry struct {
	name string
	data []byte
}

// NewCachingStore wraps inner with a cache of at most limitBytes of blob
// data. Blobs larger than the budget are served but never cached.
func NewCachingStore(inner Store, limitBytes int64) *CachingStore {
	return &CachingStore{
		inner:   inner,
		limit:   limitBytes,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Put writes through to the backing store and refreshes the cache.
func (c *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := c.inner.Put(ctx, name, data); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(name)
	c.insertLocked(name, data)
	return nil
}

// Get serves from the cache when possible, falling back to the backing
// store and caching the result.
func (c *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	c.mu.Lock()
	if el, ok := c.entries[name]; ok {
		c.lru.MoveToFront(el)
		data := el.Value.(*cacheEntry).data
		copied := make([]byte, len(data))
		copy(copied, data)
		c.mu.Unlock()
		return copied, nil
	}
	c.mu.Unlock()

	data, err := c.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.insertLocked(name, data)
	c.mu.Unlock()
	return data, nil
}

// Delete removes the blob from the backing store and the cache.
func (c *CachingStore) Delete(ctx context.Context, name string) error {
	if err := c.inner.Delete(ctx, name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(name)
	return nil
}

// List is a passthrough to the backing store.
func (c *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.List(ctx, prefix)
}

// Size returns the cached byte total.
func (c *CachingStore) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *CachingStore) insertLocked(name string, data []byte) {
	if int64(len(data)) > c.limit {
		return
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	el := c.lru.PushFront(&cacheEntry{name: name, data: copied})
	c.entries[name] = el
	c.size += int64(len(copied))

	for c.size > c.limit {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.evictLocked(back.Value.(*cacheEntry).name)
	}
}

func (c *CachingStore) evictLocked(name string) {
	el, ok := c.entries[name]
	if !ok {
		return
	}
	c.lru.Remove(el)
	delete(c.entries, name)
	c.size -= int64(len(el.Value.(*cacheEntry).data))
}
