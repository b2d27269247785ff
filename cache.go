package flatblog

import (
	"sync"
	"time"
)

// PostCache is an in-memory TTL cache over PostStore.LoadAll, used by the
// public read API so every request does not re-parse the whole corpus.
// Every mutating operation invalidates it.
type PostCache struct {
	mu      sync.RWMutex
	posts   []Post
	fetched time.Time
	ttl     time.Duration
	store   *PostStore
}

// NewPostCache creates a PostCache backed by the given store.
func NewPostCache(s *PostStore, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// Posts returns all posts (drafts included), refreshing the cache when
// stale. It tries a read lock first and only takes the write lock when a
// reload is needed.
func (c *PostCache) Posts() ([]Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.store.LoadAll()
	if err != nil {
		return nil, err
	}
	c.posts = posts
	c.fetched = time.Now()
	return posts, nil
}
