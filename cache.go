package cleanblog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PostCache serves the "all posts" listing. Every post mutation must call Invalidate.
type PostCache interface {
	ListPosts(ctx context.Context) ([]Post, error)
	Invalidate(ctx context.Context) error
}

// postLister is the Store subset the caches load from.
type postLister interface {
	ListPosts(ctx context.Context) ([]Post, error)
}

// MemoryCache is an in-process cache of all posts with a TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	posts   []Post
	loaded  bool
	fetched time.Time
	ttl     time.Duration
	store   postLister
}

// NewMemoryCache creates a MemoryCache backed by s.
func NewMemoryCache(s postLister, ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: s, ttl: ttl}
}

func (c *MemoryCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.posts = nil
	c.loaded = false
	c.mu.Unlock()
	return nil
}

// ListPosts returns cached posts, reloading from the store when stale.
// It tries a read lock first and only takes the write lock to reload.
func (c *MemoryCache) ListPosts(ctx context.Context) ([]Post, error) {
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
	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	c.posts = posts
	c.loaded = true
	c.fetched = time.Now()
	return posts, nil
}

const redisPostsKey = "cleanblog:posts"

// RedisCache keeps the posts listing in Redis so several processes share it.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	store  postLister
}

// NewRedisCache connects to the Redis server at url (redis://host:port/db).
func NewRedisCache(url string, s postLister, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl, store: s}, nil
}

// Ping checks the connection to Redis.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ListPosts returns posts from Redis, falling back to the store on a miss.
func (c *RedisCache) ListPosts(ctx context.Context) ([]Post, error) {
	val, err := c.client.Get(ctx, redisPostsKey).Bytes()
	switch {
	case err == nil:
		var posts []Post
		if err := json.Unmarshal(val, &posts); err == nil {
			return posts, nil
		}
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("redis get: %w", err)
	}

	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(posts)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, redisPostsKey, b, c.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis set: %w", err)
	}
	return posts, nil
}

// Invalidate drops the cached listing.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, redisPostsKey).Err()
}
