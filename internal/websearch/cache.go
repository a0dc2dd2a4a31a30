package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/mwiater/ragchat/internal/logging"
)

// ResultCache stores search results by key.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]Result, bool, error)
	Set(ctx context.Context, key string, results []Result) error
}

// RedisCache keeps results as JSON strings with a TTL.
type RedisCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

// NewRedisClient connects to addr and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps client. A non-positive ttl defaults to 15 minutes.
func NewRedisCache(client *redisv9.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached results for key and whether they were present.
func (c *RedisCache) Get(ctx context.Context, key string) ([]Result, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get search results failed: %w", err)
	}
	var results []Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached search results failed: %w", err)
	}
	return results, true, nil
}

// Set stores results under key.
func (c *RedisCache) Set(ctx context.Context, key string, results []Result) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal search results failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set search results failed: %w", err)
	}
	return nil
}

// Cached serves repeated queries from a ResultCache. Cache failures are
// logged and the underlying Searcher is used instead.
type Cached struct {
	next  Searcher
	cache ResultCache
}

// NewCached decorates next with cache.
func NewCached(next Searcher, cache ResultCache) *Cached {
	return &Cached{next: next, cache: cache}
}

// Search implements Searcher.
func (c *Cached) Search(ctx context.Context, query string, n int) ([]Result, error) {
	key := cacheKey(query, n)
	if results, ok, err := c.cache.Get(ctx, key); err != nil {
		logging.LogWarn("[SEARCH] cache read failed: %v", err)
	} else if ok {
		logging.LogEvent("[SEARCH] cache hit for %q", query)
		return results, nil
	}

	results, err := c.next.Search(ctx, query, n)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, results); err != nil {
		logging.LogWarn("[SEARCH] cache write failed: %v", err)
	}
	return results, nil
}

func cacheKey(query string, n int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return "ragchat:search:" + strconv.FormatUint(xxhash.Sum64String(normalized+"\x00"+strconv.Itoa(n)), 16)
}
