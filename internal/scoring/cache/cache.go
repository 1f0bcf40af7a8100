// Package cache stores overlap results in Redis keyed by the tokenizer
// fingerprint and both texts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/overlap"
	pkgredis "github.com/lou463/Underscore-Resume-BETA01/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "score:"

// Backend is the subset of pkg/redis.Client the cache uses. Get must return
// an error satisfying pkgredis.IsNilError for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// ResultCache is a read-through cache. Backend failures degrade to a miss.
type ResultCache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(backend Backend, ttl time.Duration) *ResultCache {
	return &ResultCache{
		backend: backend,
		ttl:     ttl,
		logger:  slog.Default().With("component", "score-cache"),
	}
}

func (c *ResultCache) Get(ctx context.Context, fingerprint, candidate, reference string) (overlap.Result, bool) {
	key := BuildKey(fingerprint, candidate, reference)
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return overlap.Result{}, false
	}
	var result overlap.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return overlap.Result{}, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return result, true
}

func (c *ResultCache) Set(ctx context.Context, fingerprint, candidate, reference string, result overlap.Result) {
	key := BuildKey(fingerprint, candidate, reference)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs compute once per key across
// concurrent callers. The bool reports a cache hit.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	fingerprint, candidate, reference string,
	compute func() (overlap.Result, error),
) (overlap.Result, bool, error) {
	if result, ok := c.Get(ctx, fingerprint, candidate, reference); ok {
		return result, true, nil
	}
	key := BuildKey(fingerprint, candidate, reference)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, fingerprint, candidate, reference, result)
		return result, nil
	})
	if err != nil {
		return overlap.Result{}, false, err
	}
	return val.(overlap.Result), false, nil
}

// Invalidate removes every cached result and returns the number of keys
// deleted.
func (c *ResultCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

func (c *ResultCache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// BuildKey hashes the inputs; texts are length-prefixed so no two distinct
// triples share a key.
func BuildKey(fingerprint, candidate, reference string) string {
	h := sha256.New()
	for _, part := range []string{fingerprint, candidate, reference} {
		fmt.Fprintf(h, "%d:", len(part))
		h.Write([]byte(part))
	}
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}
