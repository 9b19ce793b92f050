package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"time"

	"github.com/mindbridge-gateway/internal/config"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Service caches emotion distributions keyed by Key
type Service interface {
	Get(ctx context.Context, key string) (map[string]int, bool)
	Set(ctx context.Context, key string, distribution map[string]int) error
	Clear(ctx context.Context) error
}

// HitRecorder receives cache hit/miss observations
type HitRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

type entry struct {
	Distribution map[string]int `json:"distribution"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewCache builds the configured backend, or a no-op cache when disabled
func NewCache(cfg *config.CacheConfig, metrics HitRecorder, logger *logrus.Logger) (Service, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}

	var backend Service
	switch cfg.Type {
	case "redis":
		r, err := NewRedisCache(cfg, logger)
		if err != nil {
			return nil, err
		}
		backend = r
	default:
		backend = NewMemoryCache(cfg, logger)
	}

	logger.WithFields(logrus.Fields{
		"type": cfg.Type,
		"ttl":  cfg.TTL,
	}).Info("Analysis cache enabled")

	if metrics == nil {
		return backend, nil
	}
	return &instrumented{Service: backend, metrics: metrics}, nil
}

// Key creates a cache key from the parts identifying a request
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// Disabled never stores anything
type Disabled struct{}

func (Disabled) Get(context.Context, string) (map[string]int, bool) { return nil, false }

func (Disabled) Set(context.Context, string, map[string]int) error { return nil }

func (Disabled) Clear(context.Context) error { return nil }

type instrumented struct {
	Service
	metrics HitRecorder
}

func (c *instrumented) Get(ctx context.Context, key string) (map[string]int, bool) {
	d, ok := c.Service.Get(ctx, key)
	if ok {
		c.metrics.RecordCacheHit()
	} else {
		c.metrics.RecordCacheMiss()
	}
	return d, ok
}

func (c *instrumented) Close() error {
	if closer, ok := c.Service.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// MemoryCache implements Service in process with go-cache
type MemoryCache struct {
	cache   *cache.Cache
	logger  *logrus.Logger
	maxSize int
}

// NewMemoryCache creates an in-process cache
func NewMemoryCache(cfg *config.CacheConfig, logger *logrus.Logger) *MemoryCache {
	return &MemoryCache{
		cache:   cache.New(cfg.TTL, cfg.TTL*2),
		logger:  logger,
		maxSize: cfg.MaxSize,
	}
}

// Get retrieves a cached distribution
func (c *MemoryCache) Get(ctx context.Context, key string) (map[string]int, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	e := val.(*entry)
	c.logger.WithFields(logrus.Fields{
		"key": shortKey(key),
		"age": time.Since(e.CreatedAt),
	}).Debug("Cache hit")
	return copyDistribution(e.Distribution), true
}

// Set stores a distribution
func (c *MemoryCache) Set(ctx context.Context, key string, distribution map[string]int) error {
	if c.maxSize > 0 && c.cache.ItemCount() >= c.maxSize {
		c.logger.Warn("Cache size limit reached, clearing old entries")
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxSize {
			return nil
		}
	}

	c.cache.SetDefault(key, &entry{
		Distribution: copyDistribution(distribution),
		CreatedAt:    time.Now(),
	})
	return nil
}

// Clear removes all cached entries
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.cache.Flush()
	c.logger.Info("Cache cleared")
	return nil
}

func copyDistribution(d map[string]int) map[string]int {
	out := make(map[string]int, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
