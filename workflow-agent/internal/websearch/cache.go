package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/config"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = 10 * time.Minute
	cacheOpTimeout  = 2 * time.Second
)

// Cache stores search results in redis. A nil *Cache, or one without a
// client, passes every search through.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *Metrics
	log     *zap.Logger
}

// NewRedisClient connects to redis. It returns nil when addr is empty or the
// server does not answer, and search then works without caching.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn("Failed to connect to Redis, web search will work without caching", zap.Error(err))
		client.Close()
		return nil
	}
	logger.Info("Connected to Redis cache", zap.String("addr", cfg.Addr))
	return client
}

// NewCache creates a cache over client. A ttl of zero or less uses ten minutes.
func NewCache(client *redis.Client, ttl time.Duration, metrics *Metrics, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, metrics: metrics, log: logger.Named("websearch_cache")}
}

// Wrap caches the results of s under provider.
func (c *Cache) Wrap(provider string, s graph.WebSearchCapability) graph.WebSearchCapability {
	if c == nil || c.client == nil {
		return s
	}
	return &cachedSearch{cache: c, provider: provider, next: s}
}

type cachedSearch struct {
	cache    *Cache
	provider string
	next     graph.WebSearchCapability
}

func (s *cachedSearch) Search(ctx context.Context, query string, numResults int, mode graph.SearchMode) ([]graph.WebResult, error) {
	key := cacheKey(s.provider, query, numResults, mode)
	if res, err := s.cache.get(ctx, key); err == nil {
		s.cache.metrics.hit()
		return res, nil
	} else if !errors.Is(err, redis.Nil) {
		s.cache.log.Warn("Cache read failed", zap.Error(err))
	}
	s.cache.metrics.miss()

	res, err := s.next.Search(ctx, query, numResults, mode)
	if err != nil {
		return nil, err
	}
	if err := s.cache.set(ctx, key, res); err != nil {
		s.cache.log.Warn("Failed to cache search results", zap.Error(err))
	}
	return res, nil
}

func (c *Cache) get(ctx context.Context, key string) ([]graph.WebResult, error) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var res []graph.WebResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Cache) set(ctx context.Context, key string, res []graph.WebResult) error {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// cacheKey is stable across case and surrounding whitespace of the query.
func cacheKey(provider, query string, numResults int, mode graph.SearchMode) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("websearch:%s:%s:%d:%s", provider, mode, numResults, hex.EncodeToString(sum[:8]))
}
