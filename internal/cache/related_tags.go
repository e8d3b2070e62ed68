package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
)

// RelatedTagsCache is a best-effort read-through cache for the hot
// related-tags lookup. Every method degrades to a miss or a no-op on
// redis trouble; callers never fail a request because of it.
type RelatedTagsCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	InvalidateTag(ctx context.Context, tagID string)
}

type relatedTagsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRelatedTagsCache(log *logger.Logger, ttl time.Duration) (RelatedTagsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &relatedTagsCache{
		log: log.With("service", "RelatedTagsCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

// Key builds the cache key for one related-tags query. The tag id leads
// so InvalidateTag can match every variant for that tag.
func Key(tagID string, minStrength float64, relType string) string {
	if relType == "" {
		relType = "any"
	}
	return fmt.Sprintf("related:%s:%.2f:%s", tagID, minStrength, relType)
}

func (c *relatedTagsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("Cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Debug("Cache payload unmarshal failed", "key", key, "error", err)
		return false
	}
	return true
}

func (c *relatedTagsCache) Set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Debug("Cache payload marshal failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("Cache set failed", "key", key, "error", err)
	}
}

// InvalidateTag drops every cached related-tags variant for one tag.
func (c *relatedTagsCache) InvalidateTag(ctx context.Context, tagID string) {
	pattern := fmt.Sprintf("related:%s:*", tagID)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Debug("Cache scan failed", "pattern", pattern, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Debug("Cache invalidate failed", "pattern", pattern, "error", err)
	}
}
