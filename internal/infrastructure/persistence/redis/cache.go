// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

var cacheTracer = otel.Tracer("redis.cache")

// 缓存键前缀，按项目分组便于整体失效
const (
	bibleIndexPrefix = "bibleidx"
	entityPrefix     = "entity"
)

// BibleIndexKey 项目设定集索引缓存键，size 参与键避免不同 top-N 互相污染
func BibleIndexKey(projectID string, size int) string {
	return fmt.Sprintf("%s:%s:%d", bibleIndexPrefix, projectID, size)
}

// Cache 读穿缓存，singleflight 合并并发装载
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{
		client: client,
	}
}

// lookup 读取缓存，未命中返回 redis.Nil
func (c *Cache) lookup(ctx context.Context, span trace.Span, key string) ([]byte, error) {
	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return val, nil
	}
	if err != redis.Nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	return nil, redis.Nil
}

// fill 执行 loader 并回填缓存，写入失败只影响下次命中率
func (c *Cache) fill(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	data, err := loader()
	if err != nil {
		return nil, err
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	_ = c.client.rdb.Set(ctx, key, bytes, ttl).Err()
	return bytes, nil
}

// GetOrLoadSafe 读穿缓存，并发请求同一键时只有一个会触发装载
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoadSafe",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if val, err := c.lookup(ctx, span, key); err == nil {
		return val, nil
	} else if err != redis.Nil {
		return nil, err
	}

	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		// 可能已被并发请求回填
		if val, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
			return val, nil
		}
		return c.fill(ctx, key, ttl, loader)
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]byte), nil
}

// InvalidateProject 使项目相关缓存失效，设定集或项目写入后调用
func (c *Cache) InvalidateProject(ctx context.Context, projectID string) error {
	patterns := []string{
		fmt.Sprintf("%s:%s:*", bibleIndexPrefix, projectID),
		fmt.Sprintf("%s:%s:*", entityPrefix, projectID),
	}
	for _, pattern := range patterns {
		if err := c.invalidatePattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

// invalidatePattern SCAN+DEL，键数量与项目规模同阶，不用 KEYS
func (c *Cache) invalidatePattern(ctx context.Context, pattern string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.InvalidatePattern",
		trace.WithAttributes(attribute.String("cache.pattern", pattern)))
	defer span.End()

	iter := c.client.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	span.SetAttributes(attribute.Int("cache.invalidated_count", len(keys)))
	return c.client.rdb.Del(ctx, keys...).Err()
}
