// Package cache はRedisを使ったサービスカタログの読み込みキャッシュを提供する。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/hitoshi/cardoctor/internal/repository"
	"github.com/redis/go-redis/v9"
)

// キープレフィックス
const keyPrefix = "cardoctor:services:"

// DefaultTTL はキャッシュエントリのデフォルト有効期間。
const DefaultTTL = 5 * time.Minute

// ServiceCache はServiceRepositoryをRedisで読み込みキャッシュするデコレータ。
// Redisの障害時は下位リポジトリにフォールバックし、リクエストは失敗させない。
type ServiceCache struct {
	next   repository.ServiceRepository
	client redis.UniversalClient
	ttl    time.Duration
}

var _ repository.ServiceRepository = (*ServiceCache)(nil)

// NewServiceCache はServiceCacheを生成する。ttlが0以下の場合はDefaultTTLを使用する。
func NewServiceCache(next repository.ServiceRepository, client redis.UniversalClient, ttl time.Duration) *ServiceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ServiceCache{next: next, client: client, ttl: ttl}
}

// NewRedisClient はredis:// 形式のURLからクライアントを生成する。
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// List は全サービスを返す。
func (c *ServiceCache) List(ctx context.Context) ([]*model.Service, error) {
	key := keyPrefix + "all"

	var services []*model.Service
	if c.load(ctx, key, &services) {
		return services, nil
	}

	services, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, services)
	return services, nil
}

// FindByID は指定IDのサービスを返す。見つからない結果はキャッシュしない。
func (c *ServiceCache) FindByID(ctx context.Context, id string) (*model.Service, error) {
	key := keyPrefix + id

	var service model.Service
	if c.load(ctx, key, &service) {
		return &service, nil
	}

	found, err := c.next.FindByID(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	c.store(ctx, key, found)
	return found, nil
}

// Invalidate はキャッシュ済みのサービスカタログを破棄する。
func (c *ServiceCache) Invalidate(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *ServiceCache) load(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("service cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("service cache entry is corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (c *ServiceCache) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to encode service cache entry", slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("service cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
