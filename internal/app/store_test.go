package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hitoshi/cardoctor/internal/config"
	"github.com/hitoshi/cardoctor/internal/mocks"
	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewCachedServices_InvalidURL_ReturnsError(t *testing.T) {
	_, _, err := newCachedServices(context.Background(), nil, &config.Config{RedisURL: "http://localhost:6379"})
	assert.Error(t, err)
}

// Redisに接続できなくても起動は続け、読み込みはストアから行う
func TestNewCachedServices_RedisDown_StillServes(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockServiceRepository(ctrl)
	services := []*model.Service{{ID: "s1", Details: map[string]any{"title": "Oil change"}}}
	next.EXPECT().List(gomock.Any()).Return(services, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cached, closeCache, err := newCachedServices(ctx, next, &config.Config{
		RedisURL:        "redis://127.0.0.1:1/0?max_retries=-1&dial_timeout=100ms",
		ServiceCacheTTL: time.Minute,
	})
	require.NoError(t, err)
	defer closeCache()

	got, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, services, got)
}

// 起動時に前回のプロセスが残したカタログを破棄する
func TestNewCachedServices_DropsStaleCatalog(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis is not available: %v", err)
	}

	const staleKey = "cardoctor:services:all"
	require.NoError(t, client.Set(ctx, staleKey, `[{"_id":"old","title":"Removed service"}]`, time.Hour).Err())

	ctrl := gomock.NewController(t)
	next := mocks.NewMockServiceRepository(ctrl)
	fresh := []*model.Service{{ID: "s1", Details: map[string]any{"title": "Oil change"}}}
	next.EXPECT().List(gomock.Any()).Return(fresh, nil)

	cached, closeCache, err := newCachedServices(ctx, next, &config.Config{RedisURL: url, ServiceCacheTTL: time.Minute})
	require.NoError(t, err)
	defer closeCache()
	t.Cleanup(func() { client.Del(context.Background(), staleKey) })

	got, err := cached.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
}
