package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/hitoshi/cardoctor/internal/mocks"
	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/hitoshi/cardoctor/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// unreachableClient は接続できないRedisクライアントを返す。
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

// setupTestRedis はTEST_REDIS_URLのRedisに接続する。未設定または接続不可の場合はスキップする。
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	client, err := NewRedisClient(url)
	require.NoError(t, err)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis is not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient("http://localhost:6379")
	assert.Error(t, err)
}

func TestNewServiceCache_DefaultTTL(t *testing.T) {
	c := NewServiceCache(nil, unreachableClient(t), 0)
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestServiceCache_FallsBackWhenRedisUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockServiceRepository(ctrl)
	services := []*model.Service{{ID: "s1", Details: map[string]any{"title": "Oil change"}}}
	next.EXPECT().List(gomock.Any()).Return(services, nil).Times(2)
	next.EXPECT().FindByID(gomock.Any(), "s1").Return(services[0], nil)

	c := NewServiceCache(next, unreachableClient(t), time.Minute)
	ctx := context.Background()

	for range 2 {
		got, err := c.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, services, got)
	}

	got, err := c.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Oil change", got.Details["title"])
}

func TestServiceCache_PropagatesStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockServiceRepository(ctrl)
	next.EXPECT().FindByID(gomock.Any(), "bad").Return(nil, repository.ErrInvalidID)
	next.EXPECT().List(gomock.Any()).Return(nil, errors.New("store down"))

	c := NewServiceCache(next, unreachableClient(t), time.Minute)

	_, err := c.FindByID(context.Background(), "bad")
	assert.ErrorIs(t, err, repository.ErrInvalidID)

	_, err = c.List(context.Background())
	assert.EqualError(t, err, "store down")
}

func TestServiceCache_ReadThrough(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockServiceRepository(ctrl)
	services := []*model.Service{{ID: "s1", Details: map[string]any{"title": "Oil change", "price": "20.00", "rating": 4.5}}}
	// 2回目以降はRedisから返るため、下位リポジトリは1回ずつしか呼ばれない
	next.EXPECT().List(gomock.Any()).Return(services, nil).Times(1)
	next.EXPECT().FindByID(gomock.Any(), "s1").Return(services[0], nil).Times(1)
	next.EXPECT().FindByID(gomock.Any(), "missing").Return(nil, nil).Times(2)

	c := NewServiceCache(next, client, time.Minute)
	require.NoError(t, c.Invalidate(ctx))
	t.Cleanup(func() { c.Invalidate(context.Background()) })

	for range 2 {
		got, err := c.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "s1", got[0].ID)

		one, err := c.FindByID(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "20.00", one.Details["price"])
		assert.Equal(t, 4.5, one.Details["rating"])

		missing, err := c.FindByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, missing)
	}

	ttl := client.TTL(ctx, keyPrefix+"all").Val()
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}
