package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/cardoctor/internal/cache"
	"github.com/hitoshi/cardoctor/internal/config"
	"github.com/hitoshi/cardoctor/internal/database"
	"github.com/hitoshi/cardoctor/internal/repository"
)

// storeConnectTimeout はストア接続と初期化に許容する時間。
const storeConnectTimeout = 10 * time.Second

// stores はプロセスが所有するストア接続と、そこから生成したリポジトリ。
// closeは起動時に開いた接続をすべて閉じる。
type stores struct {
	kind     database.Kind
	services repository.ServiceRepository
	orders   repository.OrderRepository
	pinger   repository.Pinger
	closers  []func() error
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("failed to close store connection", slog.String("error", err.Error()))
		}
	}
}

// openStores はDATABASE_URLのスキームに応じたドキュメントストアに接続し、
// リポジトリを構築する。REDIS_URLが設定されている場合はサービスカタログを
// Redisキャッシュ経由で読み込む。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	kind, err := database.DetectKind(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()

	s := &stores{kind: kind}

	switch kind {
	case database.KindPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.closers = append(s.closers, db.Close)

		if err := db.PingContext(ctx); err != nil {
			s.close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.services = repository.NewPostgresServiceRepo(db)
		s.orders = repository.NewPostgresOrderRepo(db)
		s.pinger = db

	case database.KindMongo:
		client, err := database.OpenMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error {
			return client.Disconnect(context.Background())
		})

		mdb := client.Database(cfg.DatabaseName)
		orders := repository.NewMongoOrderRepo(mdb)
		if err := orders.EnsureIndexes(ctx); err != nil {
			s.close()
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}

		s.services = repository.NewMongoServiceRepo(mdb)
		s.orders = orders
		s.pinger = database.MongoPinger{Client: client}
	}

	slog.Info("database connection established",
		slog.String("kind", string(kind)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if cfg.RedisURL != "" {
		cached, closeCache, err := newCachedServices(ctx, s.services, cfg)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, closeCache)
		s.services = cached
	}

	return s, nil
}

// newCachedServices はサービスリポジトリをRedisの読み込みキャッシュで包む。
// 起動時に既存のキャッシュエントリを破棄し、ストアの現在のカタログから読み直させる。
// 破棄に失敗した場合はWARNを記録して続行する。
func newCachedServices(ctx context.Context, next repository.ServiceRepository, cfg *config.Config) (*cache.ServiceCache, func() error, error) {
	client, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	cached := cache.NewServiceCache(next, client, cfg.ServiceCacheTTL)
	if err := cached.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate service catalog cache", slog.String("error", err.Error()))
	}

	slog.Info("service catalog cache enabled", slog.Duration("ttl", cfg.ServiceCacheTTL))
	return cached, client.Close, nil
}
