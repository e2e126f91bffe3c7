package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nerdneilsfield/kiosk-translate/internal/cachestore"
	"github.com/nerdneilsfield/kiosk-translate/internal/config"
	"github.com/nerdneilsfield/kiosk-translate/internal/gateway"
	"github.com/nerdneilsfield/kiosk-translate/internal/stats"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/factory"
	providerstats "github.com/nerdneilsfield/kiosk-translate/pkg/providers/stats"
	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"go.uber.org/zap"
)

// runtime 网关运行所需的全部组件
type runtime struct {
	service *gateway.Service
	db      *stats.Database   // 可能为 nil
	store   *cachestore.Store // 可能为 nil
	logger  *zap.Logger
}

// newRuntime 按配置组装提供商、统计数据库、持久化缓存和网关
func newRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*runtime, error) {
	rt := &runtime{logger: log}

	f := factory.New(factory.Options{
		Timeout:    cfg.Translation.UpstreamTimeout,
		MaxRetries: cfg.Translation.MaxRetries,
	})
	upstream, err := f.CreateProvider(cfg.Translation.Provider, cfg.Provider())
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	opts := gateway.Options{
		CacheCapacity:   cfg.Translation.CacheCapacity,
		MaxBatchSize:    cfg.Translation.MaxBatchSize,
		UpstreamTimeout: cfg.Translation.UpstreamTimeout,
		Enabled:         cfg.Translation.Enabled,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
	}

	var recorder providerstats.Recorder
	if cfg.Translation.StatsFile != "" {
		db, err := stats.NewDatabase(cfg.Translation.StatsFile, log.Named("stats"))
		if err != nil {
			return nil, err
		}
		rt.db = db
		recorder = db
		opts.Recorder = db
	}
	provider := providerstats.NewStatisticsMiddleware(upstream, recorder)

	var warm []translation.CacheEntry
	if cfg.Translation.CacheDB != "" {
		store, err := cachestore.Open(cfg.Translation.CacheDB)
		if err != nil {
			return nil, err
		}
		rt.store = store
		opts.Store = store

		entries, err := store.Load(ctx, cfg.Translation.CacheCapacity)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to load cache: %w", err)
		}
		warm = entries
	}

	rt.service = gateway.New(provider, opts, log.Named("gateway"))
	if rt.store != nil {
		rt.service.Warm(warm)
	}

	log.Info("translation gateway ready",
		zap.String("provider", upstream.GetName()),
		zap.Bool("enabled", cfg.Translation.Enabled),
		zap.Int("cache_capacity", cfg.Translation.CacheCapacity),
		zap.Int("max_batch_size", cfg.Translation.MaxBatchSize),
		zap.Duration("upstream_timeout", cfg.Translation.UpstreamTimeout))
	return rt, nil
}

// statsSource 网关 stats 接口的数据库快照
func (rt *runtime) statsSource() gateway.StatsSource {
	if rt.db == nil {
		return nil
	}
	return gateway.StatsSourceFunc(func() any { return rt.db.GetStats() })
}

// Close 保存统计数据并关闭缓存数据库
func (rt *runtime) Close() error {
	var errs []error
	if rt.db != nil {
		if err := rt.db.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// defaultStatsPath 未配置 stats_file 时 stats 命令读取的位置
func defaultStatsPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "kiosk-translate", "statistics.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".kiosk", "statistics.json")
	}
	return "./kiosk_stats.json"
}
