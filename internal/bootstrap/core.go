// Package bootstrap holds the fx providers shared by the server and worker
// hosts.
package bootstrap

import (
	"context"
	"fmt"

	"image-optimizer/internal/domain/repositories"
	"image-optimizer/internal/infrastructure/catalog"
	"image-optimizer/internal/infrastructure/codec"
	"image-optimizer/internal/infrastructure/db"
	"image-optimizer/internal/infrastructure/processor"
	"image-optimizer/internal/infrastructure/queue"
	infra_repo "image-optimizer/internal/infrastructure/repositories"
	"image-optimizer/internal/infrastructure/storage"
	"image-optimizer/internal/usecases"
	"image-optimizer/pkg/config"
	"image-optimizer/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Core provides config, logging, storage, the codec and the optimize service.
var Core = fx.Module("core",
	fx.Provide(
		config.LoadConfig,
		NewLogger,
		NewStorage,
		NewCatalog,
		NewCodec,
		NewItemProcessor,
		usecases.NewBatchOrchestrator,
		NewRunRepository,
		NewOptimizeService,
	),
)

// Redis provides the job queue. Only hosts that need it include it.
var Redis = fx.Module("redis",
	fx.Provide(
		NewRedisClient,
		queue.NewRedisQueue,
	),
)

func FxLogger(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
}

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel)
}

func NewStorage(cfg *config.Config, log *zap.Logger) (repositories.BinaryStorage, error) {
	log.Info("storage driver", zap.String("driver", cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case "local":
		return storage.NewLocalStorage(cfg.Storage.Dir)
	case "s3":
		return storage.NewS3Storage(context.Background(), cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.S3Prefix)
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func NewCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return cfg.LoadCatalog()
}

func NewCodec() repositories.Codec {
	return codec.New()
}

func NewItemProcessor(c repositories.Codec, s repositories.BinaryStorage, cat *catalog.Catalog, cfg *config.Config, log *zap.Logger) usecases.ItemProcessor {
	return processor.NewItemProcessor(c, s, cat, processor.Options{
		MaxConcurrency: cfg.Optimize.MaxConcurrency,
		EncodeTimeout:  cfg.Optimize.EncodeTimeout,
		MaxFileSize:    cfg.Optimize.MaxFileSize,
	}, log)
}

// NewRunRepository connects to postgres when DB_ENABLED is set. Without it
// the run history is disabled and a nil repository is provided.
func NewRunRepository(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (repositories.RunRepository, error) {
	if !cfg.Database.Enabled {
		log.Info("run history disabled")
		return nil, nil
	}
	database, err := db.NewPostgresDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigration {
		if err := db.MigrateUp(context.Background(), database); err != nil {
			return nil, err
		}
		log.Info("database migrated")
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return sqlDB.Close() }})
	return infra_repo.NewRunRepository(database), nil
}

func NewOptimizeService(orchestrator *usecases.BatchOrchestrator, s repositories.BinaryStorage, runs repositories.RunRepository, cat *catalog.Catalog, log *zap.Logger) usecases.OptimizeService {
	return usecases.NewOptimizeService(orchestrator, s, runs, cat, log)
}

func NewRedisClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr(), err)
			}
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr()))
			return nil
		},
		OnStop: func(context.Context) error { return rdb.Close() },
	})
	return rdb
}
