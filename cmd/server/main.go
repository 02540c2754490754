package main

import (
	"context"
	"fmt"
	"time"

	_ "image-optimizer/docs"

	"image-optimizer/internal/bootstrap"
	"image-optimizer/internal/delivery/http/handlers"
	"image-optimizer/internal/delivery/http/routers"
	"image-optimizer/internal/domain/repositories"
	"image-optimizer/internal/infrastructure/queue"
	"image-optimizer/internal/usecases"
	"image-optimizer/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	cleanupSchedule = "0 */5 * * * *"
	bodyLimit       = 256 * 1024 * 1024
	pollTimeout     = 5 * time.Second
)

func main() {
	fx.New(
		bootstrap.Core,
		fx.WithLogger(bootstrap.FxLogger),
		fx.Provide(
			newFiberApp,
			newCleanupService,
			newHandler,
		),
		fx.Invoke(
			routers.SetupOptimizeRoutes,
			startCleanup,
			startServer,
		),
	).Run()
}

func newFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: bodyLimit,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())
	return app
}

func newCleanupService(s repositories.BinaryStorage, cfg *config.Config, log *zap.Logger) usecases.CleanupService {
	return usecases.NewCleanupService(s, cfg.Storage.MaxAge, log)
}

// newHandler wires the async path only when ASYNC_ENABLED is set; the redis
// client and result listener live and die with the app.
func newHandler(lc fx.Lifecycle, svc usecases.OptimizeService, s repositories.BinaryStorage, cfg *config.Config, log *zap.Logger) *handlers.OptimizeHandler {
	if !cfg.Redis.Enabled {
		return handlers.NewOptimizeHandler(svc, s, cfg.Optimize, nil, nil, log)
	}

	q := queue.NewRedisQueue(bootstrap.NewRedisClient(lc, cfg, log))
	results := queue.NewResultStore(log)
	startResultListener(lc, q, results)

	return handlers.NewOptimizeHandler(svc, s, cfg.Optimize, q, results, log)
}

func startResultListener(lc fx.Lifecycle, q *queue.RedisQueue, results *queue.ResultStore) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go results.Listen(ctx, q, pollTimeout)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startCleanup(lc fx.Lifecycle, cleanup usecases.CleanupService, log *zap.Logger) error {
	c := cron.New(cron.WithSeconds())
	if _, err := cleanup.Schedule(c, cleanupSchedule); err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})
	log.Info("cleanup scheduled", zap.String("spec", cleanupSchedule))
	return nil
}

func startServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger) {
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("server starting", zap.String("addr", addr))
			go func() {
				if err := app.Listen(addr); err != nil {
					log.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("server shutting down")
			return app.ShutdownWithContext(ctx)
		},
	})
}
