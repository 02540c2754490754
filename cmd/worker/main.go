package main

import (
	"context"
	"time"

	"image-optimizer/internal/bootstrap"
	"image-optimizer/internal/infrastructure/queue"
	"image-optimizer/internal/usecases"
	"image-optimizer/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const pollTimeout = 5 * time.Second

func main() {
	fx.New(
		bootstrap.Core,
		bootstrap.Redis,
		fx.WithLogger(bootstrap.FxLogger),
		fx.Invoke(startWorkers),
	).Run()
}

// startWorkers pulls batches from optimize_queue and pushes every outcome to
// optimize_results. On stop the consumer quits first, then the pool drains.
func startWorkers(lc fx.Lifecycle, svc usecases.OptimizeService, q *queue.RedisQueue, cfg *config.Config, log *zap.Logger) {
	pool := queue.NewWorkerPool(cfg.Worker.Count, svc, q, log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("worker pool started", zap.Int("workers", cfg.Worker.Count), zap.String("queue", queue.JobQueueKey))
			go func() {
				defer close(done)
				pool.Consume(ctx, q, pollTimeout)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			pool.Shutdown()
			log.Info("worker pool stopped")
			return nil
		},
	})
}
