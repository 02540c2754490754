package queue

import (
	"context"
	"sync"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/usecases"

	"go.uber.org/zap"
)

// BatchRunner runs one batch. usecases.OptimizeService satisfies it.
type BatchRunner interface {
	Optimize(ctx context.Context, records []entities.InputRecord, opts usecases.RunOptions) (*usecases.OptimizeResult, error)
}

// ResultPublisher receives the outcome of every job a worker finishes.
type ResultPublisher interface {
	PublishResult(ctx context.Context, res BatchResult) error
}

type Worker struct {
	ID      int             // worker id
	JobChan <-chan BatchJob // job queue
	Wg      *sync.WaitGroup
	Runner  BatchRunner
	Results ResultPublisher
	Log     *zap.Logger
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer w.Wg.Done()
		for {
			select {
			case job, ok := <-w.JobChan:
				if !ok {
					w.Log.Debug("job channel closed", zap.Int("worker", w.ID))
					return
				}
				select {
				case <-ctx.Done():
					w.Log.Warn("job cancelled", zap.Int("worker", w.ID), zap.String("job_id", job.ID))
					continue
				default:
					w.processJob(ctx, job)
				}
			case <-ctx.Done():
				w.Log.Debug("worker stopping", zap.Int("worker", w.ID))
				return
			}
		}
	}()
}

func (w *Worker) processJob(ctx context.Context, job BatchJob) {
	w.Log.Info("processing job",
		zap.Int("worker", w.ID),
		zap.String("job_id", job.ID),
		zap.Int("records", len(job.Records)),
		zap.Strings("formats", job.Formats))

	res, err := w.Runner.Optimize(ctx, job.Records, job.RunOptions())
	result := newBatchResult(job, res, err)
	result.WorkerID = w.ID

	if err != nil {
		w.Log.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
	} else {
		w.Log.Info("job succeeded", zap.String("job_id", job.ID), zap.String("status", result.Status))
	}

	if w.Results == nil {
		return
	}
	// publish even when ctx was cancelled mid-run so the producer learns the outcome
	if err := w.Results.PublishResult(context.WithoutCancel(ctx), result); err != nil {
		w.Log.Error("publish result failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}
