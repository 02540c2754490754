package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type WorkerPool struct {
	JobChan chan BatchJob
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
}

// NewWorkerPool starts workerCount workers. Batches run concurrently across
// workers; a single batch is never split.
func NewWorkerPool(workerCount int, runner BatchRunner, results ResultPublisher, log *zap.Logger) *WorkerPool {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		JobChan: make(chan BatchJob, 100),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
	for i := 0; i < workerCount; i++ {
		worker := &Worker{
			ID:      i,
			JobChan: pool.JobChan,
			Wg:      &pool.wg,
			Runner:  runner,
			Results: results,
			Log:     log,
		}
		pool.wg.Add(1)
		worker.Start(pool.ctx)
	}
	return pool
}

func (p *WorkerPool) AddJob(job BatchJob) {
	p.JobChan <- job
}

// Consume feeds the pool from q until ctx is done.
func (p *WorkerPool) Consume(ctx context.Context, q *RedisQueue, pollTimeout time.Duration) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := q.Dequeue(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		select {
		case p.JobChan <- *job:
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown lets the workers drain the jobs already handed to the pool.
func (p *WorkerPool) Shutdown() {
	close(p.JobChan)
	p.wg.Wait()
	p.cancel()
}
