package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ResultStore keeps the latest results read from the result queue so the
// HTTP host can answer job status requests.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]BatchResult
	log     *zap.Logger
}

func NewResultStore(log *zap.Logger) *ResultStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultStore{results: make(map[string]BatchResult), log: log}
}

func (s *ResultStore) Put(res BatchResult) {
	s.mu.Lock()
	s.results[res.JobID] = res
	s.mu.Unlock()
}

func (s *ResultStore) Get(jobID string) (BatchResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[jobID]
	return res, ok
}

// Listen drains q's result list into the store until ctx is done.
func (s *ResultStore) Listen(ctx context.Context, q *RedisQueue, pollTimeout time.Duration) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := q.NextResult(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("read result failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if res == nil {
			continue
		}
		s.Put(*res)
		s.log.Info("job result received",
			zap.String("job_id", res.JobID),
			zap.String("status", res.Status),
			zap.String("run_id", res.RunID))
	}
}
