package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue moves BatchJobs and BatchResults through two Redis lists. Jobs
// are LPUSHed and BRPOPed, so the oldest job is served first.
type RedisQueue struct {
	rdb       *redis.Client
	jobKey    string
	resultKey string
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, jobKey: JobQueueKey, resultKey: ResultQueueKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job BatchJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	payload, err := SerializeJob(job)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.jobKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job. It returns nil, nil when the
// timeout elapses with an empty queue.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*BatchJob, error) {
	val, err := q.rdb.BRPop(ctx, timeout, q.jobKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DeserializeJob(val[1])
}

func (q *RedisQueue) PublishResult(ctx context.Context, res BatchResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	return q.rdb.LPush(ctx, q.resultKey, payload).Err()
}

// NextResult blocks up to timeout for the next published result. It returns
// nil, nil on timeout.
func (q *RedisQueue) NextResult(ctx context.Context, timeout time.Duration) (*BatchResult, error) {
	val, err := q.rdb.BRPop(ctx, timeout, q.resultKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DeserializeResult(val[1])
}

// Pending reports how many jobs wait in the queue.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.jobKey).Result()
}
