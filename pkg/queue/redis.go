package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tableprep/tableprep-go/pkg/models"
)

// jobQueueKey is the Redis list shared by the API server, the orchestrator
// and the worker fleet.
const jobQueueKey = "tableprep:jobs"

// RedisQueue provides Redis-backed job queue operations for distributed
// deployments
type RedisQueue struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisQueue connects to Redis at addr (host:port) and verifies the
// connection
func NewRedisQueue(addr string) (*RedisQueue, error) {
	opt, err := redis.ParseURL(fmt.Sprintf("redis://%s", addr))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisQueue{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// Enqueue pushes a job onto the shared queue
func (q *RedisQueue) Enqueue(job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(q.ctx, jobQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// Dequeue pops the next job without blocking, or returns nil when the
// queue is empty
func (q *RedisQueue) Dequeue() (*models.Job, error) {
	data, err := q.client.LPop(q.ctx, jobQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	var job models.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// DequeueBlocking waits up to timeout for the next job. It returns nil
// when the wait times out so callers can loop on it.
func (q *RedisQueue) DequeueBlocking(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	result, err := q.client.BLPop(ctx, timeout, jobQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	// BLPop returns [key, value]
	var job models.Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// QueueLength returns the current length of the shared queue
func (q *RedisQueue) QueueLength() (int64, error) {
	length, err := q.client.LLen(q.ctx, jobQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}

// Close closes the Redis connection
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
