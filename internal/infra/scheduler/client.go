package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/leadflow/internal/entity"
)

const (
	DefaultQueue = "followups"
	maxRetry     = 3
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client schedules follow-up jobs as asynq tasks in Redis.
type Client struct {
	client enqueuer
	redis  *redis.Client
	queue  string
}

func NewClient(redisURL string) (*Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}
	ropt, _ := redis.ParseURL(redisURL)

	return &Client{
		client: asynq.NewClient(opt),
		redis:  redis.NewClient(ropt),
		queue:  DefaultQueue,
	}, nil
}

// Ping checks the Redis connection behind the task queue.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.redis.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.redis != nil {
		c.redis.Close()
	}
	return c.client.Close()
}

func (c *Client) PublishFollowUp(ctx context.Context, job entity.FollowUpJob, delay time.Duration) error {
	task, err := NewFollowUpTask(job)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(delay),
		asynq.Queue(c.queue),
		asynq.MaxRetry(maxRetry),
	)
	if err != nil {
		return fmt.Errorf("enqueue follow-up: %w", err)
	}
	return nil
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
