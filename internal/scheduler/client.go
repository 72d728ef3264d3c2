package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opsboard_backend/platform/config"
	"opsboard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Client enqueues scan passes onto the asynq queue. It backs the on-demand
// scan endpoint; the recurring timer runs in-process and never touches Redis.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewClient connects an enqueue-only asynq client.
func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	opt, err := RedisClientOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// EnqueueScan queues one scan pass. Uniqueness over a short window collapses
// repeated clicks on the refresh action into a single pass.
func (c *Client) EnqueueScan(ctx context.Context, trigger string) error {
	task, err := NewScanTask(trigger)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(2),
		asynq.Unique(30*time.Second),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			c.log.Debug("scan already queued", "trigger", trigger)
			return nil
		}
		return fmt.Errorf("enqueue scan: %w", err)
	}

	c.log.Debug("scan enqueued", "task_id", info.ID, "trigger", trigger)
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
