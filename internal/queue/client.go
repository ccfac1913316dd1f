package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ravenhq/raven/internal/config"
	"github.com/ravenhq/raven/internal/models"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Dispatch enqueues a moderation check, satisfying lifecycle.Dispatcher.
// A single attempt: the fail-open contract means a lost check resolves the
// message as safe rather than retrying.
func (c *Client) Dispatch(_ context.Context, thread models.ThreadRef, messageID, text string) error {
	return c.enqueue(TypeModerationCheck, ModerationCheckPayload{
		ThreadKind: string(thread.Kind),
		ThreadID:   thread.ID,
		MessageID:  messageID,
		Text:       text,
	}, asynq.MaxRetry(0), asynq.Timeout(time.Minute))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
