package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ravenhq/raven/internal/lifecycle"
	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/moderation"
	"github.com/ravenhq/raven/internal/queue"
)

// ModerationWorker classifies queued message text and reconciles the
// outcome against the shared store. Classification errors are already
// absorbed fail-open by the moderation client, so the only task failure
// mode left is a malformed payload or a store error.
type ModerationWorker struct {
	client  *moderation.Client
	manager *lifecycle.Manager
}

func NewModerationWorker(client *moderation.Client, manager *lifecycle.Manager) *ModerationWorker {
	return &ModerationWorker{client: client, manager: manager}
}

func (w *ModerationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ModerationCheckPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	thread := models.ThreadRef{
		Kind: models.ThreadKind(payload.ThreadKind),
		ID:   payload.ThreadID,
	}
	if err := thread.Validate(); err != nil {
		return fmt.Errorf("invalid thread ref: %w", err)
	}

	result := w.client.Classify(ctx, payload.Text)

	slog.Info("moderation check completed",
		"thread", thread.Key(),
		"message_id", payload.MessageID,
		"is_safe", result.IsSafe,
	)

	if err := w.manager.Reconcile(ctx, thread, payload.MessageID, result); err != nil {
		return fmt.Errorf("reconcile %s: %w", payload.MessageID, err)
	}
	return nil
}
