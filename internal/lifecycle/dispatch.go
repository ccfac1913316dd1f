package lifecycle

import (
	"context"
	"log/slog"

	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/moderation"
)

// Reconciler receives moderation outcomes. *Manager satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context, thread models.ThreadRef, messageID string, result moderation.Result) error
}

// AsyncDispatcher classifies in-process on a fresh goroutine and feeds the
// result back through the bound Reconciler. It is the dispatch path when no
// task queue is configured.
type AsyncDispatcher struct {
	client *moderation.Client
	rec    Reconciler
}

func NewAsyncDispatcher(client *moderation.Client) *AsyncDispatcher {
	return &AsyncDispatcher{client: client}
}

// Bind wires the reconciler. Must be called before the first Dispatch.
func (d *AsyncDispatcher) Bind(rec Reconciler) {
	d.rec = rec
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, thread models.ThreadRef, messageID, text string) error {
	go func() {
		// Classification outlives the originating request.
		result := d.client.Classify(context.Background(), text)
		if err := d.rec.Reconcile(context.Background(), thread, messageID, result); err != nil {
			slog.Warn("reconciliation failed",
				"thread", thread.Key(),
				"message_id", messageID,
				"error", err,
			)
		}
	}()
	return nil
}
