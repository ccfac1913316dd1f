// Package lifecycle owns the path of a message from user intent to its
// terminal display state: optimistic insert, out-of-band moderation, and
// reconciliation of the result against current store state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/moderation"
	"github.com/ravenhq/raven/internal/permissions"
	"github.com/ravenhq/raven/internal/store"
)

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrForbidden    = errors.New("acting user lacks the required capability")
)

// Redaction markers written over flagged content, per thread kind.
const (
	houseRedaction  = "[TRANSMISSION BLOCKED]"
	directRedaction = "[FLAGGED: VULGARITY]"
)

// Dispatcher hands text off for out-of-band classification. The eventual
// result is fed back through Reconcile, correlated only by thread and
// message id.
type Dispatcher interface {
	Dispatch(ctx context.Context, thread models.ThreadRef, messageID, text string) error
}

// Manager orchestrates send, reconcile, delete, and react over a thread's
// message collection.
//
// Every mutation is a read-current/modify/write-whole-collection cycle
// executed through store.UpdateMessages, which each backend makes atomic
// across processes. The API's sends and the worker's reconciliations
// therefore never overwrite each other, and Reconcile always patches the
// collection as it exists at resolution time, never a copy captured at
// send time.
type Manager struct {
	store    *store.Store
	dispatch Dispatcher

	now   func() time.Time
	newID func() string
}

func NewManager(st *store.Store, dispatch Dispatcher) *Manager {
	return &Manager{
		store:    st,
		dispatch: dispatch,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Send validates and appends a message with status "sending", observable
// immediately, then dispatches moderation without blocking the caller. If
// dispatch itself fails the message is resolved fail-open on the spot.
func (m *Manager) Send(ctx context.Context, thread models.ThreadRef, author models.User, text string) (models.Message, error) {
	if err := thread.Validate(); err != nil {
		return models.Message{}, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Message{}, ErrEmptyMessage
	}

	msg := models.Message{
		ID:           m.newID(),
		SenderID:     author.ID,
		SenderName:   author.Username,
		SenderAvatar: author.Avatar,
		Content:      trimmed,
		Timestamp:    m.now(),
		Status:       models.StatusSending,
	}

	err := m.store.UpdateMessages(ctx, thread, func(msgs []models.Message) ([]models.Message, error) {
		return append(msgs, msg), nil
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}

	if thread.Kind == models.ThreadDirect {
		if err := m.updateFriendPreview(ctx, thread.ID, trimmed); err != nil {
			slog.Warn("failed to update friend preview", "friend_id", thread.ID, "error", err)
		}
	}

	if err := m.dispatch.Dispatch(ctx, thread, msg.ID, trimmed); err != nil {
		slog.Warn("moderation dispatch failed, resolving fail-open",
			"thread", thread.Key(),
			"message_id", msg.ID,
			"error", err,
		)
		if rerr := m.Reconcile(ctx, thread, msg.ID, moderation.Result{IsSafe: true}); rerr != nil {
			return msg, fmt.Errorf("fail-open reconcile: %w", rerr)
		}
	}

	return msg, nil
}

// Reconcile applies a moderation result to one message, identified by id
// against the thread's current collection. A message that is gone or
// already terminal is left alone: reconciliation never resurrects deleted
// messages and never writes a terminal state twice.
func (m *Manager) Reconcile(ctx context.Context, thread models.ThreadRef, messageID string, result moderation.Result) error {
	var flagged *models.Message

	err := m.store.UpdateMessages(ctx, thread, func(msgs []models.Message) ([]models.Message, error) {
		for i := range msgs {
			if msgs[i].ID != messageID || msgs[i].Status != models.StatusSending {
				continue
			}
			if result.IsSafe {
				msgs[i].Status = models.StatusSent
			} else {
				msgs[i].Status = models.StatusFlagged
				msgs[i].Content = redactionMarker(thread.Kind)
				copied := msgs[i]
				flagged = &copied
			}
			break
		}
		return msgs, nil
	})
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if flagged != nil {
		m.recordFlagged(ctx, thread, *flagged, result.Reason)
	}
	return nil
}

// Delete removes a message from a house thread if the acting user holds
// the delete-messages capability. Deleting an absent message is a no-op.
// Direct threads offer no deletion.
func (m *Manager) Delete(ctx context.Context, thread models.ThreadRef, messageID, actingUserID string) error {
	if err := thread.Validate(); err != nil {
		return err
	}
	if thread.Kind != models.ThreadHouse {
		return ErrForbidden
	}

	house, err := m.store.GetHouse(ctx, thread.ID)
	if err != nil {
		return fmt.Errorf("load house %s: %w", thread.ID, err)
	}
	if !permissions.HasCapability(house, actingUserID, permissions.PermDeleteMessages) {
		return ErrForbidden
	}

	err = m.store.UpdateMessages(ctx, thread, func(msgs []models.Message) ([]models.Message, error) {
		kept := msgs[:0]
		for _, msg := range msgs {
			if msg.ID != messageID {
				kept = append(kept, msg)
			}
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// React bumps the emoji counter on a message. Reacting to a message that
// no longer exists is a silent no-op.
func (m *Manager) React(ctx context.Context, thread models.ThreadRef, messageID, emoji string) error {
	if err := thread.Validate(); err != nil {
		return err
	}
	if emoji == "" {
		return errors.New("emoji is required")
	}

	err := m.store.UpdateMessages(ctx, thread, func(msgs []models.Message) ([]models.Message, error) {
		for i := range msgs {
			if msgs[i].ID != messageID {
				continue
			}
			if msgs[i].Reactions == nil {
				msgs[i].Reactions = make(map[string]int)
			}
			msgs[i].Reactions[emoji]++
			break
		}
		return msgs, nil
	})
	if err != nil {
		return fmt.Errorf("react: %w", err)
	}
	return nil
}

// Messages returns the current collection for a thread.
func (m *Manager) Messages(ctx context.Context, thread models.ThreadRef) ([]models.Message, error) {
	if err := thread.Validate(); err != nil {
		return nil, err
	}
	return m.store.GetMessages(ctx, thread)
}

func (m *Manager) updateFriendPreview(ctx context.Context, friendID, preview string) error {
	return m.store.UpdateFriends(ctx, func(friends []models.Friend) ([]models.Friend, error) {
		for i := range friends {
			if friends[i].ID == friendID {
				friends[i].LastMessage = preview
				break
			}
		}
		return friends, nil
	})
}

// recordFlagged appends to the moderation log. Log failures are not allowed
// to fail reconciliation.
func (m *Manager) recordFlagged(ctx context.Context, thread models.ThreadRef, msg models.Message, reason string) {
	err := m.store.AppendModerationEntry(ctx, models.ModerationEntry{
		ID:        m.newID(),
		Thread:    thread,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Reason:    reason,
		CreatedAt: m.now(),
	})
	if err != nil {
		slog.Warn("failed to record moderation entry", "message_id", msg.ID, "error", err)
	}
	slog.Info("message flagged",
		"thread", thread.Key(),
		"message_id", msg.ID,
		"sender_id", msg.SenderID,
		"reason", reason,
	)
}

func redactionMarker(kind models.ThreadKind) string {
	if kind == models.ThreadDirect {
		return directRedaction
	}
	return houseRedaction
}
