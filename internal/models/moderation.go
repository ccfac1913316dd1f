package models

import "time"

// ModerationEntry records one flagged message for the moderation view.
type ModerationEntry struct {
	ID        string    `json:"id"`
	Thread    ThreadRef `json:"thread"`
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
