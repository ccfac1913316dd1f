package models

import (
	"fmt"
	"time"
)

// MessageStatus tracks a message through the moderation pipeline.
// "sending" is the only non-terminal state: reconciliation moves a message
// to exactly one of "sent" or "flagged" and never touches it again.
type MessageStatus string

const (
	StatusSending MessageStatus = "sending"
	StatusSent    MessageStatus = "sent"
	StatusFlagged MessageStatus = "flagged"
)

// Terminal reports whether the status can no longer change.
func (s MessageStatus) Terminal() bool {
	return s == StatusSent || s == StatusFlagged
}

// ThreadKind distinguishes the two message destinations.
type ThreadKind string

const (
	ThreadHouse  ThreadKind = "house"
	ThreadDirect ThreadKind = "direct"
)

// ThreadRef identifies a message destination: a house channel or a direct
// conversation with one friend. A message belongs to exactly one thread.
type ThreadRef struct {
	Kind ThreadKind `json:"kind"`
	ID   string     `json:"id"`
}

func HouseThread(houseID string) ThreadRef {
	return ThreadRef{Kind: ThreadHouse, ID: houseID}
}

func DirectThread(friendID string) ThreadRef {
	return ThreadRef{Kind: ThreadDirect, ID: friendID}
}

func (t ThreadRef) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("thread id is required")
	}
	switch t.Kind {
	case ThreadHouse, ThreadDirect:
		return nil
	default:
		return fmt.Errorf("unknown thread kind %q", t.Kind)
	}
}

// Key is the storage key under which the thread's message collection lives.
func (t ThreadRef) Key() string {
	return fmt.Sprintf("messages:%s:%s", t.Kind, t.ID)
}

// Message is one entry in a thread's collection.
type Message struct {
	ID           string         `json:"id"`
	SenderID     string         `json:"sender_id"`
	SenderName   string         `json:"sender_name"`
	SenderAvatar string         `json:"sender_avatar"`
	Content      string         `json:"content"`
	Timestamp    time.Time      `json:"timestamp"`
	Reactions    map[string]int `json:"reactions,omitempty"`
	Status       MessageStatus  `json:"status"`
}
