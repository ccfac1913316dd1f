package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Bio       string    `json:"bio"`
	JoinedAt  time.Time `json:"joined_at"`
	CommsCode string    `json:"comms_code"`
}

// Friend is a direct-message counterparty, identified by comms code.
type Friend struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	CommsCode   string `json:"comms_code"`
	LastMessage string `json:"last_message,omitempty"`
}
