package queue

const (
	TypeModerationCheck = "moderation:check"
)

// ModerationCheckPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types so the wire format is stable even if
// the models change.
type ModerationCheckPayload struct {
	ThreadKind string `json:"thread_kind"`
	ThreadID   string `json:"thread_id"`
	MessageID  string `json:"message_id"`
	Text       string `json:"text"`
}
