package storage

import "time"

type SessionState string

const (
	StateIdle            SessionState = "idle"
	StateAwaitingType    SessionState = "awaiting_type"
	StateAwaitingContent SessionState = "awaiting_content"
)

// Session is the per-user conversation state kept between messages.
// Entry content is never persisted: it lives in the in-memory content
// queue until the moment of submission.
type Session struct {
	State     SessionState
	EntryType string
	UpdatedAt time.Time
}
