package domain

import "time"

// Transcript is the persisted conversation of a single session.
type Transcript struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTranscript creates an empty transcript for sessionID.
func NewTranscript(sessionID string) *Transcript {
	now := time.Now()
	return &Transcript{
		SessionID: sessionID,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing stored data.
func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	c := *t
	c.Messages = append([]Message(nil), t.Messages...)
	return &c
}
