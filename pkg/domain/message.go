package domain

import "time"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a chat transcript.
type Message struct {
	Role      Role      `json:"role" mapstructure:"role"`
	Content   string    `json:"content" mapstructure:"content"`
	Timestamp time.Time `json:"timestamp" mapstructure:"timestamp"`
}

// NewMessage stamps a message with the current time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// LastN returns the trailing n messages of history (all of them if n <= 0 or
// history is shorter). The returned slice is a copy.
func LastN(history []Message, n int) []Message {
	if n <= 0 || n >= len(history) {
		return append([]Message(nil), history...)
	}
	return append([]Message(nil), history[len(history)-n:]...)
}
