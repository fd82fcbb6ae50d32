package chat

import "time"

// Sender identifies who authored a message in the thread.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is a single entry of the conversation thread. It is never mutated after it
// has been appended to a store.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage builds a user message stamped with at.
func NewUserMessage(text string, at time.Time) Message {
	return Message{Text: text, Sender: SenderUser, Timestamp: at}
}

// NewAssistantMessage builds an assistant message stamped with at.
func NewAssistantMessage(text string, at time.Time) Message {
	return Message{Text: text, Sender: SenderAssistant, Timestamp: at}
}
