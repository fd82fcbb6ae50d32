package chat

// State is the read-only view of a conversation handed to the presentation layer.
// Messages is always a copy of the underlying log.
type State struct {
	Messages []Message `json:"messages"`
	Busy     bool      `json:"busy"`
}

// Len returns the number of messages in the snapshot.
func (s State) Len() int {
	return len(s.Messages)
}
