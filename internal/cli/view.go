package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
)

const pendingIndicator = "Assistant is typing..."

// view prints assistant messages as they land in the store. User messages
// are already on screen because the user typed them.
type view struct {
	out      io.Writer
	markdown bool

	mu      sync.Mutex
	printed int
	busy    bool
}

func newView(out io.Writer, markdown bool) *view {
	return &view{out: out, markdown: markdown}
}

// Render is a store observer.
func (v *view) Render(state chat.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if state.Busy && !v.busy {
		fmt.Fprintln(v.out, pendingIndicator)
	}
	v.busy = state.Busy

	for _, msg := range state.Messages[min(v.printed, len(state.Messages)):] {
		if msg.Sender == chat.SenderAssistant {
			v.writeAssistant(msg.Text)
		}
	}
	v.printed = len(state.Messages)
}

// Assistant prints text that is not part of the conversation log.
func (v *view) Assistant(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeAssistant(text)
}

func (v *view) writeAssistant(text string) {
	fmt.Fprintf(v.out, "Assistant:\n%s\n", v.format(text))
}

func (v *view) format(text string) string {
	if !v.markdown {
		return text
	}
	rendered, err := glamour.Render(text, "dark")
	if err != nil {
		log.Warn().Err(err).Msg("markdown rendering failed")
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
