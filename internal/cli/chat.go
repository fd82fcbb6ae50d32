package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	input "github.com/tcnksm/go-input"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/conversation"
)

var exitCommands = map[string]struct{}{
	"/exit": {},
	"/quit": {},
	"exit":  {},
	"quit":  {},
}

func newChatCommand(opts *rootOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd.Context(), opts.cfg, nil)
			if err != nil {
				return err
			}

			markdown := !plain && isatty.IsTerminal(os.Stdout.Fd())
			repl := newREPL(sess.orchestrator, cmd.InOrStdin(), cmd.OutOrStdout(), markdown)
			return repl.Run(cmd.Context(), sess.profile.OpeningLine)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "disable markdown rendering of replies")
	return cmd
}

// repl drives one terminal conversation. Input is read with go-input and
// every store change is rendered by the attached view.
type repl struct {
	orch *conversation.Orchestrator
	in   *eofReader
	ui   *input.UI
	view *view
}

// eofReader remembers that the underlying reader is exhausted. go-input
// reports EOF as an empty line.
type eofReader struct {
	r   io.Reader
	eof atomic.Bool
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if errors.Is(err, io.EOF) {
		e.eof.Store(true)
	}
	return n, err
}

func newREPL(orch *conversation.Orchestrator, in io.Reader, out io.Writer, markdown bool) *repl {
	reader := &eofReader{r: in}
	return &repl{
		orch: orch,
		in:   reader,
		ui:   &input.UI{Reader: reader, Writer: out},
		view: newView(out, markdown),
	}
}

// Run reads lines until EOF, an interrupt or an exit command.
func (r *repl) Run(ctx context.Context, openingLine string) error {
	unsubscribe := r.orch.Store().Subscribe(r.view.Render)
	defer unsubscribe()

	if openingLine != "" {
		r.view.Assistant(openingLine)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.ui.Ask("You", &input.Options{HideOrder: true})
		if err != nil {
			if errors.Is(err, input.ErrInterrupted) {
				fmt.Fprintln(r.view.out, "bye")
				return nil
			}
			log.Debug().Err(err).Msg("terminal input closed")
			return nil
		}

		if line == "" && r.in.eof.Load() {
			return nil
		}

		if _, ok := exitCommands[strings.TrimSpace(strings.ToLower(line))]; ok {
			fmt.Fprintln(r.view.out, "bye")
			return nil
		}

		r.orch.SetDraft(line)
		r.orch.SubmitDraft(ctx)
	}
}
