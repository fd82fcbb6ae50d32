package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/ai"
)

// Phase is the state of the submission cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

func (p Phase) String() string {
	if p == PhaseSubmitting {
		return "submitting"
	}
	return "idle"
}

// Orchestrator drives one submission at a time: it records the user message, calls
// the remote client and records either the reply or a fallback. Submissions that
// arrive while a call is outstanding are dropped, never queued.
type Orchestrator struct {
	store   *Store
	client  ai.Client
	context string
	now     func() time.Time
	logger  zerolog.Logger

	mu    sync.Mutex
	phase Phase
	draft string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator wires an orchestrator to its store and remote client. systemContext
// is sent unchanged with every remote call.
func NewOrchestrator(store *Store, client ai.Client, systemContext string, opts ...Option) *Orchestrator {
	if client == nil {
		client = ai.Unavailable{}
	}
	o := &Orchestrator{
		store:   store,
		client:  client,
		context: systemContext,
		now:     time.Now,
		logger:  log.With().Str("component", "orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store returns the conversation store the orchestrator writes to.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// State returns the current conversation snapshot.
func (o *Orchestrator) State() chat.State {
	return o.store.State()
}

// Phase returns the current submission phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Draft returns the pending input buffer.
func (o *Orchestrator) Draft() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// SetDraft replaces the pending input buffer.
func (o *Orchestrator) SetDraft(text string) {
	o.mu.Lock()
	o.draft = text
	o.mu.Unlock()
}

// Submit runs a full cycle for raw and blocks until the reply or fallback has been
// appended. It reports false when the input was ignored.
func (o *Orchestrator) Submit(ctx context.Context, raw string) bool {
	if !o.begin(raw) {
		return false
	}
	o.run(ctx, raw)
	return true
}

// Start is the non-blocking form of Submit. The acceptance decision and the user
// message are applied before it returns; the remote call continues on a context that
// ignores the caller's cancellation. done is closed once the cycle is back to idle.
func (o *Orchestrator) Start(ctx context.Context, raw string) (done <-chan struct{}, accepted bool) {
	ch := make(chan struct{})
	if !o.begin(raw) {
		close(ch)
		return ch, false
	}

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(ch)
		o.run(runCtx, raw)
	}()
	return ch, true
}

// SubmitDraft submits the pending input buffer.
func (o *Orchestrator) SubmitDraft(ctx context.Context) bool {
	return o.Submit(ctx, o.Draft())
}

func (o *Orchestrator) begin(raw string) bool {
	o.mu.Lock()
	if isBlank(raw) {
		o.mu.Unlock()
		return false
	}
	if o.phase == PhaseSubmitting {
		o.mu.Unlock()
		o.logger.Debug().Msg("submission dropped, a reply is still pending")
		return false
	}
	o.phase = PhaseSubmitting
	o.draft = ""
	o.mu.Unlock()

	if err := o.store.Append(chat.NewUserMessage(raw, o.now())); err != nil {
		o.logger.Error().Err(err).Msg("failed to record user message")
	}
	o.store.SetBusy(true)
	return true
}

func (o *Orchestrator) run(ctx context.Context, raw string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("submission cycle panicked")
		}
		o.finish()
	}()

	text := o.reply(ctx, raw)
	if err := o.store.Append(chat.NewAssistantMessage(text, o.now())); err != nil {
		o.logger.Error().Err(err).Msg("failed to record assistant message")
	}
}

func (o *Orchestrator) reply(ctx context.Context, raw string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("remote call panicked")
			text = GenericFallback
		}
	}()

	started := o.now()
	resp, err := o.client.Generate(ctx, ai.Request{Message: raw, Context: o.context})
	if err != nil {
		category := Classify(err)
		o.logger.Warn().Err(err).Stringer("category", category).Dur("elapsed", o.now().Sub(started)).Msg("remote call failed")
		return category.Text()
	}
	if resp.Response == "" {
		o.logger.Warn().Msg("remote call returned an empty reply")
		return GenericFallback
	}

	o.logger.Debug().Int("length", len(resp.Response)).Dur("elapsed", o.now().Sub(started)).Msg("remote call succeeded")
	return resp.Response
}

func (o *Orchestrator) finish() {
	// busy must clear before the phase returns to idle
	defer func() {
		o.mu.Lock()
		o.phase = PhaseIdle
		o.mu.Unlock()
	}()
	o.store.SetBusy(false)
}
