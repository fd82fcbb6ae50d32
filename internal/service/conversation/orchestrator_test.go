package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/ai"
)

const testContext = "You are a helpful insurance assistant. Defer final decisions to a licensed agent."

type fakeClient struct {
	mu       sync.Mutex
	requests []ai.Request
	ctxErrs  []error

	reply   string
	err     error
	panicV  any
	release chan struct{}
	started chan struct{}
	during  func()
}

func (f *fakeClient) Generate(ctx context.Context, req ai.Request) (ai.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()

	if f.during != nil {
		f.during()
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.panicV != nil {
		panic(f.panicV)
	}
	if f.err != nil {
		return ai.Response{}, f.err
	}
	return ai.Response{Response: f.reply}, nil
}

func (f *fakeClient) calls() []ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ai.Request(nil), f.requests...)
}

func newTestOrchestrator(client ai.Client) (*Orchestrator, *Store) {
	store := NewStore()
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	orch := NewOrchestrator(store, client, testContext,
		WithClock(func() time.Time { return now }),
		WithLogger(zerolog.Nop()),
	)
	return orch, store
}

func TestSubmitSuccessfulReply(t *testing.T) {
	client := &fakeClient{reply: "Comprehensive coverage includes..."}
	orch, store := newTestOrchestrator(client)

	accepted := orch.Submit(context.Background(), "What does comprehensive coverage include?")
	require.True(t, accepted)

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.SenderUser, msgs[0].Sender)
	assert.Equal(t, "What does comprehensive coverage include?", msgs[0].Text)
	assert.Equal(t, chat.SenderAssistant, msgs[1].Sender)
	assert.Equal(t, "Comprehensive coverage includes...", msgs[1].Text)
	assert.False(t, store.Busy())
	assert.Equal(t, PhaseIdle, orch.Phase())

	calls := client.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ai.Request{Message: "What does comprehensive coverage include?", Context: testContext}, calls[0])
}

func TestSubmitRetryableFailure(t *testing.T) {
	client := &fakeClient{err: errors.New(`Edge Function returned a non-2xx status code {"retryable": true}`)}
	orch, store := newTestOrchestrator(client)

	require.True(t, orch.Submit(context.Background(), "Hi"))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RetryableFallback, msgs[1].Text)
	assert.Equal(t, chat.SenderAssistant, msgs[1].Sender)
	assert.False(t, store.Busy())
}

func TestSubmitTypedRetryableFailure(t *testing.T) {
	client := &fakeClient{err: ai.NewError(errors.New("overloaded"), 503, true)}
	orch, store := newTestOrchestrator(client)

	require.True(t, orch.Submit(context.Background(), "Hi"))
	assert.Equal(t, RetryableFallback, store.Messages()[1].Text)
}

func TestSubmitNetworkFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("dial tcp 10.0.0.1:443: connection refused")}
	orch, store := newTestOrchestrator(client)

	require.True(t, orch.Submit(context.Background(), "Hi"))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, GenericFallback, msgs[1].Text)
	assert.NotContains(t, msgs[1].Text, "connection refused")
	assert.False(t, store.Busy())
}

func TestSubmitEmptyReplyIsGenericFallback(t *testing.T) {
	orch, store := newTestOrchestrator(&fakeClient{reply: ""})

	require.True(t, orch.Submit(context.Background(), "Hi"))
	assert.Equal(t, GenericFallback, store.Messages()[1].Text)
}

func TestSubmitBlankInputIsIgnored(t *testing.T) {
	client := &fakeClient{reply: "unused"}
	orch, store := newTestOrchestrator(client)
	var notifications int
	store.Subscribe(func(chat.State) { notifications++ })
	orch.SetDraft("   ")

	for _, input := range []string{"", "   ", "\n\t "} {
		assert.False(t, orch.Submit(context.Background(), input))
	}

	assert.Empty(t, store.Messages())
	assert.False(t, store.Busy())
	assert.Zero(t, notifications)
	assert.Empty(t, client.calls())
	assert.Equal(t, "   ", orch.Draft(), "rejected input leaves the draft untouched")
}

func TestSubmitKeepsRawText(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	orch, store := newTestOrchestrator(client)

	require.True(t, orch.Submit(context.Background(), "  padded question  "))
	assert.Equal(t, "  padded question  ", store.Messages()[0].Text)
	assert.Equal(t, "  padded question  ", client.calls()[0].Message)
}

func TestSubmitClearsDraft(t *testing.T) {
	orch, store := newTestOrchestrator(&fakeClient{reply: "ok"})
	orch.SetDraft("What is a deductible?")

	require.True(t, orch.SubmitDraft(context.Background()))
	assert.Empty(t, orch.Draft())
	assert.Equal(t, "What is a deductible?", store.Messages()[0].Text)
}

func TestSecondSubmissionDroppedWhileBusy(t *testing.T) {
	client := &fakeClient{reply: "A1", release: make(chan struct{}), started: make(chan struct{}, 1)}
	orch, store := newTestOrchestrator(client)

	done, accepted := orch.Start(context.Background(), "Q1")
	require.True(t, accepted)
	<-client.started

	before := store.State()
	assert.True(t, before.Busy)
	assert.Equal(t, PhaseSubmitting, orch.Phase())

	_, accepted = orch.Start(context.Background(), "Q2")
	assert.False(t, accepted)
	assert.False(t, orch.Submit(context.Background(), "Q2"))
	assert.Equal(t, before, store.State(), "a dropped submission must not change state")

	close(client.release)
	<-done

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Q1", msgs[0].Text)
	assert.Equal(t, "A1", msgs[1].Text)
	assert.False(t, store.Busy())
	assert.Len(t, client.calls(), 1)
}

func TestConcurrentSubmissionsOnlyOneAccepted(t *testing.T) {
	client := &fakeClient{reply: "ok", release: make(chan struct{})}
	orch, store := newTestOrchestrator(client)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var dones []<-chan struct{}
	acceptedCount := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done, ok := orch.Start(context.Background(), "question")
			mu.Lock()
			defer mu.Unlock()
			if ok {
				acceptedCount++
				dones = append(dones, done)
			}
		}()
	}
	wg.Wait()
	close(client.release)
	for _, done := range dones {
		<-done
	}

	assert.Equal(t, 1, acceptedCount)
	assert.Len(t, store.Messages(), 2)
}

func TestMessageCountIsTwicePerAcceptedCycle(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	orch, store := newTestOrchestrator(client)

	inputs := []string{"one", "", "two", "   ", "three", "\t"}
	accepted := 0
	for _, input := range inputs {
		if orch.Submit(context.Background(), input) {
			accepted++
		}
	}

	assert.Equal(t, 3, accepted)
	assert.Len(t, store.Messages(), 2*accepted)
	for i, msg := range store.Messages() {
		want := chat.SenderUser
		if i%2 == 1 {
			want = chat.SenderAssistant
		}
		assert.Equal(t, want, msg.Sender)
	}
}

func TestBusyBracketsRemoteCall(t *testing.T) {
	orch, store := newTestOrchestrator(nil)
	client := &fakeClient{reply: "ok"}
	client.during = func() {
		assert.True(t, store.Busy(), "busy must be set while the remote call runs")
	}
	orch.client = client

	type observed struct {
		n    int
		busy bool
	}
	var seen []observed
	store.Subscribe(func(s chat.State) { seen = append(seen, observed{n: s.Len(), busy: s.Busy}) })

	require.True(t, orch.Submit(context.Background(), "Hi"))

	assert.Equal(t, []observed{
		{n: 1, busy: false},
		{n: 1, busy: true},
		{n: 2, busy: true},
		{n: 2, busy: false},
	}, seen)
}

func TestPanicInRemoteCallStillClearsBusy(t *testing.T) {
	client := &fakeClient{panicV: "boom"}
	orch, store := newTestOrchestrator(client)

	require.NotPanics(t, func() {
		require.True(t, orch.Submit(context.Background(), "Hi"))
	})

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, GenericFallback, msgs[1].Text)
	assert.False(t, store.Busy())
	assert.Equal(t, PhaseIdle, orch.Phase())

	client.panicV = nil
	client.reply = "recovered"
	require.True(t, orch.Submit(context.Background(), "Again"))
	assert.Equal(t, "recovered", store.Messages()[3].Text)
}

func TestStartIgnoresCallerCancellation(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	orch, store := newTestOrchestrator(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done, accepted := orch.Start(ctx, "Hi")
	require.True(t, accepted)
	<-done

	require.Len(t, client.ctxErrs, 1)
	assert.NoError(t, client.ctxErrs[0])
	assert.Equal(t, "ok", store.Messages()[1].Text)
}

func TestStartRejectedReturnsClosedChannel(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeClient{reply: "ok"})

	done, accepted := orch.Start(context.Background(), " ")
	assert.False(t, accepted)
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel for rejected submission")
	}
}

func TestNilClientFallsBackToGeneric(t *testing.T) {
	orch, store := newTestOrchestrator(nil)

	require.True(t, orch.Submit(context.Background(), "Hi"))
	assert.Equal(t, GenericFallback, store.Messages()[1].Text)
}

func TestMessagesUseClock(t *testing.T) {
	orch, store := newTestOrchestrator(&fakeClient{reply: "ok"})

	require.True(t, orch.Submit(context.Background(), "Hi"))
	want := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	for _, msg := range store.Messages() {
		assert.Equal(t, want, msg.Timestamp)
	}
}

func TestPanickingObserverDoesNotWedgeOrchestrator(t *testing.T) {
	client := &fakeClient{reply: "Your policy renews yearly."}
	orch, store := newTestOrchestrator(client)

	store.Subscribe(func(s chat.State) {
		if !s.Busy && s.Len() == 2 {
			panic("render failed")
		}
	})

	require.True(t, orch.Submit(context.Background(), "Q1"))
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.False(t, store.Busy())
	require.Len(t, store.Messages(), 2)

	require.True(t, orch.Submit(context.Background(), "Q2"))
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.False(t, store.Busy())
	assert.Len(t, store.Messages(), 4)
}

func TestPanickingObserverDuringUserAppend(t *testing.T) {
	client := &fakeClient{reply: "Sure."}
	orch, store := newTestOrchestrator(client)

	store.Subscribe(func(s chat.State) {
		if s.Len() == 1 && !s.Busy {
			panic("render failed")
		}
	})

	require.True(t, orch.Submit(context.Background(), "Q1"))
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.False(t, store.Busy())
	assert.Len(t, store.Messages(), 2)
}
