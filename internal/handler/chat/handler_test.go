package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/ai"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/conversation"
)

type gatedClient struct {
	release chan struct{}
}

func (g *gatedClient) Generate(ctx context.Context, req ai.Request) (ai.Response, error) {
	<-g.release
	return ai.Response{Response: "Comprehensive coverage includes theft and weather damage."}, nil
}

func setupRouter(client ai.Client) (*chi.Mux, *conversation.Orchestrator) {
	orch := conversation.NewOrchestrator(conversation.NewStore(), client, "ctx", conversation.WithLogger(zerolog.Nop()))
	r := chi.NewRouter()
	New(orch).RegisterRoutes(r)
	return r, orch
}

func postMessage(t *testing.T, r http.Handler, body string) SubmitResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var out SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubmitAcceptedThenDropped(t *testing.T) {
	client := &gatedClient{release: make(chan struct{})}
	r, orch := setupRouter(client)

	first := postMessage(t, r, `{"text":"What does comprehensive coverage include?"}`)
	assert.True(t, first.Accepted)
	assert.True(t, first.State.Busy)
	require.Equal(t, 1, first.State.Len())

	second := postMessage(t, r, `{"text":"And collision?"}`)
	assert.False(t, second.Accepted)
	assert.Equal(t, 1, second.State.Len())

	close(client.release)
	assert.Eventually(t, func() bool { return !orch.State().Busy }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, orch.State().Len())
}

func TestSubmitBlankIsNotAnError(t *testing.T) {
	r, orch := setupRouter(ai.Unavailable{})

	out := postMessage(t, r, `{"text":"   "}`)
	assert.False(t, out.Accepted)
	assert.Zero(t, orch.State().Len())
}

func TestSubmitInvalidBody(t *testing.T) {
	r, _ := setupRouter(ai.Unavailable{})

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader([]byte(`{`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetConversation(t *testing.T) {
	r, orch := setupRouter(ai.Unavailable{})
	require.True(t, orch.Submit(context.Background(), "Hi"))

	req := httptest.NewRequest(http.MethodGet, "/conversation", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Messages []struct {
			Text   string `json:"text"`
			Sender string `json:"sender"`
		} `json:"messages"`
		Busy bool `json:"busy"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "user", body.Messages[0].Sender)
	assert.Equal(t, "assistant", body.Messages[1].Sender)
	assert.Equal(t, conversation.GenericFallback, body.Messages[1].Text)
	assert.False(t, body.Busy)
}
