package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/pkg/utils"
)

const keepAliveInterval = 15 * time.Second

// Conversation is what the stream handlers need from the orchestrator.
type Conversation interface {
	State() chat.State
	Start(ctx context.Context, text string) (<-chan struct{}, bool)
}

// Subscriber delivers conversation snapshots after every change.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan chat.State, error)
}

// Handler pushes conversation snapshots to clients over SSE and websockets.
type Handler struct {
	conversation Conversation
	events       Subscriber
	keepAlive    time.Duration
}

// New creates a stream handler.
func New(conversation Conversation, events Subscriber) *Handler {
	return &Handler{
		conversation: conversation,
		events:       events,
		keepAlive:    keepAliveInterval,
	}
}

// RegisterRoutes registers /events and /ws on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
	r.Get("/ws", h.handleWebSocket)
}

// handleEvents streams the current state followed by every change as "state" events.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	states, err := h.events.Subscribe(ctx)
	if err != nil {
		log.Error().Err(err).Str("component", "sse").Msg("subscribe failed")
		utils.RespondError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "state", h.conversation.State()); err != nil {
		return
	}

	log.Debug().Str("component", "sse").Msg("stream opened")
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("component", "sse").Msg("stream closed")
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "state", state); err != nil {
				log.Debug().Err(err).Str("component", "sse").Msg("client went away")
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
