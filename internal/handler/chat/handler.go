package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/pkg/utils"
)

// Conversation is the presentation boundary of the orchestrator.
type Conversation interface {
	State() chat.State
	Start(ctx context.Context, text string) (<-chan struct{}, bool)
}

// Handler serves the conversation read view and the submit entry point.
type Handler struct {
	conversation Conversation
}

// New creates a conversation handler.
func New(conversation Conversation) *Handler {
	return &Handler{conversation: conversation}
}

// RegisterRoutes registers the conversation routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversation", h.handleGetConversation)
	r.Post("/messages", h.handleSubmit)
}

// SubmitResponse reports whether a submission started a new cycle. Rejected
// submissions are not errors.
type SubmitResponse struct {
	Accepted bool       `json:"accepted"`
	State    chat.State `json:"state"`
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.conversation.State())
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, accepted := h.conversation.Start(r.Context(), payload.Text)
	utils.RespondJSON(w, http.StatusAccepted, SubmitResponse{
		Accepted: accepted,
		State:    h.conversation.State(),
	})
}
