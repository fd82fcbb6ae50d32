package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/shikharsehgal1/tassnewnewinsurancebot/internal/handler/chat"
	profileHandler "github.com/shikharsehgal1/tassnewnewinsurancebot/internal/handler/profile"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/handler/stream"
	middlewarePkg "github.com/shikharsehgal1/tassnewnewinsurancebot/internal/middleware"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/profile"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/conversation"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/events"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/pkg/utils"
)

// NewRouter wires HTTP routes to the conversation session.
func NewRouter(active profile.Profile, orch *conversation.Orchestrator, bus *events.Bus) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		profileHandler.New(active).RegisterRoutes(api)
		chatHandler.New(orch).RegisterRoutes(api)
		stream.New(orch, bus).RegisterRoutes(api)
	})

	return r
}
