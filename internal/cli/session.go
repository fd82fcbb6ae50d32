package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/config"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/profile"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/ai"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/conversation"
)

// session is one in-memory conversation with its collaborators.
type session struct {
	profile      profile.Profile
	store        *conversation.Store
	orchestrator *conversation.Orchestrator
}

func newSession(ctx context.Context, cfg *config.Config, clientOverride ai.Client) (*session, error) {
	active, ok := profile.FindByID(profile.DefaultID)
	if !ok {
		return nil, errors.New("default assistant profile missing")
	}
	active = active.WithOverrides(cfg.Assistant.Name, cfg.Assistant.Role, cfg.Assistant.Directive)

	client := clientOverride
	if client == nil {
		var err error
		client, err = ai.NewFromConfig(ctx, cfg.AI)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize remote inference")
		}
	}

	store := conversation.NewStore()
	return &session{
		profile:      active,
		store:        store,
		orchestrator: conversation.NewOrchestrator(store, client, active.Context()),
	}, nil
}
