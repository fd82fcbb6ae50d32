package ai

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ChainClient answers requests through an eino chain: the request context becomes the
// system message and the request message the user turn.
type ChainClient struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewChainClient compiles the prompt chain around chatModel.
func NewChainClient(ctx context.Context, chatModel model.ChatModel, timeout time.Duration) (*ChainClient, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{context}"),
		schema.UserMessage("{message}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile chat chain")
	}

	return &ChainClient{
		chain:   runnable,
		timeout: timeout,
	}, nil
}

// Generate runs the chain once.
func (c *ChainClient) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	input := map[string]any{
		"context": req.Context,
		"message": req.Message,
	}

	msg, err := c.chain.Invoke(ctx, input)
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to run chat chain")
	}
	if msg == nil {
		return Response{}, nil
	}

	log.Debug().Str("component", "ai").Int("length", len(msg.Content)).Msg("chain generated response")
	return Response{Response: msg.Content}, nil
}
