package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const maxFunctionBody = 1 << 20

// FunctionConfig configures FunctionClient.
type FunctionConfig struct {
	URL        string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// FunctionClient calls a serverless function that accepts {message, context} and
// replies with {response}.
type FunctionClient struct {
	url     string
	token   string
	timeout time.Duration
	http    *http.Client
}

// NewFunctionClient validates cfg and returns a FunctionClient.
func NewFunctionClient(cfg FunctionConfig) (*FunctionClient, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("function url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &FunctionClient{
		url:     url,
		token:   strings.TrimSpace(cfg.Token),
		timeout: cfg.Timeout,
		http:    httpClient,
	}, nil
}

// Generate posts the request and decodes the reply. Non-2xx replies become an *Error
// whose text carries the response body, so structured failure payloads survive.
func (c *FunctionClient) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to encode function request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to build function request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, errors.Wrap(err, "function request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFunctionBody))
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to read function response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(raw))
		retryable := RetryableStatus(resp.StatusCode)
		if payload, ok := ParsePayload(text); ok {
			retryable = payload.IsRetryable()
		}
		log.Warn().Str("component", "ai").Int("status", resp.StatusCode).Bool("retryable", retryable).Msg("function returned error status")
		return Response{}, NewError(errors.Errorf("function error: %s", text), resp.StatusCode, retryable)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, errors.Wrap(err, "failed to decode function response")
	}
	return out, nil
}
