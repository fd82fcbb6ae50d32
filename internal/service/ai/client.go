package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned by Unavailable for every call.
var ErrUnavailable = errors.New("remote inference is not configured")

// Request is the payload sent to the remote inference endpoint.
type Request struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

// Response is a successful reply from the remote inference endpoint.
type Response struct {
	Response string `json:"response"`
}

// Client is the remote inference collaborator consumed by the conversation orchestrator.
// Implementations never retry on their own.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Error is the typed failure channel of a Client. Retryable marks transient failures
// the user may immediately retry.
type Error struct {
	Retryable bool
	Status    int
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := "remote inference failed"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status=%d", msg, e.Status)
	}
	if e.Retryable {
		msg += " (retryable)"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError wraps err into an *Error.
func NewError(err error, status int, retryable bool) error {
	return &Error{Retryable: retryable, Status: status, Err: err}
}

// RetryableStatus reports whether an HTTP status code signals a transient failure.
func RetryableStatus(status int) bool {
	switch status {
	case 429, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Unavailable is the Client used when no provider is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Request) (Response, error) {
	return Response{}, ErrUnavailable
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

func (f ClientFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
