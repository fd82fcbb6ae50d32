package conversation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/ai"
)

type nilReceiverError struct{ msg *string }

func (e *nilReceiverError) Error() string { return *e.msg }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{name: "nil", err: nil, want: CategoryGeneric},
		{name: "typed retryable", err: ai.NewError(errors.New("busy"), 503, true), want: CategoryRetryable},
		{name: "typed permanent", err: ai.NewError(errors.New(`{"retryable":true}`), 400, false), want: CategoryGeneric},
		{name: "wrapped typed", err: fmt.Errorf("call: %w", ai.NewError(nil, 0, true)), want: CategoryRetryable},
		{name: "embedded payload", err: errors.New(`FunctionsHttpError: {"error":"unavailable","retryable":true}`), want: CategoryRetryable},
		{name: "embedded non-retryable", err: errors.New(`{"retryable":false}`), want: CategoryGeneric},
		{name: "plain network error", err: errors.New("dial tcp: connection refused"), want: CategoryGeneric},
		{name: "garbage braces", err: errors.New("{not json}"), want: CategoryGeneric},
		{name: "unavailable", err: ai.ErrUnavailable, want: CategoryGeneric},
		{name: "panicking Error method", err: &nilReceiverError{}, want: CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCategoryText(t *testing.T) {
	assert.Equal(t, RetryableFallback, CategoryRetryable.Text())
	assert.Equal(t, GenericFallback, CategoryGeneric.Text())
	assert.Equal(t, "retryable", CategoryRetryable.String())
	assert.Equal(t, "generic", CategoryGeneric.String())
	assert.NotEqual(t, RetryableFallback, GenericFallback)
}
