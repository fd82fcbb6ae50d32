package conversation

import (
	"github.com/pkg/errors"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/ai"
)

// Canned assistant replies used when the remote call does not produce a usable answer.
const (
	RetryableFallback = "I'm temporarily unavailable right now. Please try sending your message again in a moment."
	GenericFallback   = "I'm sorry, I'm having some technical difficulties at the moment. Please try again later, and contact support if the issue persists."
)

// Category is the outcome of classifying a remote failure.
type Category int

const (
	// CategoryGeneric covers unstructured, network, malformed and unknown failures.
	CategoryGeneric Category = iota
	// CategoryRetryable covers failures that mark themselves as transient.
	CategoryRetryable
)

func (c Category) String() string {
	if c == CategoryRetryable {
		return "retryable"
	}
	return "generic"
}

// Text returns the fallback message shown for the category.
func (c Category) Text() string {
	if c == CategoryRetryable {
		return RetryableFallback
	}
	return GenericFallback
}

// Classify inspects a remote failure. A typed *ai.Error decides directly; otherwise
// the error text is searched for an embedded {"retryable": bool} payload. Classify
// never panics.
func Classify(err error) (category Category) {
	defer func() {
		if r := recover(); r != nil {
			category = CategoryGeneric
		}
	}()

	if err == nil {
		return CategoryGeneric
	}

	var typed *ai.Error
	if errors.As(err, &typed) && typed != nil {
		if typed.Retryable {
			return CategoryRetryable
		}
		return CategoryGeneric
	}

	if payload, ok := ai.ParsePayload(err.Error()); ok && payload.IsRetryable() {
		return CategoryRetryable
	}
	return CategoryGeneric
}
