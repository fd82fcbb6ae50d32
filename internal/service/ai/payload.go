package ai

import (
	"encoding/json"
	"strings"
)

// Payload is the structured failure object some endpoints embed in their error text.
type Payload struct {
	Retryable *bool  `json:"retryable"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// IsRetryable reports whether the payload explicitly marks itself retryable.
func (p Payload) IsRetryable() bool {
	return p.Retryable != nil && *p.Retryable
}

// ParsePayload extracts the outermost {...} span of text and decodes it. It reports
// false when no object is present, it is not valid JSON, or it lacks a boolean
// retryable field.
func ParsePayload(text string) (Payload, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return Payload{}, false
	}

	var payload Payload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return Payload{}, false
	}
	if payload.Retryable == nil {
		return Payload{}, false
	}
	return payload, true
}
