package profile

import (
	"fmt"
	"strings"
)

// DefaultID is the identifier of the seeded insurance assistant.
const DefaultID = "insurance-assistant"

// Profile describes the assistant the remote model is asked to play. Its rendered
// Context is sent verbatim with every remote call.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Directive   string `json:"directive"`
	OpeningLine string `json:"openingLine,omitempty"`
}

// Context renders the fixed system context string for the remote endpoint.
func (p Profile) Context() string {
	var b strings.Builder
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "an assistant"
	}
	fmt.Fprintf(&b, "You are %s. %s", name, strings.TrimSpace(p.Role))
	if directive := strings.TrimSpace(p.Directive); directive != "" {
		b.WriteString(" ")
		b.WriteString(directive)
	}
	return strings.TrimSpace(b.String())
}

// WithOverrides returns a copy of p with every non-empty argument replacing the
// corresponding field.
func (p Profile) WithOverrides(name, role, directive string) Profile {
	if v := strings.TrimSpace(name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(role); v != "" {
		p.Role = v
	}
	if v := strings.TrimSpace(directive); v != "" {
		p.Directive = v
	}
	return p
}

// Seed provides the built-in assistant profiles.
func Seed() []Profile {
	return []Profile{
		{
			ID:   DefaultID,
			Name: "a helpful insurance assistant",
			Role: "You answer questions about auto, home, renters and life insurance: coverage types, " +
				"deductibles, premiums, claims and policy terms. Keep answers clear, friendly and concise, " +
				"and explain insurance jargon in plain language.",
			Directive: "You are not a licensed agent. Always remind the user that final decisions about " +
				"coverage, claims and policy changes must be confirmed with a licensed human insurance agent.",
			OpeningLine: "Hi! I can help you understand your insurance options. What would you like to know?",
		},
	}
}

// FindByID returns the built-in profile with the given identifier.
func FindByID(id string) (Profile, bool) {
	for _, p := range Seed() {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}
