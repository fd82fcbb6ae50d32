package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultContextDefersToHumanAgent(t *testing.T) {
	p, ok := FindByID(DefaultID)
	require.True(t, ok)

	ctx := p.Context()
	assert.True(t, strings.HasPrefix(ctx, "You are a helpful insurance assistant."))
	assert.Contains(t, ctx, "licensed human insurance agent")
}

func TestWithOverridesKeepsUnsetFields(t *testing.T) {
	base := Seed()[0]

	got := base.WithOverrides("Ada", "  ", "")

	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, base.Role, got.Role)
	assert.Equal(t, base.Directive, got.Directive)
	assert.Equal(t, "a helpful insurance assistant", base.Name, "original must not change")
}

func TestFindByID(t *testing.T) {
	p, ok := FindByID(DefaultID)
	require.True(t, ok)
	assert.Equal(t, "a helpful insurance assistant", p.Name)

	_, ok = FindByID("missing")
	assert.False(t, ok)
}
