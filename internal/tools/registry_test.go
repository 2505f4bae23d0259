package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveKnown(t *testing.T) {
	registry := NewRegistry()

	cfg, err := registry.Resolve(TopicBrainstorm)
	require.NoError(t, err)
	assert.Equal(t, TopicBrainstorm, cfg.ID)
	assert.NotEmpty(t, cfg.SystemPrompt)
	assert.NotEmpty(t, cfg.Model)
	assert.Greater(t, cfg.MaxTokens, 0)
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Resolve("essay_ghostwriter")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistry_EveryToolComplete(t *testing.T) {
	registry := NewRegistry()

	ids := registry.IDs()
	require.NotEmpty(t, ids)
	for _, id := range ids {
		cfg, err := registry.Resolve(id)
		require.NoError(t, err)
		assert.NotEmpty(t, cfg.SystemPrompt, "tool %s", id)
		assert.NotEmpty(t, cfg.Model, "tool %s", id)
		assert.Greater(t, cfg.MaxTokens, 0, "tool %s", id)
	}
}
