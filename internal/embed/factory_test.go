package embed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableHost is a port nothing listens on, so Ollama connection
// attempts fail immediately.
const unreachableHost = "http://127.0.0.1:1"

func TestNewEmbedder_Static(t *testing.T) {
	e, err := NewEmbedder(context.Background(), FactoryConfig{Provider: ProviderStatic})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "static-hash-256", e.ModelName())
}

func TestNewEmbedder_ExplicitOllamaFailureIsAnError(t *testing.T) {
	_, err := NewEmbedder(context.Background(), FactoryConfig{
		Provider:   ProviderOllama,
		OllamaHost: unreachableHost,
		Timeout:    time.Second,
	})

	// An explicitly requested provider must never be swapped for the
	// degraded static embedder behind the caller's back.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama")
}

func TestNewEmbedder_AutoFallsBackToStatic(t *testing.T) {
	e, err := NewEmbedder(context.Background(), FactoryConfig{
		Provider:   ProviderAuto,
		OllamaHost: unreachableHost,
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "static-hash-256", e.ModelName())
}

func TestNewEmbedder_EnvOverridesProvider(t *testing.T) {
	t.Setenv("FAQD_EMBEDDER", "static")

	e, err := NewEmbedder(context.Background(), FactoryConfig{Provider: ProviderOllama})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "static-hash-256", e.ModelName())
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(context.Background(), FactoryConfig{Provider: "quantum"})
	assert.Error(t, err)
}
