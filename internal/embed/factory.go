package embed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	// ProviderOllama uses the Ollama HTTP API (default).
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses deterministic hash-based embeddings (offline
	// fallback; no external dependencies).
	ProviderStatic ProviderType = "static"

	// ProviderAuto tries Ollama and falls back to static.
	ProviderAuto ProviderType = "auto"
)

// FactoryConfig configures embedder construction.
type FactoryConfig struct {
	Provider   ProviderType
	Model      string
	OllamaHost string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
	CacheSize  int
}

// NewEmbedder creates an embedder for the configured provider and wraps it
// with an LRU cache. The FAQD_EMBEDDER environment variable overrides the
// provider ("ollama" or "static"); FAQD_EMBED_CACHE=false disables caching.
func NewEmbedder(ctx context.Context, cfg FactoryConfig) (Embedder, error) {
	provider := cfg.Provider
	if env := strings.ToLower(os.Getenv("FAQD_EMBEDDER")); env != "" {
		provider = ProviderType(env)
	}

	ollamaCfg := OllamaConfig{
		Host:       cfg.OllamaHost,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		BatchSize:  cfg.BatchSize,
		Timeout:    cfg.Timeout,
	}

	var embedder Embedder

	switch provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder()

	case ProviderOllama:
		// Explicitly selected: an unreachable provider is a startup error,
		// never a silent downgrade to hash-based vectors.
		ollama, err := NewOllamaEmbedder(ctx, ollamaCfg)
		if err != nil {
			return nil, fmt.Errorf("ollama embedder unavailable: %w", err)
		}
		embedder = ollama

	case ProviderAuto, "":
		ollama, err := NewOllamaEmbedder(ctx, ollamaCfg)
		if err != nil {
			// Auto-detection only: the static fallback is logged loudly and
			// chosen once at startup, never mid-flight.
			slog.Warn("ollama_unavailable_using_static_embedder",
				slog.String("error", err.Error()))
			embedder = NewStaticEmbedder()
		} else {
			embedder = ollama
		}

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedder(embedder, cfg.CacheSize)
	}
	return embedder, nil
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("FAQD_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off"
}
