// Package embed provides the embedding provider contract and its
// implementations: an Ollama HTTP provider, a deterministic hash-based
// static provider for offline use and tests, and an LRU-cached wrapper.
package embed

import (
	"context"
	"math"
	"time"
)

// Common embedding constants.
const (
	// DefaultBatchSize is the default number of texts per provider call.
	// Phrases are embedded in batches, never one request per phrase.
	DefaultBatchSize = 32

	// MaxBatchSize caps a single provider call to prevent memory exhaustion.
	MaxBatchSize = 256

	// DefaultTimeout is the default timeout for one embedding request.
	DefaultTimeout = 60 * time.Second

	// StaticDimensions is the embedding dimension of the static provider.
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text. Vectors are expected to be
// normalized; for a fixed model the output is deterministic.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v // zero vector stays as-is
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
