package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speaksense/faqd/internal/embed"
)

type failingEmbedder struct {
	*embed.StaticEmbedder
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding provider unavailable")
}

func buildTestVectorIndex(t *testing.T) (*VectorIndex, embed.Embedder) {
	t.Helper()
	embedder := embed.NewStaticEmbedder()
	idx, err := BuildVectorIndex(context.Background(), testPhrases(), embedder)
	require.NoError(t, err)
	return idx, embedder
}

func TestVectorSearch_FindsNearestEntity(t *testing.T) {
	idx, embedder := buildTestVectorIndex(t)

	queryVec, err := embedder.Embed(context.Background(), "is there wifi")
	require.NoError(t, err)

	results, err := idx.Search(queryVec, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "faq-wifi", results[0].EntityID)
	assert.Equal(t, SourceSemantic, results[0].Source)
	assert.LessOrEqual(t, results[0].Score, 1.0)
}

func TestVectorSearch_DedupsByEntity(t *testing.T) {
	idx, embedder := buildTestVectorIndex(t)

	queryVec, err := embedder.Embed(context.Background(), "wifi")
	require.NoError(t, err)

	// Over-fetch pulls both faq-wifi phrasings; dedup keeps the nearest.
	results, err := idx.Search(queryVec, 5)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, r := range results {
		seen[r.EntityID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "entity %s appeared more than once", id)
	}
}

func TestVectorSearch_TopKTruncates(t *testing.T) {
	idx, embedder := buildTestVectorIndex(t)

	queryVec, err := embedder.Embed(context.Background(), "library")
	require.NoError(t, err)

	results, err := idx.Search(queryVec, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestVectorSearch_DimensionMismatch(t *testing.T) {
	idx, _ := buildTestVectorIndex(t)

	_, err := idx.Search([]float32{1, 2, 3}, 3)
	assert.Error(t, err)
}

func TestVectorSearch_EmptyIndex(t *testing.T) {
	idx, err := BuildVectorIndex(context.Background(), nil, embed.NewStaticEmbedder())
	require.NoError(t, err)

	results, err := idx.Search(make([]float32, embed.StaticDimensions), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuildVectorIndex_EmbedFailureAborts(t *testing.T) {
	failing := &failingEmbedder{StaticEmbedder: embed.NewStaticEmbedder()}

	_, err := BuildVectorIndex(context.Background(), testPhrases(), failing)
	assert.Error(t, err)
}
