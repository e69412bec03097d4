package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "is there wifi")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "is there wifi")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, StaticDimensions)
}

func TestStaticEmbedder_Normalized(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "library opening hours")
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestStaticEmbedder_EmptyText(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, StaticDimensions), vec)
}

func TestStaticEmbedder_SimilarTextsCloserThanUnrelated(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	wifi1, _ := e.Embed(ctx, "is there wifi")
	wifi2, _ := e.Embed(ctx, "wifi available")
	other, _ := e.Embed(ctx, "quarterly revenue report")

	assert.Greater(t, dot(wifi1, wifi2), dot(wifi1, other))
}

func TestStaticEmbedder_CJKText(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "图书馆几点关门")
	require.NoError(t, err)

	b, _ := e.Embed(ctx, "图书馆几点关门？")
	other, _ := e.Embed(ctx, "今天天气怎么样")
	assert.Greater(t, dot(a, b), dot(a, other))
}

func TestStaticEmbedder_EmbedBatch(t *testing.T) {
	e := NewStaticEmbedder()

	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	single, _ := e.Embed(context.Background(), "two")
	assert.Equal(t, single, vectors[1])
}

func TestStaticEmbedder_Closed(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
