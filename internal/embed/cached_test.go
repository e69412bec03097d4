package embed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps StaticEmbedder and counts provider calls.
type countingEmbedder struct {
	*StaticEmbedder
	embedCalls atomic.Int32
	batchCalls atomic.Int32
	failNext   atomic.Bool
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls.Add(1)
	if c.failNext.Load() {
		return nil, errors.New("provider down")
	}
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls.Add(1)
	if c.failNext.Load() {
		return nil, errors.New("provider down")
	}
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_HitSkipsProvider(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "wifi")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "wifi")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.embedCalls.Load())
}

func TestCachedEmbedder_BatchOnlyEmbedsMisses(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "a")
	require.NoError(t, err)

	vectors, err := cached.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	// "a" was cached; only "b" went to the provider batch.
	assert.Equal(t, int32(1), inner.batchCalls.Load())

	direct, _ := inner.StaticEmbedder.Embed(ctx, "a")
	assert.Equal(t, direct, vectors[0])
}

func TestCachedEmbedder_ErrorPropagates(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	inner.failNext.Store(true)
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestCachedEmbedder_EmptyBatch(t *testing.T) {
	cached := NewCachedEmbedder(NewStaticEmbedder(), 10)

	vectors, err := cached.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
