package index

import (
	"context"
	"fmt"
	"math"

	"github.com/coder/hnsw"

	"github.com/speaksense/faqd/internal/embed"
)

// Vector over-fetch tuning. Nearest-neighbor hits are deduplicated by
// entity afterwards, which shrinks the candidate count, so the raw
// similarity query asks for more neighbors than requested.
const (
	// overFetchFactor multiplies topK for the raw neighbor query.
	overFetchFactor = 2

	// minRawNeighbors is the floor for the raw neighbor query so small
	// topK values still survive dedup shrinkage.
	minRawNeighbors = 10
)

// VectorIndex is an HNSW similarity index over phrase embeddings, using
// cosine distance. Like BM25Index it is immutable after construction;
// rebuilds construct a new instance.
type VectorIndex struct {
	graph   *hnsw.Graph[uint64]
	phrases []Phrase // graph key = position in this slice
	dims    int
}

// BuildVectorIndex embeds every phrase and inserts it into a fresh HNSW
// graph. Embeddings are requested batched per entity, never one call per
// phrase. An embedding-provider failure aborts the build and propagates.
func BuildVectorIndex(ctx context.Context, phrases []Phrase, embedder embed.Embedder) (*VectorIndex, error) {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	idx := &VectorIndex{
		graph:   graph,
		phrases: phrases,
		dims:    embedder.Dimensions(),
	}

	// Batch per entity: all phrases of one entity go out in one provider
	// call.
	start := 0
	for start < len(phrases) {
		end := start + 1
		for end < len(phrases) && phrases[end].EntityID == phrases[start].EntityID {
			end++
		}

		texts := make([]string, 0, end-start)
		for _, p := range phrases[start:end] {
			texts = append(texts, p.Text)
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed phrases for entity %s: %w", phrases[start].EntityID, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch for entity %s: got %d, want %d",
				phrases[start].EntityID, len(vectors), len(texts))
		}

		for i, vec := range vectors {
			normalized := make([]float32, len(vec))
			copy(normalized, vec)
			normalizeInPlace(normalized)
			graph.Add(hnsw.MakeNode(uint64(start+i), normalized))
		}

		start = end
	}

	return idx, nil
}

// Len returns the number of indexed phrases.
func (idx *VectorIndex) Len() int {
	return len(idx.phrases)
}

// Search embeds nothing itself; it takes the query vector, over-fetches
// raw neighbors, converts cosine distance d to similarity 1-d,
// deduplicates by entity keeping the nearest phrase, and truncates to topK
// entities. An empty graph returns no results.
func (idx *VectorIndex) Search(queryVec []float32, topK int) ([]Candidate, error) {
	if topK <= 0 || len(idx.phrases) == 0 {
		return nil, nil
	}
	if len(queryVec) != idx.dims {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dims, len(queryVec))
	}

	raw := topK * overFetchFactor
	if raw < minRawNeighbors {
		raw = minRawNeighbors
	}

	normalized := make([]float32, len(queryVec))
	copy(normalized, queryVec)
	normalizeInPlace(normalized)

	nodes := idx.graph.Search(normalized, raw)

	candidates := make([]Candidate, 0, topK)
	seen := make(map[string]struct{}, topK)
	for _, node := range nodes {
		phrase := idx.phrases[node.Key]
		if _, dup := seen[phrase.EntityID]; dup {
			continue
		}
		seen[phrase.EntityID] = struct{}{}

		distance := idx.graph.Distance(normalized, node.Value)
		candidates = append(candidates, Candidate{
			EntityID:      phrase.EntityID,
			EntityType:    phrase.EntityType,
			Score:         1 - float64(distance),
			Source:        SourceSemantic,
			MatchedPhrase: phrase.Text,
			IsAlternative: phrase.IsAlternative,
		})
		if len(candidates) == topK {
			break
		}
	}
	return candidates, nil
}

// normalizeInPlace normalizes a vector to unit length in place.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return
	}
	for i, val := range v {
		v[i] = float32(float64(val) / magnitude)
	}
}
