package index

import (
	"math"
	"sort"

	"github.com/speaksense/faqd/internal/lang"
)

// BM25Config configures the lexical index.
type BM25Config struct {
	// K1 is the term frequency saturation parameter (default: 1.5).
	K1 float64

	// B is the length normalization parameter (default: 0.75).
	B float64
}

// DefaultBM25Config returns default BM25 parameters.
func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.5, B: 0.75}
}

// BM25Index is an in-memory BM25 index over the full phrase set. Each
// phrase is tokenized with its own language so term statistics match the
// language's natural token granularity. The index is immutable after
// construction and safe for concurrent reads; rebuilds construct a new
// instance.
type BM25Index struct {
	config    BM25Config
	phrases   []Phrase
	termFreqs []map[string]int // per phrase
	docLens   []int
	docFreq   map[string]int // term -> number of phrases containing it
	avgDocLen float64
}

// BuildBM25 constructs a BM25 index from the phrase set. An empty phrase
// set yields a valid index that returns no results.
func BuildBM25(phrases []Phrase, cfg BM25Config) *BM25Index {
	if cfg.K1 <= 0 {
		cfg.K1 = DefaultBM25Config().K1
	}
	if cfg.B < 0 || cfg.B > 1 {
		cfg.B = DefaultBM25Config().B
	}

	idx := &BM25Index{
		config:    cfg,
		phrases:   phrases,
		termFreqs: make([]map[string]int, len(phrases)),
		docLens:   make([]int, len(phrases)),
		docFreq:   make(map[string]int),
	}

	var totalLen int
	for i, phrase := range phrases {
		tokens := lang.Tokenize(phrase.Text, phrase.Language)
		freqs := make(map[string]int, len(tokens))
		for _, token := range tokens {
			freqs[token]++
		}
		for term := range freqs {
			idx.docFreq[term]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}
	if len(phrases) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(phrases))
	}

	return idx
}

// Len returns the number of indexed phrases.
func (idx *BM25Index) Len() int {
	return len(idx.phrases)
}

// Search tokenizes the query for the given language, scores every phrase,
// keeps the topK highest-ranked phrases, discards non-positive scores, and
// collapses multiple phrasings of the same entity into one candidate
// (first, i.e. highest-ranked, occurrence wins).
//
// An empty corpus or an empty token set returns no results, never an error.
func (idx *BM25Index) Search(query string, topK int, language string) []Candidate {
	if topK <= 0 || len(idx.phrases) == 0 {
		return nil
	}

	queryTokens := lang.Tokenize(query, lang.Resolve(language, query))
	if len(queryTokens) == 0 {
		return nil
	}

	scores := idx.scoreAll(queryTokens)

	// Rank phrase indices by score descending; ties keep index order so
	// results are deterministic.
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if topK < len(order) {
		order = order[:topK]
	}

	candidates := make([]Candidate, 0, len(order))
	seen := make(map[string]struct{}, len(order))
	for _, i := range order {
		if scores[i] <= 0 {
			continue
		}
		phrase := idx.phrases[i]
		if _, dup := seen[phrase.EntityID]; dup {
			continue
		}
		seen[phrase.EntityID] = struct{}{}
		candidates = append(candidates, Candidate{
			EntityID:      phrase.EntityID,
			EntityType:    phrase.EntityType,
			Score:         scores[i],
			Source:        SourceLexical,
			MatchedPhrase: phrase.Text,
			IsAlternative: phrase.IsAlternative,
		})
	}
	return candidates
}

// scoreAll computes the BM25 score of every phrase for the query tokens.
func (idx *BM25Index) scoreAll(queryTokens []string) []float64 {
	n := float64(len(idx.phrases))
	scores := make([]float64, len(idx.phrases))

	for _, term := range queryTokens {
		df, ok := idx.docFreq[term]
		if !ok {
			continue
		}
		// Always-positive idf variant; zero-overlap phrases score 0 and
		// are dropped by the non-positive filter in Search.
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))

		for i, freqs := range idx.termFreqs {
			tf, ok := freqs[term]
			if !ok {
				continue
			}
			norm := 1 - idx.config.B + idx.config.B*float64(idx.docLens[i])/idx.avgDocLen
			scores[i] += idf * float64(tf) * (idx.config.K1 + 1) / (float64(tf) + idx.config.K1*norm)
		}
	}
	return scores
}
