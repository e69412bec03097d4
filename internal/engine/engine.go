// Package engine is the fusion orchestrator: it owns both retrieval
// sub-indexes behind one atomically published snapshot, fuses their
// normalized scores, resolves entity ids against the document store, and
// runs slot extraction for intent hits.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/speaksense/faqd/internal/embed"
	"github.com/speaksense/faqd/internal/extract"
	"github.com/speaksense/faqd/internal/index"
	"github.com/speaksense/faqd/internal/lang"
	"github.com/speaksense/faqd/internal/store"
)

// Method selects which sub-indexes a search consults.
type Method string

const (
	MethodBM25   Method = "bm25"
	MethodVector Method = "vector"
	MethodHybrid Method = "hybrid"
)

// Config tunes fusion and the sub-indexes.
type Config struct {
	// BM25Weight and VectorWeight are the fusion shares. They should sum
	// to 1 so fused scores stay in [0,1].
	BM25Weight   float64
	VectorWeight float64

	// TopKBM25 and TopKVector are how many candidates each sub-index
	// contributes to fusion.
	TopKBM25   int
	TopKVector int

	// BM25 holds the lexical index parameters.
	BM25 index.BM25Config

	// DefaultLanguage is used when a request passes an empty language.
	DefaultLanguage string

	// ExtractorCacheSize bounds the compiled trigger-pattern LRU.
	ExtractorCacheSize int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		BM25Weight:         0.3,
		VectorWeight:       0.7,
		TopKBM25:           10,
		TopKVector:         10,
		BM25:               index.DefaultBM25Config(),
		DefaultLanguage:    lang.LanguageAuto,
		ExtractorCacheSize: 256,
	}
}

// Result is one search hit, shaped for JSON transport.
type Result struct {
	Type       string  `json:"type"` // "faq" or "intent"
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	MatchedBy  string  `json:"matched_by"` // "bm25", "vector", or "hybrid"

	// FAQ fields.
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`

	// Intent fields.
	IntentName    string            `json:"intent_name,omitempty"`
	ActionType    string            `json:"action_type,omitempty"`
	ActionConfig  map[string]any    `json:"action_config,omitempty"`
	MatchedPhrase string            `json:"matched_phrase,omitempty"`
	Parameters    map[string]string `json:"parameters,omitempty"`
}

// snapshot is one complete generation of both sub-indexes. Searches read
// whichever snapshot was published when they started; rebuilds construct a
// fresh one off to the side and publish it atomically, so a reader never
// sees a half-rebuilt pair.
type snapshot struct {
	bm25   *index.BM25Index
	vector *index.VectorIndex
}

// Engine is the retrieval engine's public surface.
type Engine struct {
	config    Config
	store     store.DocumentStore
	embedder  embed.Embedder
	extractor *extract.Extractor
	logger    *slog.Logger

	current   atomic.Pointer[snapshot]
	rebuildMu sync.Mutex
}

// New constructs an engine. Indexes are empty until the first
// RebuildIndexes call.
func New(documents store.DocumentStore, embedder embed.Embedder, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopKBM25 <= 0 {
		cfg.TopKBM25 = DefaultConfig().TopKBM25
	}
	if cfg.TopKVector <= 0 {
		cfg.TopKVector = DefaultConfig().TopKVector
	}
	if cfg.ExtractorCacheSize <= 0 {
		cfg.ExtractorCacheSize = DefaultConfig().ExtractorCacheSize
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = lang.LanguageAuto
	}
	return &Engine{
		config:    cfg,
		store:     documents,
		embedder:  embedder,
		extractor: extract.New(cfg.ExtractorCacheSize),
		logger:    logger,
	}
}

// RebuildIndexes materializes the full phrase set from the document store
// and builds both sub-indexes off to the side, publishing them together
// only after both succeed. Safe to call repeatedly; concurrent calls are
// serialized. An embedding-provider failure aborts the swap.
func (e *Engine) RebuildIndexes(ctx context.Context) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	faqs, err := e.store.ListFAQs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list FAQs: %w", err)
	}
	intents, err := e.store.ListIntents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list intents: %w", err)
	}

	phrases := index.Expand(faqs, intents)

	bm25 := index.BuildBM25(phrases, e.config.BM25)
	vector, err := index.BuildVectorIndex(ctx, phrases, e.embedder)
	if err != nil {
		return fmt.Errorf("vector index rebuild failed: %w", err)
	}

	e.current.Store(&snapshot{bm25: bm25, vector: vector})

	e.logger.Info("indexes_rebuilt",
		"faqs", len(faqs),
		"intents", len(intents),
		"phrases", len(phrases),
	)
	return nil
}

// Search answers a free-text query. A blank query or non-positive topK
// returns no results; an unbuilt index logs a warning and returns no
// results. An embedding-provider failure during a vector or hybrid search
// propagates rather than silently degrading to lexical-only.
func (e *Engine) Search(ctx context.Context, query string, topK int, language string, method Method) ([]*Result, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}
	if language == "" {
		language = e.config.DefaultLanguage
	}
	language = lang.Resolve(language, query)
	if method == "" {
		method = MethodHybrid
	}

	snap := e.current.Load()
	if snap == nil {
		e.logger.Warn("search_before_rebuild", "query", query)
		return nil, nil
	}

	var fused []fusedCandidate
	switch method {
	case MethodBM25:
		fused = singleSource(snap.bm25.Search(query, topK, language))
	case MethodVector:
		candidates, err := e.vectorSearch(ctx, snap, query, topK)
		if err != nil {
			return nil, err
		}
		fused = singleSource(candidates)
	case MethodHybrid:
		var err error
		fused, err = e.hybridSearch(ctx, snap, query, language)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown search method %q", method)
	}

	return e.resolve(ctx, query, fused, topK, string(method))
}

// GetBestAnswer returns the single best hit for the query, or nil when
// nothing matches.
func (e *Engine) GetBestAnswer(ctx context.Context, query, language string) (*Result, error) {
	results, err := e.Search(ctx, query, 1, language, MethodHybrid)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Stats describes the currently published snapshot.
type Stats struct {
	Initialized    bool `json:"initialized"`
	IndexedPhrases int  `json:"indexed_phrases"`
}

// IndexStats reports the size of the published snapshot.
func (e *Engine) IndexStats() Stats {
	snap := e.current.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{Initialized: true, IndexedPhrases: snap.bm25.Len()}
}

// fusedCandidate pairs an entity with its fused score, keeping the phrase
// that matched for intent extraction fallback reporting.
type fusedCandidate struct {
	entityID      string
	entityType    index.EntityType
	score         float64
	matchedPhrase string
}

// vectorSearch embeds the query and consults the semantic index.
func (e *Engine) vectorSearch(ctx context.Context, snap *snapshot, query string, topK int) ([]index.Candidate, error) {
	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return snap.vector.Search(queryVec, topK)
}

// hybridSearch pulls both candidate lists in parallel, min-max normalizes
// each, and fuses them with the configured weights. Entities appearing in
// only one list contribute 0 from the missing side. Ties keep the order
// ids were first encountered, lexical list first.
func (e *Engine) hybridSearch(ctx context.Context, snap *snapshot, query, language string) ([]fusedCandidate, error) {
	var (
		lexical  []index.Candidate
		semantic []index.Candidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexical = snap.bm25.Search(query, e.config.TopKBM25, language)
		return nil
	})
	g.Go(func() error {
		var err error
		semantic, err = e.vectorSearch(gctx, snap, query, e.config.TopKVector)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lexNorm := normalizeScores(lexical)
	semNorm := normalizeScores(semantic)

	var order []string
	byID := make(map[string]*fusedCandidate)
	addSide := func(candidates []index.Candidate, norms map[string]float64, weight float64) {
		for _, c := range candidates {
			fc, ok := byID[c.EntityID]
			if !ok {
				fc = &fusedCandidate{
					entityID:      c.EntityID,
					entityType:    c.EntityType,
					matchedPhrase: c.MatchedPhrase,
				}
				byID[c.EntityID] = fc
				order = append(order, c.EntityID)
			}
			fc.score += weight * norms[c.EntityID]
		}
	}
	addSide(lexical, lexNorm, e.config.BM25Weight)
	addSide(semantic, semNorm, e.config.VectorWeight)

	fused := make([]fusedCandidate, 0, len(order))
	for _, id := range order {
		fused = append(fused, *byID[id])
	}
	sort.SliceStable(fused, func(a, b int) bool {
		return fused[a].score > fused[b].score
	})
	return fused, nil
}

// singleSource converts one sub-index's candidates to fused candidates
// without renormalization; raw scores already rank correctly.
func singleSource(candidates []index.Candidate) []fusedCandidate {
	fused := make([]fusedCandidate, 0, len(candidates))
	for _, c := range candidates {
		fused = append(fused, fusedCandidate{
			entityID:      c.EntityID,
			entityType:    c.EntityType,
			score:         c.Score,
			matchedPhrase: c.MatchedPhrase,
		})
	}
	return fused
}

// normalizeScores min-max normalizes candidate scores to [0,1] keyed by
// entity id. A list whose scores are all equal normalizes to all 1.0.
func normalizeScores(candidates []index.Candidate) map[string]float64 {
	norms := make(map[string]float64, len(candidates))
	if len(candidates) == 0 {
		return norms
	}

	minScore, maxScore := candidates[0].Score, candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score < minScore {
			minScore = c.Score
		}
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}

	spread := maxScore - minScore
	for _, c := range candidates {
		if spread == 0 {
			norms[c.EntityID] = 1.0
			continue
		}
		norms[c.EntityID] = (c.Score - minScore) / spread
	}
	return norms
}

// resolve maps the top-topK fused ids back to entities. Only the top-topK
// candidates are considered; a stale id (deleted since the last rebuild)
// shrinks the result set rather than promoting the next candidate. Any
// store error other than a missing record propagates to the caller.
func (e *Engine) resolve(ctx context.Context, query string, fused []fusedCandidate, topK int, matchedBy string) ([]*Result, error) {
	if topK < len(fused) {
		fused = fused[:topK]
	}

	results := make([]*Result, 0, len(fused))
	for _, fc := range fused {
		// FAQ lookup always goes first, regardless of which entity type
		// produced the candidate: id spaces are not guaranteed disjoint and
		// this order decides who wins a collision.
		faq, err := e.store.GetFAQ(ctx, fc.entityID)
		if err == nil {
			results = append(results, e.faqResult(faq, fc, matchedBy))
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to resolve entity %s: %w", fc.entityID, err)
		}

		intent, err := e.store.GetIntent(ctx, fc.entityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				e.logger.Debug("stale_index_entry", "entity_id", fc.entityID)
				continue
			}
			return nil, fmt.Errorf("failed to resolve entity %s: %w", fc.entityID, err)
		}
		results = append(results, e.intentResult(query, intent, fc, matchedBy))
	}
	return results, nil
}

func (e *Engine) faqResult(faq *store.FAQ, fc fusedCandidate, matchedBy string) *Result {
	return &Result{
		Type:       string(index.EntityTypeFAQ),
		ID:         faq.ID,
		Score:      fc.score,
		Confidence: fc.score,
		MatchedBy:  matchedBy,
		Question:   faq.Question,
		Answer:     faq.Answer,
	}
}

func (e *Engine) intentResult(query string, intent *store.Intent, fc fusedCandidate, matchedBy string) *Result {
	result := &Result{
		Type:       string(index.EntityTypeIntent),
		ID:         intent.ID,
		Score:      fc.score,
		Confidence: fc.score,
		MatchedBy:  matchedBy,
		IntentName: intent.Name,
		ActionType: intent.ActionType,
	}
	if len(intent.ActionConfig) > 0 {
		result.ActionConfig = intent.ActionConfig
	}

	matched, phrase, params := e.extractor.MatchAndExtract(query, intent.TriggerPhrases)
	if matched {
		result.MatchedPhrase = phrase
		result.Parameters = params
	} else {
		result.MatchedPhrase = fc.matchedPhrase
	}
	return result
}
