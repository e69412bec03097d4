// Package index provides the two retrieval sub-indexes: an in-memory BM25
// index and an HNSW vector index. Both are built wholesale from the full
// phrase set and are immutable afterwards; the engine publishes a fresh
// pair atomically on every rebuild, so readers never observe a partially
// rebuilt index.
package index

import (
	"github.com/speaksense/faqd/internal/lang"
	"github.com/speaksense/faqd/internal/store"
)

// EntityType distinguishes the two kinds of retrievable entities.
type EntityType string

const (
	EntityTypeFAQ    EntityType = "faq"
	EntityTypeIntent EntityType = "intent"
)

// Source identifies which sub-index produced a candidate.
type Source string

const (
	SourceLexical  Source = "lexical"
	SourceSemantic Source = "semantic"
)

// Phrase is the unit actually tokenized and embedded. One entity expands
// into 1+N phrases: the canonical question plus alternatives for a FAQ, or
// one phrase per trigger phrase for an intent.
type Phrase struct {
	EntityID      string
	EntityType    EntityType
	Text          string
	Language      string
	IsAlternative bool
}

// Candidate is an ephemeral per-query result from one sub-index.
type Candidate struct {
	EntityID      string
	EntityType    EntityType
	Score         float64
	Source        Source
	MatchedPhrase string
	IsAlternative bool
}

// Expand materializes the full phrase set from the document store records.
// FAQ ids and intent ids are kept apart by entity type; phrase order is the
// stored record order.
func Expand(faqs []*store.FAQ, intents []*store.Intent) []Phrase {
	var phrases []Phrase

	for _, faq := range faqs {
		language := lang.Resolve(faq.Language, faq.Question)
		phrases = append(phrases, Phrase{
			EntityID:   faq.ID,
			EntityType: EntityTypeFAQ,
			Text:       faq.Question,
			Language:   language,
		})
		for _, alt := range faq.AlternativeQuestions {
			phrases = append(phrases, Phrase{
				EntityID:      faq.ID,
				EntityType:    EntityTypeFAQ,
				Text:          alt,
				Language:      lang.Resolve(faq.Language, alt),
				IsAlternative: true,
			})
		}
	}

	for _, intent := range intents {
		for i, trigger := range intent.TriggerPhrases {
			phrases = append(phrases, Phrase{
				EntityID:      intent.ID,
				EntityType:    EntityTypeIntent,
				Text:          trigger,
				Language:      lang.Resolve(intent.Language, trigger),
				IsAlternative: i > 0,
			})
		}
	}

	return phrases
}
