// Package store provides the document store for FAQ and intent records:
// the lookup/enumeration contract consumed by the retrieval engine, a
// SQLite-backed implementation, and an in-memory implementation for tests.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrClosed is returned when operating on a closed store.
var ErrClosed = errors.New("store is closed")

// FAQ is a question/answer record. One FAQ expands into 1+N indexed
// phrases: the canonical question plus each alternative phrasing.
// Records are immutable once indexed; mutations require an index rebuild.
type FAQ struct {
	ID                   string    `json:"id"`
	Question             string    `json:"question"`
	Answer               string    `json:"answer"`
	AlternativeQuestions []string  `json:"alternative_questions"`
	Language             string    `json:"language"`
	Category             string    `json:"category"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Intent is an actionable record matched by its trigger phrases. Trigger
// phrases may embed {slot_name} placeholders for parameter extraction.
type Intent struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	TriggerPhrases []string       `json:"trigger_phrases"`
	ActionType     string         `json:"action_type"`
	ActionConfig   map[string]any `json:"action_config"`
	Language       string         `json:"language"`
	Category       string         `json:"category"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// QueryLog records one retrieval request for analytics.
type QueryLog struct {
	ID              string    `json:"id"`
	QueryText       string    `json:"query_text"`
	MatchedType     string    `json:"matched_type"` // "faq", "intent", "none"
	MatchedID       string    `json:"matched_id"`
	MatchedQuestion string    `json:"matched_question"`
	Confidence      float64   `json:"confidence"`
	ResponseTimeMS  float64   `json:"response_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// QueryStats aggregates query log analytics for the stats surface.
type QueryStats struct {
	TodayQueries    int     `json:"today_queries"`
	TotalQueries    int     `json:"total_queries"`
	AvgResponseTime float64 `json:"avg_response_time_ms"`
}

// DocumentStore is the lookup/enumeration contract the retrieval engine
// consumes. Implementations must be safe for concurrent use.
type DocumentStore interface {
	// ListFAQs returns all FAQ records.
	ListFAQs(ctx context.Context) ([]*FAQ, error)

	// ListIntents returns all intent records.
	ListIntents(ctx context.Context) ([]*Intent, error)

	// GetFAQ returns the FAQ with the given id, or ErrNotFound.
	GetFAQ(ctx context.Context, id string) (*FAQ, error)

	// GetIntent returns the intent with the given id, or ErrNotFound.
	GetIntent(ctx context.Context, id string) (*Intent, error)

	// Close releases resources.
	Close() error
}

// AdminStore extends DocumentStore with the mutation and analytics surface
// used by the CLI and HTTP server. Mutations do not touch the indexes;
// callers trigger a wholesale rebuild afterwards.
type AdminStore interface {
	DocumentStore

	SaveFAQ(ctx context.Context, faq *FAQ) error
	DeleteFAQ(ctx context.Context, id string) error
	SaveIntent(ctx context.Context, intent *Intent) error
	DeleteIntent(ctx context.Context, id string) error

	CreateQueryLog(ctx context.Context, log *QueryLog) error
	RecentQueryLogs(ctx context.Context, limit int) ([]*QueryLog, error)
	Stats(ctx context.Context) (*QueryStats, error)
}
