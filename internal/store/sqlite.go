package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteStore implements AdminStore backed by SQLite.
// WAL mode allows concurrent readers while the admin surface writes.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ AdminStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS faqs (
	id                    TEXT PRIMARY KEY,
	question              TEXT NOT NULL,
	answer                TEXT NOT NULL,
	alternative_questions TEXT NOT NULL DEFAULT '[]',
	language              TEXT NOT NULL DEFAULT 'auto',
	category              TEXT NOT NULL DEFAULT 'general',
	created_at            TIMESTAMP NOT NULL,
	updated_at            TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS intents (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	description     TEXT NOT NULL DEFAULT '',
	trigger_phrases TEXT NOT NULL DEFAULT '[]',
	action_type     TEXT NOT NULL,
	action_config   TEXT NOT NULL DEFAULT '{}',
	language        TEXT NOT NULL DEFAULT 'auto',
	category        TEXT NOT NULL DEFAULT 'general',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS query_logs (
	id               TEXT PRIMARY KEY,
	query_text       TEXT NOT NULL,
	matched_type     TEXT NOT NULL DEFAULT 'none',
	matched_id       TEXT NOT NULL DEFAULT '',
	matched_question TEXT NOT NULL DEFAULT '',
	confidence       REAL NOT NULL DEFAULT 0,
	response_time_ms REAL NOT NULL DEFAULT 0,
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_logs_created_at ON query_logs(created_at);
`

// NewSQLiteStore opens (or creates) a SQLite document store at path.
// If path is empty, an in-memory database is used.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		// _busy_timeout handles lock contention gracefully
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids table-lock errors on the in-memory DSN.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// SaveFAQ inserts or replaces a FAQ record. A missing id is generated.
func (s *SQLiteStore) SaveFAQ(ctx context.Context, faq *FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if faq.ID == "" {
		faq.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = now
	}
	faq.UpdatedAt = now

	alts, err := json.Marshal(faq.AlternativeQuestions)
	if err != nil {
		return fmt.Errorf("failed to encode alternative questions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO faqs (id, question, answer, alternative_questions, language, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question=excluded.question,
			answer=excluded.answer,
			alternative_questions=excluded.alternative_questions,
			language=excluded.language,
			category=excluded.category,
			updated_at=excluded.updated_at`,
		faq.ID, faq.Question, faq.Answer, string(alts), faq.Language, faq.Category,
		faq.CreatedAt, faq.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save FAQ %s: %w", faq.ID, err)
	}
	return nil
}

// GetFAQ returns the FAQ with the given id, or ErrNotFound.
func (s *SQLiteStore) GetFAQ(ctx context.Context, id string) (*FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, question, answer, alternative_questions, language, category, created_at, updated_at
		FROM faqs WHERE id = ?`, id)
	return scanFAQ(row)
}

// ListFAQs returns all FAQ records ordered by creation time.
func (s *SQLiteStore) ListFAQs(ctx context.Context) ([]*FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, alternative_questions, language, category, created_at, updated_at
		FROM faqs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list FAQs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var faqs []*FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}

// DeleteFAQ removes a FAQ record. Deleting a missing id is not an error.
func (s *SQLiteStore) DeleteFAQ(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete FAQ %s: %w", id, err)
	}
	return nil
}

// SaveIntent inserts or replaces an intent record. A missing id is generated.
func (s *SQLiteStore) SaveIntent(ctx context.Context, intent *Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = now
	}
	intent.UpdatedAt = now

	phrases, err := json.Marshal(intent.TriggerPhrases)
	if err != nil {
		return fmt.Errorf("failed to encode trigger phrases: %w", err)
	}
	config := intent.ActionConfig
	if config == nil {
		config = map[string]any{}
	}
	actionConfig, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode action config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intents (id, name, description, trigger_phrases, action_type, action_config, language, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			description=excluded.description,
			trigger_phrases=excluded.trigger_phrases,
			action_type=excluded.action_type,
			action_config=excluded.action_config,
			language=excluded.language,
			category=excluded.category,
			updated_at=excluded.updated_at`,
		intent.ID, intent.Name, intent.Description, string(phrases), intent.ActionType,
		string(actionConfig), intent.Language, intent.Category, intent.CreatedAt, intent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save intent %s: %w", intent.ID, err)
	}
	return nil
}

// GetIntent returns the intent with the given id, or ErrNotFound.
func (s *SQLiteStore) GetIntent(ctx context.Context, id string) (*Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, trigger_phrases, action_type, action_config, language, category, created_at, updated_at
		FROM intents WHERE id = ?`, id)
	return scanIntent(row)
}

// ListIntents returns all intent records ordered by creation time.
func (s *SQLiteStore) ListIntents(ctx context.Context) ([]*Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, trigger_phrases, action_type, action_config, language, category, created_at, updated_at
		FROM intents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list intents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var intents []*Intent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, rows.Err()
}

// DeleteIntent removes an intent record. Deleting a missing id is not an error.
func (s *SQLiteStore) DeleteIntent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM intents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete intent %s: %w", id, err)
	}
	return nil
}

// CreateQueryLog records one retrieval request.
func (s *SQLiteStore) CreateQueryLog(ctx context.Context, log *QueryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_logs (id, query_text, matched_type, matched_id, matched_question, confidence, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.QueryText, log.MatchedType, log.MatchedID, log.MatchedQuestion,
		log.Confidence, log.ResponseTimeMS, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create query log: %w", err)
	}
	return nil
}

// RecentQueryLogs returns the most recent query logs, newest first.
func (s *SQLiteStore) RecentQueryLogs(ctx context.Context, limit int) ([]*QueryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query_text, matched_type, matched_id, matched_question, confidence, response_time_ms, created_at
		FROM query_logs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*QueryLog
	for rows.Next() {
		log := &QueryLog{}
		if err := rows.Scan(&log.ID, &log.QueryText, &log.MatchedType, &log.MatchedID,
			&log.MatchedQuestion, &log.Confidence, &log.ResponseTimeMS, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// Stats returns aggregate query log analytics.
func (s *SQLiteStore) Stats(ctx context.Context) (*QueryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	stats := &QueryStats{}
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(response_time_ms), 0) FROM query_logs`).
		Scan(&stats.TotalQueries, &stats.AvgResponseTime)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate query logs: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM query_logs WHERE created_at >= ?`, dayStart).
		Scan(&stats.TodayQueries)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's queries: %w", err)
	}

	return stats, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFAQ(row rowScanner) (*FAQ, error) {
	faq := &FAQ{}
	var alts string
	err := row.Scan(&faq.ID, &faq.Question, &faq.Answer, &alts,
		&faq.Language, &faq.Category, &faq.CreatedAt, &faq.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan FAQ: %w", err)
	}
	if err := json.Unmarshal([]byte(alts), &faq.AlternativeQuestions); err != nil {
		return nil, fmt.Errorf("failed to decode alternative questions for %s: %w", faq.ID, err)
	}
	return faq, nil
}

func scanIntent(row rowScanner) (*Intent, error) {
	intent := &Intent{}
	var phrases, config string
	err := row.Scan(&intent.ID, &intent.Name, &intent.Description, &phrases,
		&intent.ActionType, &config, &intent.Language, &intent.Category,
		&intent.CreatedAt, &intent.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan intent: %w", err)
	}
	if err := json.Unmarshal([]byte(phrases), &intent.TriggerPhrases); err != nil {
		return nil, fmt.Errorf("failed to decode trigger phrases for %s: %w", intent.ID, err)
	}
	if err := json.Unmarshal([]byte(config), &intent.ActionConfig); err != nil {
		return nil, fmt.Errorf("failed to decode action config for %s: %w", intent.ID, err)
	}
	return intent, nil
}
