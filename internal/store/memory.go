package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory AdminStore used by tests and ephemeral setups.
type MemoryStore struct {
	mu      sync.RWMutex
	faqs    map[string]*FAQ
	intents map[string]*Intent
	logs    []*QueryLog
	closed  bool
}

// Verify interface implementation at compile time
var _ AdminStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		faqs:    make(map[string]*FAQ),
		intents: make(map[string]*Intent),
	}
}

// SaveFAQ inserts or replaces a FAQ record. A missing id is generated.
func (s *MemoryStore) SaveFAQ(ctx context.Context, faq *FAQ) error {
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

	clone := *faq
	s.faqs[faq.ID] = &clone
	return nil
}

// GetFAQ returns the FAQ with the given id, or ErrNotFound.
func (s *MemoryStore) GetFAQ(ctx context.Context, id string) (*FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	faq, ok := s.faqs[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *faq
	return &clone, nil
}

// ListFAQs returns all FAQ records ordered by creation time.
func (s *MemoryStore) ListFAQs(ctx context.Context) ([]*FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	faqs := make([]*FAQ, 0, len(s.faqs))
	for _, faq := range s.faqs {
		clone := *faq
		faqs = append(faqs, &clone)
	}
	sort.Slice(faqs, func(i, j int) bool {
		if !faqs[i].CreatedAt.Equal(faqs[j].CreatedAt) {
			return faqs[i].CreatedAt.Before(faqs[j].CreatedAt)
		}
		return faqs[i].ID < faqs[j].ID
	})
	return faqs, nil
}

// DeleteFAQ removes a FAQ record.
func (s *MemoryStore) DeleteFAQ(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.faqs, id)
	return nil
}

// SaveIntent inserts or replaces an intent record. A missing id is generated.
func (s *MemoryStore) SaveIntent(ctx context.Context, intent *Intent) error {
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

	clone := *intent
	s.intents[intent.ID] = &clone
	return nil
}

// GetIntent returns the intent with the given id, or ErrNotFound.
func (s *MemoryStore) GetIntent(ctx context.Context, id string) (*Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	intent, ok := s.intents[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *intent
	return &clone, nil
}

// ListIntents returns all intent records ordered by creation time.
func (s *MemoryStore) ListIntents(ctx context.Context) ([]*Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	intents := make([]*Intent, 0, len(s.intents))
	for _, intent := range s.intents {
		clone := *intent
		intents = append(intents, &clone)
	}
	sort.Slice(intents, func(i, j int) bool {
		if !intents[i].CreatedAt.Equal(intents[j].CreatedAt) {
			return intents[i].CreatedAt.Before(intents[j].CreatedAt)
		}
		return intents[i].ID < intents[j].ID
	})
	return intents, nil
}

// DeleteIntent removes an intent record.
func (s *MemoryStore) DeleteIntent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.intents, id)
	return nil
}

// CreateQueryLog records one retrieval request.
func (s *MemoryStore) CreateQueryLog(ctx context.Context, log *QueryLog) error {
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
	clone := *log
	s.logs = append(s.logs, &clone)
	return nil
}

// RecentQueryLogs returns the most recent query logs, newest first.
func (s *MemoryStore) RecentQueryLogs(ctx context.Context, limit int) ([]*QueryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}

	logs := make([]*QueryLog, 0, limit)
	for i := len(s.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		clone := *s.logs[i]
		logs = append(logs, &clone)
	}
	return logs, nil
}

// Stats returns aggregate query log analytics.
func (s *MemoryStore) Stats(ctx context.Context) (*QueryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	stats := &QueryStats{TotalQueries: len(s.logs)}
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	var totalMS float64
	for _, log := range s.logs {
		totalMS += log.ResponseTimeMS
		if !log.CreatedAt.Before(dayStart) {
			stats.TodayQueries++
		}
	}
	if len(s.logs) > 0 {
		stats.AvgResponseTime = totalMS / float64(len(s.logs))
	}
	return stats, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
