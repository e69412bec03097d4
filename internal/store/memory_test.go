package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ImplementsContract(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	faq := &FAQ{Question: "q", Answer: "a", AlternativeQuestions: []string{"alt"}}
	require.NoError(t, s.SaveFAQ(ctx, faq))

	intent := &Intent{Name: "open_app", ActionType: "open_app", TriggerPhrases: []string{"open library app"}}
	require.NoError(t, s.SaveIntent(ctx, intent))

	faqs, err := s.ListFAQs(ctx)
	require.NoError(t, err)
	assert.Len(t, faqs, 1)

	intents, err := s.ListIntents(ctx)
	require.NoError(t, err)
	assert.Len(t, intents, 1)

	got, err := s.GetFAQ(ctx, faq.ID)
	require.NoError(t, err)
	assert.Equal(t, "q", got.Question)

	_, err = s.GetIntent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	faq := &FAQ{Question: "original", Answer: "a"}
	require.NoError(t, s.SaveFAQ(ctx, faq))

	got, err := s.GetFAQ(ctx, faq.ID)
	require.NoError(t, err)
	got.Question = "mutated"

	again, err := s.GetFAQ(ctx, faq.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Question)
}

func TestMemoryStore_StatsEmpty(t *testing.T) {
	s := NewMemoryStore()

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalQueries)
	assert.Zero(t, stats.AvgResponseTime)
}
