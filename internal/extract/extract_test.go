package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSlots(t *testing.T) {
	assert.True(t, HasSlots("search {book_name}"))
	assert.True(t, HasSlots("{a} and {b}"))
	assert.False(t, HasSlots("open library app"))
	assert.False(t, HasSlots(""))
}

func TestSlotNames(t *testing.T) {
	assert.Equal(t, []string{"book_name", "author"}, SlotNames("search {book_name} by {author}"))
	assert.Empty(t, SlotNames("no slots here"))
}

func TestConvertToRegex_AnchorsTrailingSlot(t *testing.T) {
	pattern := ConvertToRegex("find {book_name}")
	assert.Contains(t, pattern, `(?P<book_name>.+)`)
	assert.True(t, len(pattern) > 0 && pattern[len(pattern)-1] == '$')
}

func TestConvertToRegex_NoAnchorForLiteralTail(t *testing.T) {
	pattern := ConvertToRegex("play {song} for me")
	assert.NotContains(t, pattern, `$`)
}

func TestExtractParameters_RoundTrip(t *testing.T) {
	e := New(0)

	params := e.ExtractParameters("search Dune by Herbert", "search {book_name} by {author}")
	require.NotNil(t, params)
	assert.Equal(t, "Dune", params["book_name"])
	assert.Equal(t, "Herbert", params["author"])
}

func TestExtractParameters_CaseInsensitiveSubstring(t *testing.T) {
	e := New(0)

	params := e.ExtractParameters("Could you SEARCH Dune BY Herbert thanks", "search {book_name} by {author}")
	require.NotNil(t, params)
	assert.Equal(t, "Dune", params["book_name"])
	// Trailing slot is end-anchored, so unrelated tail text stays out only
	// when the phrase does not end with a slot; here the author slot is
	// terminal and greedy, matching through the tail.
	assert.Equal(t, "Herbert thanks", params["author"])
}

func TestExtractParameters_NoMatch(t *testing.T) {
	e := New(0)

	assert.Nil(t, e.ExtractParameters("completely unrelated", "search {book_name} by {author}"))
}

func TestExtractParameters_NoSlots(t *testing.T) {
	e := New(0)

	params := e.ExtractParameters("anything", "no slots")
	require.NotNil(t, params)
	assert.Empty(t, params)
}

func TestExtractParameters_TrimsWhitespace(t *testing.T) {
	e := New(0)

	params := e.ExtractParameters("find  Harry Potter  ", "find {book_name}")
	require.NotNil(t, params)
	assert.Equal(t, "Harry Potter", params["book_name"])
}

func TestExtractParameters_BadSlotNameSkipped(t *testing.T) {
	e := New(0)

	// "book name" is not a valid capture group name; the phrase must be
	// treated as a non-match, not a panic or an error.
	assert.Nil(t, e.ExtractParameters("find Dune", "find {book name}"))
}

func TestMatchAndExtract_SlotlessSubstring(t *testing.T) {
	e := New(0)

	matched, phrase, params := e.MatchAndExtract("please open library app now", []string{"open library app"})
	assert.True(t, matched)
	assert.Equal(t, "open library app", phrase)
	assert.Empty(t, params)
}

func TestMatchAndExtract_FirstMatchWins(t *testing.T) {
	e := New(0)

	// Both phrases match; the first in stored order must win even though
	// the second would bind more parameters.
	matched, phrase, params := e.MatchAndExtract("search Dune by Herbert", []string{
		"search {book_name}",
		"search {book_name} by {author}",
	})
	require.True(t, matched)
	assert.Equal(t, "search {book_name}", phrase)
	assert.Equal(t, "Dune by Herbert", params["book_name"])
	assert.NotContains(t, params, "author")
}

func TestMatchAndExtract_SkipsNonMatchingPhrases(t *testing.T) {
	e := New(0)

	matched, phrase, params := e.MatchAndExtract("borrow The Hobbit", []string{
		"return {book_name}",
		"borrow {book_name}",
	})
	require.True(t, matched)
	assert.Equal(t, "borrow {book_name}", phrase)
	assert.Equal(t, "The Hobbit", params["book_name"])
}

func TestMatchAndExtract_NoMatch(t *testing.T) {
	e := New(0)

	matched, phrase, params := e.MatchAndExtract("unrelated", []string{"open library app", "find {x}"})
	assert.False(t, matched)
	assert.Empty(t, phrase)
	assert.Empty(t, params)
}

func TestMatchAndExtract_CompileFailureFallsThrough(t *testing.T) {
	e := New(0)

	// The malformed phrase is skipped and the next phrase still matches.
	matched, phrase, _ := e.MatchAndExtract("open library app", []string{
		"find {bad name}",
		"open library app",
	})
	assert.True(t, matched)
	assert.Equal(t, "open library app", phrase)
}

func TestValidateParameters(t *testing.T) {
	ok, missing := ValidateParameters(map[string]string{"a": "1", "b": ""}, []string{"a", "b", "c"})
	assert.False(t, ok)
	assert.Equal(t, []string{"b", "c"}, missing)

	ok, missing = ValidateParameters(map[string]string{"a": "1"}, nil)
	assert.True(t, ok)
	assert.Empty(t, missing)
}
