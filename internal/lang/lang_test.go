package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_CJK(t *testing.T) {
	assert.Equal(t, LanguageZH, Detect("图书馆几点关门？"))
	assert.Equal(t, LanguageZH, Detect("where is 图书馆"))
}

func TestDetect_Latin(t *testing.T) {
	assert.Equal(t, LanguageEN, Detect("when does the library close"))
	assert.Equal(t, LanguageEN, Detect(""))
	assert.Equal(t, LanguageEN, Detect("123 !?"))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, LanguageZH, Resolve(LanguageAuto, "你好"))
	assert.Equal(t, LanguageEN, Resolve("", "hello"))
	// Explicit language is never overridden.
	assert.Equal(t, LanguageEN, Resolve(LanguageEN, "你好"))
}

func TestTokenize_Latin(t *testing.T) {
	tokens := Tokenize("Is there WiFi?", LanguageEN)
	assert.Equal(t, []string{"is", "there", "wifi"}, tokens)
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize("", LanguageEN))
	assert.Empty(t, Tokenize("   ", LanguageAuto))
}

func TestTokenize_CJK_UnigramsAndBigrams(t *testing.T) {
	tokens := Tokenize("关门", LanguageZH)
	assert.Equal(t, []string{"关", "门", "关门"}, tokens)
}

func TestTokenize_CJK_MixedLatin(t *testing.T) {
	tokens := Tokenize("wifi密码", LanguageAuto)
	assert.Contains(t, tokens, "wifi")
	assert.Contains(t, tokens, "密")
	assert.Contains(t, tokens, "码")
	assert.Contains(t, tokens, "密码")
}

func TestTokenize_CJK_PunctuationBreaksBigrams(t *testing.T) {
	// No bigram should span the punctuation gap.
	tokens := Tokenize("关，门", LanguageZH)
	assert.NotContains(t, tokens, "关门")
}
