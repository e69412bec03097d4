// Package lang provides language detection and language-aware tokenization
// for the retrieval indexes. BM25 term statistics are meaningless unless
// tokens match the natural granularity of the language, so Chinese text is
// segmented at the ideograph level while Latin-script text is split on word
// boundaries.
package lang

import (
	"regexp"
	"strings"
	"unicode"
)

// Language codes used throughout the engine.
const (
	// LanguageZH is the code assigned to CJK text.
	LanguageZH = "zh"

	// LanguageEN is the default code for Latin-script text.
	LanguageEN = "en"

	// LanguageAuto requests detection from the text itself.
	LanguageAuto = "auto"
)

// wordRegex matches alphanumeric word sequences in Latin-script text.
var wordRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Detect classifies text as "zh" if it contains any CJK ideograph,
// otherwise "en". Pure function of the input text.
func Detect(text string) string {
	for _, r := range text {
		if isCJK(r) {
			return LanguageZH
		}
	}
	return LanguageEN
}

// Resolve maps "auto" (or empty) to the detected language of text and
// returns any explicit language code unchanged.
func Resolve(language, text string) string {
	if language == "" || language == LanguageAuto {
		return Detect(text)
	}
	return language
}

// Tokenize splits text into index terms for the given language.
//
// For "zh" it emits one token per CJK ideograph plus a bigram for each
// adjacent ideograph pair; embedded Latin words are kept whole. For any
// other language it lowercases and splits on non-alphanumeric boundaries.
func Tokenize(text, language string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	if Resolve(language, text) == LanguageZH {
		return tokenizeCJK(text)
	}
	return tokenizeLatin(text)
}

// tokenizeLatin splits on word boundaries and lowercases.
func tokenizeLatin(text string) []string {
	words := wordRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, strings.ToLower(w))
	}
	return tokens
}

// tokenizeCJK emits ideograph unigrams and adjacent-pair bigrams. Runs of
// Latin letters or digits inside CJK text are emitted as whole lowercase
// tokens so mixed queries like "wifi密码" still match.
func tokenizeCJK(text string) []string {
	var tokens []string
	var word strings.Builder
	var prev rune

	flushWord := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushWord()
			tokens = append(tokens, string(r))
			if prev != 0 {
				tokens = append(tokens, string(prev)+string(r))
			}
			prev = r
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
			prev = 0
		default:
			flushWord()
			prev = 0
		}
	}
	flushWord()

	return tokens
}

// isCJK reports whether r falls in the CJK Unified Ideographs range
// (including Extension A).
func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF)
}
