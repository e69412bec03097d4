// Package extract recognizes slotted trigger phrases against free text and
// binds slot names to substrings. A trigger phrase like
// "search {book_name} by {author}" matched against "search Dune by Herbert"
// yields {book_name: Dune, author: Herbert}.
package extract

import (
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPatternCacheSize is the default number of compiled trigger-phrase
// patterns kept in memory. Phrases are keyed by content, so an updated
// phrase naturally misses the cache and recompiles.
const DefaultPatternCacheSize = 512

// slotPattern matches {slot_name} placeholders in a trigger phrase.
var slotPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// escapedSlotPattern matches a slot placeholder after regexp.QuoteMeta has
// escaped the surrounding braces.
var escapedSlotPattern = regexp.MustCompile(`\\\{([^{}]+)\\\}`)

// Extractor matches slotted trigger phrases and extracts named parameters.
// Compiled patterns are cached; the zero value is not usable, use New.
// Safe for concurrent use.
type Extractor struct {
	patterns *lru.Cache[string, *regexp.Regexp]
}

// New creates an extractor with the given pattern cache size.
func New(cacheSize int) *Extractor {
	if cacheSize <= 0 {
		cacheSize = DefaultPatternCacheSize
	}
	cache, _ := lru.New[string, *regexp.Regexp](cacheSize)
	return &Extractor{patterns: cache}
}

// HasSlots reports whether the trigger phrase contains any {slot} placeholder.
func HasSlots(phrase string) bool {
	return slotPattern.MatchString(phrase)
}

// SlotNames returns the slot names of a trigger phrase in order.
func SlotNames(phrase string) []string {
	matches := slotPattern.FindAllStringSubmatch(phrase, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ConvertToRegex converts a slotted trigger phrase to a regex pattern.
// Literal characters are escaped and each {name} becomes a named greedy
// capture group. If the phrase ends with a slot, the pattern is anchored to
// end-of-string (trailing whitespace tolerant) so the final slot does not
// swallow unrelated trailing text.
func ConvertToRegex(phrase string) string {
	pattern := escapedSlotPattern.ReplaceAllString(regexp.QuoteMeta(phrase), `(?P<$1>.+)`)
	if strings.HasSuffix(strings.TrimRight(phrase, " \t"), "}") {
		pattern += `\s*$`
	}
	return pattern
}

// ExtractParameters matches query against a slotted trigger phrase and
// returns the bound slot values with surrounding whitespace trimmed.
// Returns nil when the phrase does not match. A pattern that fails to
// compile (e.g. a slot name that is not a valid group name) is logged and
// treated as a non-match; the caller moves on to the next phrase.
func (e *Extractor) ExtractParameters(query, phrase string) map[string]string {
	if !HasSlots(phrase) {
		return map[string]string{}
	}

	re, err := e.compile(phrase)
	if err != nil {
		slog.Warn("trigger_phrase_compile_failed",
			slog.String("phrase", phrase),
			slog.String("error", err.Error()))
		return nil
	}

	// Not anchored at the start: the phrase may appear as a substring of a
	// longer utterance.
	match := re.FindStringSubmatch(query)
	if match == nil {
		return nil
	}

	params := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		params[name] = strings.TrimSpace(match[i])
	}
	return params
}

// MatchAndExtract tries each trigger phrase in its stored order against the
// query and returns the first match with its extracted parameters.
// First-match-wins: later phrases are never considered once one succeeds,
// even if they would bind more parameters.
func (e *Extractor) MatchAndExtract(query string, triggerPhrases []string) (bool, string, map[string]string) {
	queryLower := strings.ToLower(strings.TrimSpace(query))

	for _, phrase := range triggerPhrases {
		if HasSlots(phrase) {
			if params := e.ExtractParameters(query, phrase); params != nil {
				return true, phrase, params
			}
			continue
		}

		// Slotless phrases match by case-insensitive substring in either
		// direction.
		phraseLower := strings.ToLower(strings.TrimSpace(phrase))
		if phraseLower == "" {
			continue
		}
		if strings.Contains(queryLower, phraseLower) || strings.Contains(phraseLower, queryLower) {
			return true, phrase, map[string]string{}
		}
	}

	return false, "", map[string]string{}
}

// ValidateParameters checks that all required parameter names are bound to
// non-empty values. Returns whether the set is valid plus the missing names.
func ValidateParameters(params map[string]string, required []string) (bool, []string) {
	var missing []string
	for _, name := range required {
		if v, ok := params[name]; !ok || v == "" {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}

// compile returns the cached compiled pattern for a trigger phrase,
// compiling and caching it on first use.
func (e *Extractor) compile(phrase string) (*regexp.Regexp, error) {
	if re, ok := e.patterns.Get(phrase); ok {
		return re, nil
	}

	re, err := regexp.Compile(`(?i)` + ConvertToRegex(phrase))
	if err != nil {
		return nil, err
	}
	e.patterns.Add(phrase, re)
	return re, nil
}
