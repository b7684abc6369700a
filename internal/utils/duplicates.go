package utils

import (
	"strings"
)

// SuggestionFilter drops repeated and blank suggestions. Matching ignores
// case and surrounding spaces.
type SuggestionFilter struct {
	seen map[string]bool
}

// NewSuggestionFilter creates a filter that also rejects the given words,
// e.g. what the user already typed.
func NewSuggestionFilter(exclude ...string) *SuggestionFilter {
	f := &SuggestionFilter{seen: make(map[string]bool, len(exclude))}
	for _, w := range exclude {
		f.seen[foldKey(w)] = true
	}
	return f
}

// ShouldInclude reports whether word is new, and remembers it.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	key := foldKey(word)
	if key == "" || f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

// Dedupe returns words without blanks and repeats, keeping first occurrences.
func Dedupe(words []string) []string {
	f := NewSuggestionFilter()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f.ShouldInclude(w) {
			out = append(out, w)
		}
	}
	return out
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
