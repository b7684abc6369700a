// Package align lines up free-typed text with a suggested sentence so that
// only the part of the suggestion the user has not typed yet is offered for
// selection.
package align

import (
	"regexp"
	"unicode/utf8"
)

var trailingPunct = regexp.MustCompile(`^(.*[^.,!?])([.,!?]+)$`)

// SplitPunctuations splits every word that ends in a run of .,!? into the
// word and the punctuation run. Words made only of punctuation, or with
// punctuation inside (example.com), are left alone.
func SplitPunctuations(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if m := trailingPunct.FindStringSubmatch(w); m != nil {
			out = append(out, m[1], m[2])
			continue
		}
		out = append(out, w)
	}
	return out
}

// LeadingWords returns the longest prefix of words that matches offsetWords
// item by item. Neither slice is modified.
func LeadingWords(words, offsetWords []string) []string {
	n := 0
	for n < len(words) && n < len(offsetWords) && words[n] == offsetWords[n] {
		n++
	}
	return append([]string{}, words[:n]...)
}

// SharedPrefix returns the longest common prefix of ss, compared rune by
// rune. An empty input yields "".
func SharedPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	first := ss[0]
	end := 0
	for end < len(first) {
		_, size := utf8.DecodeRuneInString(first[end:])
		for _, s := range ss[1:] {
			// Invalid bytes all decode to RuneError, so compare the bytes.
			if end+size > len(s) || first[end:end+size] != s[end:end+size] {
				return first[:end]
			}
		}
		end += size
	}
	return first
}
