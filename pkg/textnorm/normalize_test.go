package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		fromSuggestion bool
		want           string
	}{
		{"keeps trailing spaces", "hello ", false, "hello "},
		{"removes leading spaces", " hello", false, "hello"},
		{"removes leading unicode spaces", "　\thello", false, "hello"},
		{"collapses redundant spaces", "hello  world", false, "hello world"},
		{"collapses only first run", "a  b  c", false, "a b  c"},
		{"composes dakuon and handakuon", "ハ\u309cンくた\u309bさい", false, "パンください"},
		{"keeps marks that cannot compose", "た\u309cあ\u309b", false, "た\u309cあ\u309b"},
		{"composes combining marks", "か\u3099", false, "が"},
		{"folds full width latin", "ＡＢＣ", false, "ABC"},
		{"suggestion punctuation hugs word", "I am here .", true, "I am here."},
		{"suggestion comma hugs word", "yes ,", true, "yes,"},
		{"keyboard punctuation untouched", "I am here .", false, "I am here ."},
		{"only one space removed", "wait  ?", true, "wait?"},
		{"empty", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input, tt.fromSuggestion))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"hello ",
		"  hello  world",
		"ハ\u309cンくた\u309bさい",
		"た\u309cあ\u309b",
		"ｶﾞｷﾞ",
		"aﾞ",
		"Yes , I can .",
		"今日は　いい天気",
		"I'm fine, thanks!",
	}
	for _, s := range inputs {
		for _, fromSuggestion := range []bool{false, true} {
			once := Normalize(s, fromSuggestion)
			assert.Equal(t, once, Normalize(once, fromSuggestion), "input %q", s)
		}
	}
}
