package language

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rivo/uniseg"
)

// continuation marks a suggested word that must be fused to the previous text.
const continuation = "-"

type script interface {
	segment(sentence string) []string
	join(words []string) string
	appendWord(text, word string) string
}

// spaceBeforePunct matches the space a punctuation split leaves behind,
// e.g. "Yes , I can ." -> "Yes, I can."
var spaceBeforePunct = regexp.MustCompile(` ([.,!?]+(?: |$))`)

type spaceDelimited struct{}

func (spaceDelimited) segment(sentence string) []string {
	return strings.Split(sentence, " ")
}

func (spaceDelimited) join(words []string) string {
	return spaceBeforePunct.ReplaceAllString(strings.Join(words, " "), "$1") + " "
}

func (spaceDelimited) appendWord(text, word string) string {
	if rest, ok := strings.CutPrefix(word, continuation); ok {
		return text + rest + " "
	}
	return text + " " + word + " "
}

// WordBreaker splits text of a script without word separators into words.
type WordBreaker interface {
	Break(sentence string) ([]string, error)
}

type noSpace struct {
	breaker WordBreaker
}

func (s noSpace) segment(sentence string) []string {
	if s.breaker == nil {
		return []string{sentence}
	}
	words, err := s.breaker.Break(sentence)
	if err != nil {
		log.Debugf("word breaker unavailable, keeping sentence whole: %v", err)
		return []string{sentence}
	}
	return words
}

func (noSpace) join(words []string) string {
	return strings.Join(words, "")
}

func (noSpace) appendWord(text, word string) string {
	return text + strings.TrimPrefix(word, continuation)
}

// UnicodeWordBreaker breaks text on Unicode (UAX #29) word boundaries.
// Whitespace runs are kept as their own words so that joining the result
// restores the input.
type UnicodeWordBreaker struct{}

// Break implements WordBreaker.
func (UnicodeWordBreaker) Break(sentence string) ([]string, error) {
	var (
		words []string
		word  string
		state = -1
	)
	for rest := sentence; len(rest) > 0; {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		words = append(words, word)
	}
	if len(words) == 0 {
		words = []string{sentence}
	}
	return words, nil
}
