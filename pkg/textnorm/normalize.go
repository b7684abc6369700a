// Package textnorm canonicalizes composed text before it is stored, compared
// against suggestions or sent to a provider.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// Display forms of the kana voiced / semi-voiced sound marks.
	voicedMark     = "\u309b" // ゛
	semiVoicedMark = "\u309c" // ゜

	// Combining forms that NFKC composes with a preceding kana.
	combiningVoiced     = "\u3099"
	combiningSemiVoiced = "\u309a"
)

// ws mirrors the ECMAScript \s class so Unicode spaces collapse like ASCII ones.
const ws = `[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

var (
	leadingSpace   = regexp.MustCompile(`^` + ws + `+`)
	repeatedSpace  = regexp.MustCompile(ws + ws + `+`)
	spaceThenPunct = regexp.MustCompile(` ([,.?!])$`)

	toCombining = strings.NewReplacer(
		voicedMark, combiningVoiced,
		semiVoicedMark, combiningSemiVoiced,
	)
	toDisplay = strings.NewReplacer(
		combiningVoiced, voicedMark,
		combiningSemiVoiced, semiVoicedMark,
	)
)

// Normalize returns the canonical form of text.
//
// Kana followed by a sound mark is composed into a single character (ハ゜ → パ),
// leading whitespace is removed and the first run of repeated whitespace is
// collapsed to one space. Marks that cannot compose keep their display form.
//
// When fromSuggestion is set, a single space before trailing punctuation is
// removed so that the punctuation hugs the previous word.
func Normalize(text string, fromSuggestion bool) string {
	s := toCombining.Replace(text)
	s = norm.NFKC.String(s)
	s = toDisplay.Replace(s)

	s = leadingSpace.ReplaceAllString(s, "")
	// Only the first run is collapsed.
	if loc := repeatedSpace.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + " " + s[loc[1]:]
	}

	if fromSuggestion {
		s = spaceThenPunct.ReplaceAllString(s, "$1")
	}
	return s
}
