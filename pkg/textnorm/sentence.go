package textnorm

import (
	"strings"
	"unicode/utf8"
)

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '?', '。', '？':
		return true
	}
	return false
}

// LastSentence returns the sentence the user is currently editing: the last
// non-blank piece of text after splitting on sentence terminators.
func LastSentence(text string) string {
	var last string
	for _, part := range strings.FieldsFunc(text, isSentenceEnd) {
		if p := strings.TrimSpace(part); p != "" {
			last = p
		}
	}
	return last
}

// SmallKanaTrigger is the private-use character emitted by the gojūon keyboard's
// 小 key. It toggles the preceding kana between its normal and small form.
const SmallKanaTrigger = "\uf000"

var smallKana = map[rune]rune{
	'あ': 'ぁ',
	'い': 'ぃ',
	'う': 'ぅ',
	'え': 'ぇ',
	'お': 'ぉ',
	'つ': 'っ',
	'や': 'ゃ',
	'ゆ': 'ゅ',
	'よ': 'ょ',
	'わ': 'ゎ',
	'か': 'ゕ',
	'け': 'ゖ',
}

var largeKana = func() map[rune]rune {
	m := make(map[rune]rune, len(smallKana))
	for k, v := range smallKana {
		m[v] = k
	}
	return m
}()

// ComposeCharacter applies one keyboard character to current.
// Regular characters are appended. SmallKanaTrigger toggles the last kana
// (や ↔ ゃ) and is ignored when the last character has no small form.
func ComposeCharacter(current, incoming string) string {
	if incoming != SmallKanaTrigger {
		return current + incoming
	}
	last, size := utf8.DecodeLastRuneInString(current)
	if size == 0 {
		return current
	}
	head := current[:len(current)-size]
	if r, ok := smallKana[last]; ok {
		return head + string(r)
	}
	if r, ok := largeKana[last]; ok {
		return head + string(r)
	}
	return current
}
