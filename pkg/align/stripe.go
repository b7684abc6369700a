package align

// Segmenter splits and joins words the way a language does.
// *language.Language satisfies it.
type Segmenter interface {
	Segment(sentence string) []string
	Join(words []string) string
}

// Fragment is one selectable word of a stripe.
type Fragment struct {
	// Index of the word in Stripe.Words.
	Index int    `msgpack:"index"`
	Word  string `msgpack:"word"`
}

// Stripe is a suggested sentence aligned against the text typed so far.
type Stripe struct {
	seg        Segmenter
	suggestion string
	words      []string
	leading    []string
}

// NewStripe aligns suggestion against offset, the prefix it shares with the
// normalized typed text.
func NewStripe(seg Segmenter, suggestion, offset string) *Stripe {
	words := SplitPunctuations(seg.Segment(suggestion))
	return &Stripe{
		seg:        seg,
		suggestion: suggestion,
		words:      words,
		leading:    LeadingWords(words, SplitPunctuations(seg.Segment(offset))),
	}
}

// Suggestion returns the sentence the stripe was built from.
func (s *Stripe) Suggestion() string { return s.suggestion }

// Words returns every word of the suggestion, punctuation split off.
func (s *Stripe) Words() []string { return append([]string(nil), s.words...) }

// Leading returns the words already covered by the typed text.
func (s *Stripe) Leading() []string { return append([]string(nil), s.leading...) }

// Elided reports whether leading words are hidden from the fragments.
func (s *Stripe) Elided() bool { return len(s.leading) > 0 }

// Fragments returns the selectable words after the leading ones.
func (s *Stripe) Fragments() []Fragment {
	out := make([]Fragment, 0, len(s.words)-len(s.leading))
	for i := len(s.leading); i < len(s.words); i++ {
		out = append(out, Fragment{Index: i, Word: s.words[i]})
	}
	return out
}

// Select commits the suggestion up to and including word i. It returns the
// text to place in the field and the selection index relative to the first
// fragment. ok is false when i is not a fragment index.
func (s *Stripe) Select(i int) (text string, index int, ok bool) {
	if i < len(s.leading) || i >= len(s.words) {
		return "", 0, false
	}
	return s.seg.Join(s.words[:i+1]), i - len(s.leading), true
}
