/*
Package history keeps the undo log of a composition surface.

Every committed state of the text field is stored as an Entry together with the
sources that produced it (a keystroke, a tapped suggestion, a backspace...).
The log is ordered most-recent-first and bounded at Size entries; the oldest
entries are silently evicted.

Undo only moves a cursor toward older entries. There is no explicit redo: the
undone entries stay in the log until the next Add, which discards them.

	h := history.New()
	h.Add(history.NewEntry("a", history.Keyboard))
	h.Add(history.NewEntry("ab", history.Keyboard))
	h.Undo()
	h.LastInput().Value() // "a"
*/
package history

import "sync"

// Size is the maximum number of entries kept in the log.
const Size = 250

// SourceKind names the kind of input that produced an entry.
type SourceKind string

const (
	KindBackspace         SourceKind = "BUTTON_BACKSPACE"
	KindDelete            SourceKind = "BUTTON_DELETE"
	KindCharacter         SourceKind = "CHARACTER"
	KindKeyboard          SourceKind = "KEYBOARD"
	KindSnackBar          SourceKind = "SNACK_BAR"
	KindSuggestedSentence SourceKind = "SUGGESTED_SENTENCE"
	KindSuggestedWord     SourceKind = "SUGGESTED_WORD"
)

// Source is the provenance tag of an entry.
// Index is only meaningful for KindSuggestedSentence.
type Source struct {
	Kind  SourceKind `msgpack:"kind" json:"kind"`
	Index int        `msgpack:"index,omitempty" json:"index,omitempty"`
}

var (
	Backspace     = Source{Kind: KindBackspace}
	Delete        = Source{Kind: KindDelete}
	Character     = Source{Kind: KindCharacter}
	Keyboard      = Source{Kind: KindKeyboard}
	SnackBar      = Source{Kind: KindSnackBar}
	SuggestedWord = Source{Kind: KindSuggestedWord}
)

// SuggestedSentence tags an entry committed by tapping the index-th fragment of
// a sentence suggestion.
func SuggestedSentence(index int) Source {
	return Source{Kind: KindSuggestedSentence, Index: index}
}

// IsSuggestion reports whether the source is a tapped suggestion.
func (s Source) IsSuggestion() bool {
	return s.Kind == KindSuggestedWord || s.Kind == KindSuggestedSentence
}

// Entry is an immutable snapshot of the composed text.
type Entry struct {
	value   string
	sources []Source
}

// NewEntry creates an entry. The sources are copied.
func NewEntry(value string, sources ...Source) Entry {
	cp := make([]Source, len(sources))
	copy(cp, sources)
	return Entry{value: value, sources: cp}
}

// Value returns the composed text.
func (e Entry) Value() string { return e.value }

// Sources returns a copy of the provenance tags.
func (e Entry) Sources() []Source {
	cp := make([]Source, len(e.sources))
	copy(cp, e.sources)
	return cp
}

// Suggested reports whether any source of the entry is a suggestion.
func (e Entry) Suggested() bool {
	for _, s := range e.sources {
		if s.IsSuggestion() {
			return true
		}
	}
	return false
}

// History is a bounded, linear undo log.
// It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []Entry // entries[0] is the most recent
	cursor  int
	limit   int
}

// New returns a log holding only the synthetic empty entry.
func New() *History {
	return newWithLimit(Size)
}

func newWithLimit(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{
		entries: []Entry{NewEntry("")},
		limit:   limit,
	}
}

// Add discards the undone entries, prepends e and resets the cursor.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.entries[h.cursor:]
	n := len(kept) + 1
	if n > h.limit {
		n = h.limit
	}
	next := make([]Entry, 0, n)
	next = append(next, e)
	next = append(next, kept[:n-1]...)

	h.entries = next
	h.cursor = 0
}

// CanUndo reports whether an older entry exists behind the cursor.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canUndo()
}

func (h *History) canUndo() bool {
	return h.cursor < len(h.entries)-1
}

// Undo moves the cursor one entry back. It is a no-op at the oldest entry.
func (h *History) Undo() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.canUndo() {
		h.cursor++
	}
}

// LastInput returns the entry at the cursor.
func (h *History) LastInput() Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastInput()
}

func (h *History) lastInput() Entry {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return NewEntry("")
	}
	return h.entries[h.cursor]
}

// IsLastInputSuggested reports whether the entry at the cursor came from a
// suggestion tap.
func (h *History) IsLastInputSuggested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastInput().Suggested()
}

// Len returns the number of retained entries, undone ones included.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of the log, most recent first.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]Entry, len(h.entries))
	copy(cp, h.entries)
	return cp
}
