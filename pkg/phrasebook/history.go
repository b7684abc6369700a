// Package phrasebook remembers what the user said: finished sentences for
// prefix recall and the spoken conversation for provider context.
package phrasebook

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bastiangx/phrasekit/pkg/textnorm"
)

const (
	// MinMessageLength is the rune length a sentence must exceed to be kept.
	MinMessageLength = 3
	// MaxEditDiffLength is the growth below which an extended sentence is
	// treated as the previous one still being edited.
	MaxEditDiffLength = 10
	// HistoryLimit caps the number of remembered sentences.
	HistoryLimit = 1024
)

// Message is a remembered sentence. It is stored as a [sentence, unixMillis]
// pair.
type Message struct {
	Sentence string
	At       time.Time
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Sentence, m.At.UnixMilli()})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("message: want [sentence, millis], got %d items", len(pair))
	}
	var ms float64
	if err := json.Unmarshal(pair[0], &m.Sentence); err != nil {
		return fmt.Errorf("message sentence: %w", err)
	}
	if err := json.Unmarshal(pair[1], &ms); err != nil {
		return fmt.Errorf("message time: %w", err)
	}
	m.At = time.UnixMilli(int64(ms))
	return nil
}

// MessageHistory is an ordered, de-duplicated list of sentences, oldest first,
// indexed by a patricia trie for prefix recall.
type MessageHistory struct {
	mu       sync.RWMutex
	messages []Message
	trie     *patricia.Trie
	seq      int64
}

// NewMessageHistory returns a history seeded with msgs, oldest first.
func NewMessageHistory(msgs []Message) *MessageHistory {
	h := &MessageHistory{}
	h.reset(msgs)
	return h
}

// reset keeps the newest copy of each sentence. The trie holds one key per
// sentence, so messages must not repeat one.
func (h *MessageHistory) reset(msgs []Message) {
	seen := make(map[string]bool, len(msgs))
	kept := make([]Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		if seen[msgs[i].Sentence] {
			continue
		}
		seen[msgs[i].Sentence] = true
		kept = append(kept, msgs[i])
	}
	slices.Reverse(kept)
	if len(kept) > HistoryLimit {
		kept = kept[len(kept)-HistoryLimit:]
	}
	h.messages = kept
	h.trie = patricia.NewTrie()
	h.seq = 0
	for _, m := range h.messages {
		h.index(m.Sentence)
	}
}

// index records sentence as the newest occurrence.
func (h *MessageHistory) index(sentence string) {
	h.seq++
	h.trie.Set(patricia.Prefix(sentence), h.seq)
}

// Record stores the last sentence of text. It reports whether the history
// changed.
func (h *MessageHistory) Record(text string, now time.Time) bool {
	current := textnorm.LastSentence(text)
	if utf8.RuneCountInString(current) <= MinMessageLength {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.messages); n > 0 {
		last := h.messages[n-1].Sentence
		grown := utf8.RuneCountInString(current) - utf8.RuneCountInString(last)
		if strings.HasPrefix(last, current) ||
			(strings.HasPrefix(current, last) && grown < MaxEditDiffLength) {
			h.messages = h.messages[:n-1]
			h.trie.Delete(patricia.Prefix(last))
		}
	}

	kept := h.messages[:0]
	for _, m := range h.messages {
		if m.Sentence != current {
			kept = append(kept, m)
		}
	}
	h.messages = append(kept, Message{Sentence: current, At: now})
	h.index(current)

	if over := len(h.messages) - HistoryLimit; over > 0 {
		for _, m := range h.messages[:over] {
			h.trie.Delete(patricia.Prefix(m.Sentence))
		}
		h.messages = append([]Message(nil), h.messages[over:]...)
	}
	return true
}

// Search returns the most recently recorded sentence that strictly extends
// the last sentence of text.
func (h *MessageHistory) Search(text string) (string, bool) {
	current := textnorm.LastSentence(text)
	if current == "" {
		return "", false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var (
		best    string
		bestSeq int64 = -1
	)
	err := h.trie.VisitSubtree(patricia.Prefix(current), func(p patricia.Prefix, item patricia.Item) error {
		sentence := string(p)
		if sentence == current {
			return nil
		}
		if seq := item.(int64); seq > bestSeq {
			best, bestSeq = sentence, seq
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting message trie: %v", err)
		return "", false
	}
	return best, bestSeq >= 0
}

// Messages returns a copy of the history, oldest first.
func (h *MessageHistory) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Message(nil), h.messages...)
}

// Len returns the number of remembered sentences.
func (h *MessageHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Replace swaps the whole history, e.g. after reloading settings.
func (h *MessageHistory) Replace(msgs []Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reset(msgs)
}
