package phrasebook

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.UnixMilli(1_700_000_000_000)

func sentences(h *MessageHistory) []string {
	var out []string
	for _, m := range h.Messages() {
		out = append(out, m.Sentence)
	}
	return out
}

func TestRecordIgnoresShortSentences(t *testing.T) {
	h := NewMessageHistory(nil)
	assert.False(t, h.Record("Hi.", epoch))
	assert.False(t, h.Record("Hello. yes", epoch))
	assert.False(t, h.Record("", epoch))
	assert.Equal(t, 0, h.Len())
}

func TestRecordReplacesSentenceBeingEdited(t *testing.T) {
	h := NewMessageHistory(nil)
	h.Record("I want", epoch)
	h.Record("I want to", epoch.Add(time.Second))
	assert.Equal(t, []string{"I want to"}, sentences(h))

	// Deleting characters also edits the same sentence.
	h.Record("I want", epoch.Add(2*time.Second))
	assert.Equal(t, []string{"I want"}, sentences(h))

	// A long jump is a new sentence.
	h.Record("I want to go to the station", epoch.Add(3*time.Second))
	assert.Equal(t, []string{"I want", "I want to go to the station"}, sentences(h))

	// Starting the next sentence keeps the finished one.
	h.Record("I want to go to the station. Then home", epoch.Add(4*time.Second))
	assert.Equal(t, []string{"I want", "I want to go to the station", "Then home"}, sentences(h))
}

func TestRecordMovesDuplicateToEnd(t *testing.T) {
	h := NewMessageHistory([]Message{
		{Sentence: "good morning", At: epoch},
		{Sentence: "thank you", At: epoch},
	})
	now := epoch.Add(time.Minute)
	h.Record("good morning", now)

	msgs := h.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "thank you", msgs[0].Sentence)
	assert.Equal(t, "good morning", msgs[1].Sentence)
	assert.Equal(t, now, msgs[1].At)
}

func TestRecordCapsHistory(t *testing.T) {
	h := NewMessageHistory(nil)
	for i := 0; i < HistoryLimit+10; i++ {
		h.Record(fmt.Sprintf("sentence number %d done.", i), epoch)
		// Unrelated sentences so nothing counts as an edit.
		h.Record(fmt.Sprintf("zz %d", i), epoch)
	}
	assert.Equal(t, HistoryLimit, h.Len())

	msgs := h.Messages()
	assert.Equal(t, fmt.Sprintf("zz %d", HistoryLimit+9), msgs[len(msgs)-1].Sentence)

	_, ok := h.Search("sentence number 0 ")
	assert.False(t, ok, "evicted sentences are not searchable")
}

func TestSearch(t *testing.T) {
	h := NewMessageHistory(nil)
	h.Record("Could you open the window", epoch)
	h.Record("thanks a lot", epoch)
	h.Record("Could you close the door", epoch)

	got, ok := h.Search("Please. Could you")
	require.True(t, ok)
	assert.Equal(t, "Could you close the door", got)

	_, ok = h.Search("thanks a lot")
	assert.False(t, ok, "exact matches do not extend the sentence")

	_, ok = h.Search("Nothing")
	assert.False(t, ok)

	_, ok = h.Search("")
	assert.False(t, ok)
}

func TestReplaceReindexes(t *testing.T) {
	h := NewMessageHistory([]Message{{Sentence: "old sentence", At: epoch}})
	h.Replace([]Message{{Sentence: "new sentence", At: epoch}})

	_, ok := h.Search("old")
	assert.False(t, ok)
	got, ok := h.Search("new")
	require.True(t, ok)
	assert.Equal(t, "new sentence", got)
}

func TestReloadDropsOlderDuplicates(t *testing.T) {
	h := NewMessageHistory([]Message{
		{Sentence: "Could you open the window", At: epoch},
		{Sentence: "I am hungry", At: epoch},
		{Sentence: "Could you open the window", At: epoch.Add(time.Minute)},
	})
	assert.Equal(t, []string{"I am hungry", "Could you open the window"}, sentences(h))
	assert.Equal(t, epoch.Add(time.Minute), h.Messages()[1].At)

	// Editing the last sentence removes it, and no older copy is left behind
	// without a trie entry.
	h.Record("Could you open", epoch.Add(2*time.Minute))
	assert.Equal(t, []string{"I am hungry", "Could you open"}, sentences(h))

	got, ok := h.Search("Could")
	require.True(t, ok)
	assert.Equal(t, "Could you open", got)

	h.Record("Something else", epoch.Add(3*time.Minute))
	got, ok = h.Search("I am")
	require.True(t, ok)
	assert.Equal(t, "I am hungry", got)
}

func TestMessageJSON(t *testing.T) {
	data, err := json.Marshal([]Message{{Sentence: "hello there", At: epoch}})
	require.NoError(t, err)
	assert.JSONEq(t, `[["hello there", 1700000000000]]`, string(data))

	var msgs []Message
	require.NoError(t, json.Unmarshal(data, &msgs))
	assert.Equal(t, "hello there", msgs[0].Sentence)
	assert.True(t, epoch.Equal(msgs[0].At))

	assert.Error(t, json.Unmarshal([]byte(`[["only"]]`), &msgs))
	assert.Error(t, json.Unmarshal([]byte(`[[1, 2]]`), &msgs))
}

func TestConversationLog(t *testing.T) {
	var c ConversationLog
	assert.False(t, c.AttachPartnerInput("ignored"))
	assert.Equal(t, "", c.Digest())

	c.AddOutput("Hello", epoch)
	assert.True(t, c.AttachPartnerInput("Hi there"))
	c.AddOutput("How are you?", epoch.Add(time.Second))

	assert.Equal(t,
		"UserOutput: Hello, PartnerInput: Hi there\nUserOutput: How are you?",
		c.Digest())
	turns := c.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, epoch, turns[0].At)
}
