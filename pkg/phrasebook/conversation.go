package phrasebook

import (
	"strings"
	"sync"
	"time"
)

// Turn is one exchange: what the user spoke and, once recognized, the reply.
type Turn struct {
	At   time.Time `msgpack:"at"`
	Text string    `msgpack:"text"`
}

// ConversationLog keeps the spoken conversation for prompt context.
type ConversationLog struct {
	mu    sync.Mutex
	turns []Turn
}

// AddOutput starts a turn with text the user had spoken aloud.
func (c *ConversationLog) AddOutput(spoken string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{At: now, Text: "UserOutput: " + spoken})
}

// AttachPartnerInput appends the partner's reply to the last turn. It does
// nothing before the first turn.
func (c *ConversationLog) AttachPartnerInput(transcript string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.turns) == 0 {
		return false
	}
	last := &c.turns[len(c.turns)-1]
	last.Text += ", PartnerInput: " + transcript
	return true
}

// Digest returns all turns, one per line.
func (c *ConversationLog) Digest() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	texts := make([]string, len(c.turns))
	for i, t := range c.turns {
		texts[i] = t.Text
	}
	return strings.Join(texts, "\n")
}

// Turns returns a copy of the log.
func (c *ConversationLog) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.turns...)
}
