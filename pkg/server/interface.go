/*
Package server implements msgpack IPC for a phrasekit composer.

The server reads a stream of msgpack encoded requests from stdin and writes
responses and events to stdout. Logs go to stderr.

# IPC

Each request names an op and carries an ID echoed in its response:

	{"id": "req_001", "op": "type", "text": "a"}
	{"id": "req_002", "op": "select_sentence", "stripe": 0, "word": 3}
	{"id": "req_003", "op": "set_setting", "key": "voiceSpeakingRate", "value": 2}

The response reports the status and, for state changing ops, a snapshot of
the composer and the user settings:

	{"id": "req_001", "status": "ok", "state": {"text": "a", ...}}

Suggestions arrive later, as the debounced fetch completes, so the server
pushes them as unsolicited events with a fresh ID:

	{"event": "suggestions", "id": "5f0c...", "sentences": [...], "words": [...]}

Other events are "loading", "error", "partner" (the partner's recognized
reply) and "recall" (a remembered sentence extending the current text).

# Ops

	type             text: one character or key label
	set_text         text: full text from a system keyboard
	backspace        remove the last character
	delete           clear the text and emotion
	undo             restore the previous text
	select_sentence  stripe, word: commit a suggested sentence up to a word
	select_word      text: append a suggested word
	snackbar_close   dismiss the partner's reply
	speak            speak the text, then listen if speech input is on
	partner          text: attach a typed partner reply
	next_language    cycle the selectable languages
	next_keyboard    cycle the language's keyboards
	emotion          text: set the sentence emotion, "" clears it
	set_setting      key, value: store one user setting
	state            snapshot only
	health           liveness
*/
package server

import (
	"github.com/bastiangx/phrasekit/pkg/align"
	"github.com/bastiangx/phrasekit/pkg/session"
)

// Ops understood by the server.
const (
	OpType           = "type"
	OpSetText        = "set_text"
	OpBackspace      = "backspace"
	OpDelete         = "delete"
	OpUndo           = "undo"
	OpSelectSentence = "select_sentence"
	OpSelectWord     = "select_word"
	OpSnackbarClose  = "snackbar_close"
	OpSpeak          = "speak"
	OpPartner        = "partner"
	OpNextLanguage   = "next_language"
	OpNextKeyboard   = "next_keyboard"
	OpEmotion        = "emotion"
	OpSetSetting     = "set_setting"
	OpState          = "state"
	OpHealth         = "health"
)

// Event names.
const (
	EventSuggestions = "suggestions"
	EventLoading     = "loading"
	EventError       = "error"
	EventPartner     = "partner"
	EventRecall      = "recall"
)

// Error codes, HTTP style.
const (
	CodeBadRequest  = 400
	CodeNotFound    = 404
	CodeInternal    = 500
	CodeUnavailable = 503
)

// Request is one client frame.
type Request struct {
	ID     string `msgpack:"id"`
	Op     string `msgpack:"op"`
	Text   string `msgpack:"text,omitempty"`
	Stripe int    `msgpack:"stripe,omitempty"`
	Word   int    `msgpack:"word,omitempty"`
	// Key and Value carry set_setting. Value is a string, number, bool or
	// list of strings as the key needs.
	Key   string `msgpack:"key,omitempty"`
	Value any    `msgpack:"value"`
}

// Response answers exactly one Request.
type Response struct {
	ID     string    `msgpack:"id"`
	Status string    `msgpack:"status"`
	Error  string    `msgpack:"error,omitempty"`
	Code   int       `msgpack:"code,omitempty"`
	Value  string    `msgpack:"value,omitempty"`
	State  *Snapshot `msgpack:"state,omitempty"`
}

// Event is pushed without a request.
type Event struct {
	Event     string   `msgpack:"event"`
	ID        string   `msgpack:"id"`
	Sentences []string `msgpack:"sentences,omitempty"`
	Words     []string `msgpack:"words,omitempty"`
	Loading   bool     `msgpack:"loading,omitempty"`
	Text      string   `msgpack:"text,omitempty"`
	Error     string   `msgpack:"error,omitempty"`
	// Recoverable marks provider errors worth retrying.
	Recoverable bool `msgpack:"recoverable,omitempty"`
}

// Snapshot is the composer as the UI shell renders it.
type Snapshot struct {
	Text        string        `msgpack:"text"`
	Placeholder string        `msgpack:"placeholder,omitempty"`
	Language    string        `msgpack:"language"`
	Keyboard    string        `msgpack:"keyboard"`
	Tier        string        `msgpack:"tier"`
	Emotion     string        `msgpack:"emotion,omitempty"`
	Sentences   []string      `msgpack:"sentences"`
	Words       []string      `msgpack:"words"`
	Stripes     []StripeFrame `msgpack:"stripes,omitempty"`
	Loading     bool          `msgpack:"loading"`
	CanUndo     bool          `msgpack:"can_undo"`
	// Settings are the persisted user settings. ExpandAtOrigin tells the
	// shell to grow expanded suggestions from the tapped cell.
	Settings session.Settings `msgpack:"settings"`
}

// StripeFrame is an aligned sentence suggestion.
type StripeFrame struct {
	Suggestion string           `msgpack:"suggestion"`
	Leading    []string         `msgpack:"leading,omitempty"`
	Fragments  []align.Fragment `msgpack:"fragments"`
}
