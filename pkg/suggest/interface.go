// Package suggest fetches sentence and word suggestions from a remote macro
// provider and decides when to ask for them.
package suggest

import (
	"context"
	"strconv"
)

// DefaultNum is the number of suggestions asked of the provider per list.
const DefaultNum = 5

// Message is one message of a provider reply.
type Message struct {
	Text string `json:"text" msgpack:"text"`
}

// MacroRequest asks the provider to run a named prompt template.
type MacroRequest struct {
	TemplateID  string
	ModelID     string
	Temperature float64
	UserInputs  map[string]string
}

// MacroResponse is the provider reply. Only the first message is used.
type MacroResponse struct {
	Messages []Message `json:"messages"`
}

// Text returns the text of the first message, or "" without messages.
func (r MacroResponse) Text() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].Text
}

// Provider runs prompt templates against a language model.
type Provider interface {
	RunMacro(ctx context.Context, req MacroRequest) (MacroResponse, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req MacroRequest) (MacroResponse, error)

// RunMacro implements Provider.
func (f ProviderFunc) RunMacro(ctx context.Context, req MacroRequest) (MacroResponse, error) {
	return f(ctx, req)
}

// Request describes one combined sentence + word fetch.
type Request struct {
	Text string
	// Language is the prompt name of the active language, e.g. "English".
	Language         string
	Model            string
	SentenceTemplate string
	WordTemplate     string
	Temperature      float64
	// Num defaults to DefaultNum when zero.
	Num int

	Persona             string
	LastOutputSpeech    string
	LastInputSpeech     string
	ConversationHistory string
	SentenceEmotion     string
}

// UserInputs returns the template inputs shared by both macros.
func (r Request) UserInputs() map[string]string {
	num := r.Num
	if num <= 0 {
		num = DefaultNum
	}
	return map[string]string{
		"language":            r.Language,
		"num":                 strconv.Itoa(num),
		"text":                r.Text,
		"persona":             r.Persona,
		"lastOutputSpeech":    r.LastOutputSpeech,
		"lastInputSpeech":     r.LastInputSpeech,
		"conversationHistory": r.ConversationHistory,
		"sentenceEmotion":     r.SentenceEmotion,
	}
}

// Batch is the result of one combined fetch. Either list may be empty.
type Batch struct {
	Sentences []string `msgpack:"sentences"`
	Words     []string `msgpack:"words"`
}

// Fetcher performs a combined fetch. *Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Batch, error)
}
