// Package openai runs suggestion templates directly against an OpenAI
// compatible chat completion endpoint, without the macro server.
//
// Gemini models are reachable through Google's OpenAI compatible endpoint by
// pointing the client's BaseURL at it, so the stock tier tables work as is.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bastiangx/phrasekit/pkg/suggest"
)

// ChatCompleter is the part of *openai.Client the provider uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider implements suggest.Provider.
type Provider struct {
	client    ChatCompleter
	templates Templates
	topP      float32
}

// Config builds a Provider from connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	// Templates are merged over the builtin ones.
	Templates Templates
}

// New returns a Provider talking to an OpenAI compatible endpoint.
func New(cfg Config) *Provider {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return NewWithClient(openai.NewClientWithConfig(oc), Builtin().Merge(cfg.Templates))
}

// NewWithClient returns a Provider over an existing client.
func NewWithClient(client ChatCompleter, templates Templates) *Provider {
	return &Provider{client: client, templates: templates, topP: 0.5}
}

// RunMacro implements suggest.Provider.
func (p *Provider) RunMacro(ctx context.Context, req suggest.MacroRequest) (suggest.MacroResponse, error) {
	prompt, err := p.templates.Expand(req.TemplateID, req.UserInputs)
	if err != nil {
		return suggest.MacroResponse{}, suggest.NewFatalError(err, "expand template")
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.ModelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(req.Temperature),
		TopP:        p.topP,
	})
	if err != nil {
		return suggest.MacroResponse{}, classify(ctx, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Debugf("empty completion for %s", req.TemplateID)
		return suggest.MacroResponse{Messages: []suggest.Message{}}, nil
	}

	text := Clean(resp.Choices[0].Message.Content, req.UserInputs["language"])
	return suggest.MacroResponse{Messages: []suggest.Message{{Text: text}}}, nil
}

// nonWordSpaces matches spaces the model puts between Japanese characters.
var nonWordSpaces = regexp.MustCompile(`([^\w;:,.?]) +(\W)`)

// Clean strips emphasis markers and restores protected spaces. For Japanese
// it also drops ASCII spaces between non-word characters.
func Clean(text, language string) string {
	text = strings.ReplaceAll(text, "*", "")
	if language == "Japanese" {
		text = nonWordSpaces.ReplaceAllString(text, "$1$2")
	}
	return strings.ReplaceAll(text, spaceMark, " ")
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", suggest.ErrCanceled, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return byStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return byStatus(reqErr.HTTPStatusCode, err)
	}
	return suggest.NewRecoverableError(err, "chat completion")
}

func byStatus(code int, err error) error {
	if code == http.StatusTooManyRequests || code >= 500 {
		return suggest.NewRecoverableError(err, "chat completion")
	}
	return suggest.NewFatalError(err, "chat completion")
}
