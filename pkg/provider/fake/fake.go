// Package fake is a scripted suggestion provider for tests and offline runs.
package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/phrasekit/pkg/suggest"
)

// Provider answers RunMacro from scripts keyed by template id. Templates
// without a script get a canned numbered list built from the typed text.
type Provider struct {
	mu      sync.Mutex
	scripts map[string][]string
	errs    map[string]error
	latency time.Duration
	calls   []suggest.MacroRequest
}

// New returns an empty fake provider.
func New() *Provider {
	return &Provider{scripts: map[string][]string{}, errs: map[string]error{}}
}

// Script queues replies for template. Replies are used in order; the last
// one repeats.
func (p *Provider) Script(template string, replies ...string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[template] = append(p.scripts[template], replies...)
	return p
}

// Fail makes every call to template return err.
func (p *Provider) Fail(template string, err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[template] = err
	return p
}

// WithLatency delays every reply. The delay honors context cancellation.
func (p *Provider) WithLatency(d time.Duration) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latency = d
	return p
}

// RunMacro implements suggest.Provider.
func (p *Provider) RunMacro(ctx context.Context, req suggest.MacroRequest) (suggest.MacroResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	latency := p.latency
	err := p.errs[req.TemplateID]
	var reply string
	var scripted bool
	if queue := p.scripts[req.TemplateID]; len(queue) > 0 {
		reply, scripted = queue[0], true
		if len(queue) > 1 {
			p.scripts[req.TemplateID] = queue[1:]
		}
	}
	p.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return suggest.MacroResponse{}, ctx.Err()
		case <-t.C:
		}
	} else if ctx.Err() != nil {
		return suggest.MacroResponse{}, ctx.Err()
	}

	if err != nil {
		return suggest.MacroResponse{}, err
	}
	if !scripted {
		reply = canned(req)
	}
	return suggest.MacroResponse{Messages: []suggest.Message{{Text: reply}}}, nil
}

// Calls returns every request seen so far.
func (p *Provider) Calls() []suggest.MacroRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]suggest.MacroRequest(nil), p.calls...)
}

var (
	cannedWords   = []string{"-s", "and", "the", "to", "please"}
	cannedEndings = []string{".", "?", " please.", " now.", " later."}
)

func canned(req suggest.MacroRequest) string {
	text := strings.TrimSpace(req.UserInputs["text"])
	var b strings.Builder
	if strings.HasPrefix(req.TemplateID, "Word") {
		for i, w := range cannedWords {
			fmt.Fprintf(&b, "%d. %s\n", i+1, w)
		}
		return b.String()
	}
	for i, e := range cannedEndings {
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, text, e)
	}
	return b.String()
}
