package suggest

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Client fetches the sentence and word lists in parallel from one Provider.
type Client struct {
	provider Provider
	logger   *log.Logger
}

// NewClient returns a Client over p. A nil logger uses the default one.
func NewClient(p Provider, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{provider: p, logger: logger}
}

// Fetch runs the sentence and word templates concurrently. Both share one
// context: the first failure cancels the other. A canceled fetch returns
// ErrCanceled.
func (c *Client) Fetch(ctx context.Context, req Request) (*Batch, error) {
	id := uuid.NewString()
	inputs := req.UserInputs()

	var batch Batch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := c.fetchOne(gctx, req.SentenceTemplate, req, inputs)
		batch.Sentences = items
		return err
	})
	g.Go(func() error {
		items, err := c.fetchOne(gctx, req.WordTemplate, req, inputs)
		batch.Words = items
		return err
	})

	if err := g.Wait(); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		if IsCanceled(err) {
			c.logger.Debug("fetch aborted", "id", id, "text", req.Text)
			return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		c.logger.Warn("fetch failed", "id", id, "err", err)
		return nil, err
	}

	c.logger.Debug("fetch done", "id", id,
		"sentences", len(batch.Sentences), "words", len(batch.Words))
	return &batch, nil
}

func (c *Client) fetchOne(ctx context.Context, template string, req Request, inputs map[string]string) ([]string, error) {
	// Each goroutine gets its own copy; providers may annotate inputs.
	in := make(map[string]string, len(inputs))
	for k, v := range inputs {
		in[k] = v
	}
	resp, err := c.provider.RunMacro(ctx, MacroRequest{
		TemplateID:  template,
		ModelID:     req.Model,
		Temperature: req.Temperature,
		UserInputs:  in,
	})
	if err != nil {
		return nil, fmt.Errorf("run macro %s: %w", template, err)
	}
	return ParseResponse(resp.Text()), nil
}
