package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingProvider(t *testing.T) {
	calls := 0
	fail := false
	next := ProviderFunc(func(_ context.Context, r MacroRequest) (MacroResponse, error) {
		calls++
		if fail {
			return MacroResponse{}, errors.New("down")
		}
		return MacroResponse{Messages: []Message{{Text: "1. " + r.UserInputs["text"]}}}, nil
	})

	c, err := NewCachingProvider(next, 2)
	require.NoError(t, err)
	ctx := context.Background()

	a := MacroRequest{TemplateID: "s", ModelID: "m", UserInputs: map[string]string{"text": "a"}}
	b := MacroRequest{TemplateID: "s", ModelID: "m", UserInputs: map[string]string{"text": "b"}}

	resp, err := c.RunMacro(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "1. a", resp.Text())

	_, _ = c.RunMacro(ctx, a)
	assert.Equal(t, 1, calls)

	// A different model is a different key.
	other := a
	other.ModelID = "m2"
	_, _ = c.RunMacro(ctx, other)
	assert.Equal(t, 2, calls)

	// Failures are not cached.
	fail = true
	_, err = c.RunMacro(ctx, b)
	assert.Error(t, err)
	fail = false
	_, err = c.RunMacro(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	stats := c.Stats()
	assert.Equal(t, 2, stats["cacheEntries"])
	assert.Equal(t, 1, stats["cacheHits"])
	assert.Equal(t, 4, stats["cacheMisses"])

	c.Purge()
	_, _ = c.RunMacro(ctx, a)
	assert.Equal(t, 5, calls)
}

func TestCacheKeyIgnoresMapOrder(t *testing.T) {
	x := MacroRequest{TemplateID: "t", UserInputs: map[string]string{"a": "1", "b": "2", "c": "3"}}
	y := MacroRequest{TemplateID: "t", UserInputs: map[string]string{"c": "3", "b": "2", "a": "1"}}
	assert.Equal(t, cacheKey(x), cacheKey(y))

	y.Temperature = 0.5
	assert.NotEqual(t, cacheKey(x), cacheKey(y))
}
