package suggest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of replies kept by NewCachingProvider.
const DefaultCacheSize = 256

// CachingProvider remembers successful replies so that returning to an
// earlier text (undo, backspace) does not hit the provider again.
type CachingProvider struct {
	next   Provider
	cache  *lru.Cache[string, MacroResponse]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachingProvider wraps next with an LRU of size entries.
func NewCachingProvider(next Provider, size int) (*CachingProvider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, MacroResponse](size)
	if err != nil {
		return nil, err
	}
	return &CachingProvider{next: next, cache: cache}, nil
}

// RunMacro implements Provider.
func (c *CachingProvider) RunMacro(ctx context.Context, req MacroRequest) (MacroResponse, error) {
	key := cacheKey(req)
	if resp, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		log.Debugf("macro cache hit for %s", req.TemplateID)
		return resp, nil
	}
	c.misses.Add(1)

	resp, err := c.next.RunMacro(ctx, req)
	if err != nil {
		return resp, err
	}
	c.cache.Add(key, resp)
	return resp, nil
}

// Purge drops every cached reply.
func (c *CachingProvider) Purge() { c.cache.Purge() }

// Stats returns cache counters.
func (c *CachingProvider) Stats() map[string]int {
	return map[string]int{
		"cacheEntries": c.cache.Len(),
		"cacheHits":    int(c.hits.Load()),
		"cacheMisses":  int(c.misses.Load()),
	}
}

func cacheKey(req MacroRequest) string {
	keys := make([]string, 0, len(req.UserInputs))
	for k := range req.UserInputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(req.TemplateID)
	b.WriteByte(0)
	b.WriteString(req.ModelID)
	b.WriteByte(0)
	b.WriteString(strconv.FormatFloat(req.Temperature, 'g', -1, 64))
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(req.UserInputs[k])
	}
	return b.String()
}
