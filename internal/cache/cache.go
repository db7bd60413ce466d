// Package cache memoizes the outbound links of each page for the duration of a run.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// Fetcher returns the raw content of a page
type Fetcher interface {
	Fetch(ctx context.Context, id types.PageID) ([]byte, error)
}

// Extractor turns raw page content into the page's links
type Extractor interface {
	Extract(raw []byte) (types.LinkSet, error)
}

// PageCache stores the LinkSet of every page fetched so far.
// Failed lookups are not stored.
type PageCache struct {
	fetcher   Fetcher
	extractor Extractor
	entries   map[types.PageID]types.LinkSet
	mu        sync.RWMutex
	hits      atomic.Int64
	misses    atomic.Int64
}

// New creates a PageCache backed by the given collaborators
func New(fetcher Fetcher, extractor Extractor) *PageCache {
	return &PageCache{
		fetcher:   fetcher,
		extractor: extractor,
		entries:   make(map[types.PageID]types.LinkSet),
	}
}

// GetLinks returns the links of id, fetching and parsing the page on first use
func (c *PageCache) GetLinks(ctx context.Context, id types.PageID) (types.LinkSet, error) {
	c.mu.RLock()
	links, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return links, nil
	}
	c.misses.Add(1)

	raw, err := c.fetcher.Fetch(ctx, id)
	if err != nil {
		return types.LinkSet{}, fmt.Errorf("fetching %s: %w", id, err)
	}

	links, err = c.extractor.Extract(raw)
	if err != nil {
		return types.LinkSet{}, fmt.Errorf("extracting links from %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// keep the first stored value if a concurrent caller got here first
	if existing, ok := c.entries[id]; ok {
		return existing, nil
	}
	c.entries[id] = links
	return links, nil
}

// Peek returns the cached links without fetching
func (c *PageCache) Peek(id types.PageID) (types.LinkSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	links, ok := c.entries[id]
	return links, ok
}

// Len returns the number of cached pages
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Hits returns how many lookups were served from the cache
func (c *PageCache) Hits() int64 {
	return c.hits.Load()
}

// Misses returns how many lookups went to the fetcher
func (c *PageCache) Misses() int64 {
	return c.misses.Load()
}

// ExtractorFunc adapts a plain function to the Extractor interface
type ExtractorFunc func(raw []byte) (types.LinkSet, error)

func (f ExtractorFunc) Extract(raw []byte) (types.LinkSet, error) {
	return f(raw)
}
