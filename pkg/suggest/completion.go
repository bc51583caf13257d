package suggest

import (
	"fmt"
	"sync"

	"github.com/bastiangx/termserve/pkg/autocomplete"
	"github.com/bastiangx/termserve/pkg/term"
	"github.com/charmbracelet/log"
)

// Source supplies the terms an index is built from.
type Source interface {
	Load() ([]*term.Term, error)
	Path() string
}

// Completer serves prefix completions from an autocomplete index through a
// hot cache. The index can be replaced as a whole by Reload; queries that
// are already running keep the index they started with, and their results
// never reach the cache once a newer index is in place.
type Completer struct {
	mu       sync.RWMutex
	index    *autocomplete.Index
	gen      uint64
	source   Source
	hotCache *HotCache
	reloads  int
}

// NewCompleter wraps an existing index.
func NewCompleter(index *autocomplete.Index, cacheSize int) *Completer {
	return &Completer{
		index:    index,
		hotCache: NewHotCache(cacheSize),
	}
}

// NewCompleterFromSource loads terms from source and builds the index.
func NewCompleterFromSource(source Source, cacheSize int) (*Completer, error) {
	c := &Completer{
		source:   source,
		hotCache: NewHotCache(cacheSize),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// current returns the index together with its generation.
func (c *Completer) current() (*autocomplete.Index, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index, c.gen
}

// matches returns the full weight-ordered match list for prefix from index,
// going through the hot cache for generation gen. The slice is shared.
func (c *Completer) matches(index *autocomplete.Index, gen uint64, prefix string) []*term.Term {
	matches, ok := c.hotCache.Get(prefix, gen)
	if !ok {
		matches = index.MatchesByWeight(prefix)
		c.hotCache.Put(prefix, gen, matches)
	}
	return matches
}

func limited(matches []*term.Term, limit int) []*term.Term {
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]*term.Term, len(matches))
	copy(out, matches)
	return out
}

// Complete returns up to limit matches for prefix, heaviest first. A limit
// of zero or less returns every match. The returned slice belongs to the
// caller.
func (c *Completer) Complete(prefix string, limit int) []*term.Term {
	index, gen := c.current()
	return limited(c.matches(index, gen, prefix), limit)
}

// CompleteWithTotal is Complete that also reports how many terms match
// prefix in total. Both come from the same index even when a Reload runs
// concurrently.
func (c *Completer) CompleteWithTotal(prefix string, limit int) ([]*term.Term, int) {
	index, gen := c.current()
	all := c.matches(index, gen, prefix)
	return limited(all, limit), len(all)
}

// Count returns the number of matches for prefix.
func (c *Completer) Count(prefix string) int {
	index, _ := c.current()
	return index.MatchCount(prefix)
}

// Reload rebuilds the index from the completer's source and swaps it in.
// On failure the current index stays in place.
func (c *Completer) Reload() error {
	if c.source == nil {
		return fmt.Errorf("no term source to reload from")
	}

	terms, err := c.source.Load()
	if err != nil {
		return fmt.Errorf("failed to load terms from %s: %w", c.source.Path(), err)
	}
	index, err := autocomplete.New(terms)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	// purging under the lock keeps cache generations in step with the index
	c.mu.Lock()
	c.index = index
	c.gen++
	c.reloads++
	c.hotCache.Purge(c.gen)
	c.mu.Unlock()

	log.Debugf("Index built with %d terms from %s", index.Len(), c.source.Path())
	return nil
}

// SourcePath returns where the terms were loaded from, if known.
func (c *Completer) SourcePath() string {
	if c.source == nil {
		return ""
	}
	return c.source.Path()
}

// ResizeCache changes the hot cache capacity.
func (c *Completer) ResizeCache(size int) {
	c.hotCache.Resize(size)
}

// Stats returns statistics about the index and cache.
func (c *Completer) Stats() map[string]int {
	c.mu.RLock()
	stats := map[string]int{
		"totalTerms": c.index.Len(),
		"reloads":    c.reloads,
	}
	c.mu.RUnlock()

	for k, v := range c.hotCache.Stats() {
		stats[k] = v
	}
	return stats
}
