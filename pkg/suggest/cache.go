package suggest

import (
	"math"
	"strings"
	"sync"

	"github.com/bastiangx/termserve/pkg/term"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// deriveLimit bounds how large a cached ancestor result may be before
// filtering it costs more than a fresh index query.
const deriveLimit = 512

// keyMark is prepended to every trie key so the empty prefix maps to a
// real node.
const keyMark = '>'

type cacheEntry struct {
	matches []*term.Term
	access  int64
}

// HotCache keeps full weight-ordered match lists for recently queried
// prefixes in a patricia trie. Entries are evicted least recently used
// first.
//
// Every entry belongs to the index generation the cache was last purged
// for. Lookups and stores from any other generation miss and are dropped.
//
// Cached slices are shared between callers and must not be modified.
type HotCache struct {
	trie        *patricia.Trie
	generation  uint64
	entries     int
	maxEntries  int
	accessCount int64
	hits        int64
	derived     int64
	misses      int64
	mu          sync.Mutex
}

// NewHotCache creates a cache holding at most maxEntries prefixes. A
// non-positive size disables caching.
func NewHotCache(maxEntries int) *HotCache {
	return &HotCache{
		trie:       patricia.NewTrie(),
		maxEntries: maxEntries,
	}
}

func cacheKey(prefix string) patricia.Prefix {
	key := make(patricia.Prefix, 0, len(prefix)+1)
	key = append(key, keyMark)
	return append(key, prefix...)
}

// Get returns the cached matches for prefix computed against index
// generation gen. On a miss it looks for the longest cached prefix of prefix
// and, when that list is small, filters it down instead; the result is
// cached too.
func (hc *HotCache) Get(prefix string, gen uint64) ([]*term.Term, bool) {
	if hc == nil || hc.maxEntries <= 0 {
		return nil, false
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	if gen != hc.generation {
		hc.misses++
		return nil, false
	}

	key := cacheKey(prefix)
	if item := hc.trie.Get(key); item != nil {
		entry := item.(*cacheEntry)
		entry.access = hc.nextAccess()
		hc.hits++
		return entry.matches, true
	}

	var ancestor *cacheEntry
	err := hc.trie.VisitPrefixes(key, func(_ patricia.Prefix, item patricia.Item) error {
		// visited shortest first, so the last one kept is the longest
		ancestor = item.(*cacheEntry)
		return nil
	})
	if err != nil {
		log.Errorf("Error searching hot cache: %v", err)
	}
	if ancestor == nil || len(ancestor.matches) > deriveLimit {
		hc.misses++
		return nil, false
	}

	// filtering keeps the ancestor's weight order
	matches := make([]*term.Term, 0, len(ancestor.matches))
	for _, t := range ancestor.matches {
		if strings.HasPrefix(t.Text(), prefix) {
			matches = append(matches, t)
		}
	}
	ancestor.access = hc.nextAccess()
	hc.derived++
	hc.put(key, matches)
	return matches, true
}

// Put stores the match list for prefix computed against index generation
// gen. Lists from a generation other than the current one are dropped.
func (hc *HotCache) Put(prefix string, gen uint64, matches []*term.Term) {
	if hc == nil || hc.maxEntries <= 0 {
		return
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	if gen != hc.generation {
		log.Debugf("Dropped stale result for prefix '%s' from generation %d", prefix, gen)
		return
	}
	hc.put(cacheKey(prefix), matches)
}

func (hc *HotCache) put(key patricia.Prefix, matches []*term.Term) {
	entry := &cacheEntry{matches: matches, access: hc.nextAccess()}
	if hc.trie.Get(key) != nil {
		hc.trie.Set(key, entry)
		return
	}
	for hc.entries >= hc.maxEntries {
		if !hc.evictLRU() {
			break
		}
	}
	hc.trie.Insert(key, entry)
	hc.entries++
}

// Purge drops every entry, keeping the counters, and moves the cache to
// index generation gen. Generations only move forward; a purge for an older
// generation still drops the entries but keeps the newer generation.
func (hc *HotCache) Purge(gen uint64) {
	if hc == nil {
		return
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.trie = patricia.NewTrie()
	hc.entries = 0
	hc.generation = max(hc.generation, gen)
	log.Debug("Hot cache purged", "generation", hc.generation)
}

// Resize changes the entry limit, evicting as needed.
func (hc *HotCache) Resize(maxEntries int) {
	if hc == nil {
		return
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.maxEntries = maxEntries
	for hc.entries > max(maxEntries, 0) {
		if !hc.evictLRU() {
			break
		}
	}
}

// Stats reports cache size and hit counters.
func (hc *HotCache) Stats() map[string]int {
	if hc == nil {
		return map[string]int{}
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	return map[string]int{
		"cacheEntries": hc.entries,
		"cacheMax":     hc.maxEntries,
		"cacheHits":    int(hc.hits),
		"cacheDerived": int(hc.derived),
		"cacheMisses":  int(hc.misses),
	}
}

func (hc *HotCache) nextAccess() int64 {
	hc.accessCount++
	return hc.accessCount
}

func (hc *HotCache) evictLRU() bool {
	var oldestKey patricia.Prefix
	var oldestTime int64 = math.MaxInt64

	hc.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		if entry := item.(*cacheEntry); entry.access < oldestTime {
			oldestTime = entry.access
			oldestKey = append(oldestKey[:0], p...)
		}
		return nil
	})

	if oldestKey == nil || !hc.trie.Delete(oldestKey) {
		return false
	}
	hc.entries--
	log.Debugf("Evicted prefix '%s' from hot cache", oldestKey[1:])
	return true
}
