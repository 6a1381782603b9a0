package scraper

import "sync"

// DedupeCache collapses duplicate sightings of one business across
// overlapping tile queries. Check-and-insert happens under a single lock
// acquisition so concurrent workers cannot both treat a key as novel.
// The cache lives for one run only; cross-run persistence is not a goal.
type DedupeCache struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupeCache() *DedupeCache {
	return &DedupeCache{seen: make(map[string]struct{})}
}

// TryInsert records the key and reports whether it was novel.
func (c *DedupeCache) TryInsert(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys seen.
func (c *DedupeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
