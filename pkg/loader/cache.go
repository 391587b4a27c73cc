package loader

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/denizgursoy/tursu/pkg/gherkin"
)

const (
	cacheTTL        = 5 * time.Second
	cacheMaxEntries = 100
	cacheEvictCount = 20
)

// parseCache memoizes parsed features per absolute path for a short window,
// so a dry-run followed by execution does not re-read disk. Staleness within
// the TTL is an accepted trade-off; callers needing freshness call Clear.
type parseCache struct {
	mu      sync.Mutex
	logger  *slog.Logger
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	feature  *gherkin.Feature
	inserted time.Time
}

func newParseCache(logger *slog.Logger) *parseCache {
	return &parseCache{
		logger:  logger,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *parseCache) Get(path string) (*gherkin.Feature, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.inserted) > cacheTTL {
		delete(c.entries, path)
		return nil, false
	}
	return entry.feature, true
}

func (c *parseCache) Put(path string, feature *gherkin.Feature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{feature: feature, inserted: c.now()}
	if len(c.entries) > cacheMaxEntries {
		c.evictOldest()
	}
}

// evictOldest drops the oldest entries by insertion timestamp. Caller holds
// the lock.
func (c *parseCache) evictOldest() {
	type aged struct {
		path     string
		inserted time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for path, entry := range c.entries {
		all = append(all, aged{path: path, inserted: entry.inserted})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].inserted.Before(all[j].inserted) })

	count := cacheEvictCount
	if count > len(all) {
		count = len(all)
	}
	for _, entry := range all[:count] {
		delete(c.entries, entry.path)
	}
	c.logger.Debug("parse cache evicted oldest entries", "count", count, "remaining", len(c.entries))
}

func (c *parseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *parseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
