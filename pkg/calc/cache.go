package calc

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// PostfixCache keeps the postfix form of recently evaluated expressions.
// Only successfully tokenized expressions are cached.
type PostfixCache struct {
	entries map[uint64]*cachedPostfix
	mutex   sync.RWMutex
	maxSize int

	hits      int64
	misses    int64
	evictions int64
}

type cachedPostfix struct {
	expr     string
	postfix  []Token
	lastUsed int64 // UnixNano, atomic
	hitCount int64
}

// CacheStats is a snapshot of the cache counters.
type CacheStats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewPostfixCache creates a cache holding up to maxSize expressions.
func NewPostfixCache(maxSize int) *PostfixCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &PostfixCache{
		entries: make(map[uint64]*cachedPostfix, maxSize),
		maxSize: maxSize,
	}
}

func expressionHash(expr string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(expr))
	return h.Sum64()
}

// Get returns a copy of the cached postfix form of expr.
func (c *PostfixCache) Get(expr string) ([]Token, bool) {
	c.mutex.RLock()
	entry, ok := c.entries[expressionHash(expr)]
	c.mutex.RUnlock()

	// hash collisions count as misses
	if !ok || entry.expr != expr {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	atomic.AddInt64(&entry.hitCount, 1)
	atomic.StoreInt64(&entry.lastUsed, time.Now().UnixNano())

	out := make([]Token, len(entry.postfix))
	copy(out, entry.postfix)
	return out, true
}

// Put stores the postfix form of expr, evicting the least recently used
// entry when the cache is full.
func (c *PostfixCache) Put(expr string, postfix []Token) {
	if len(postfix) == 0 {
		return
	}
	stored := make([]Token, len(postfix))
	copy(stored, postfix)

	entry := &cachedPostfix{
		expr:     expr,
		postfix:  stored,
		lastUsed: time.Now().UnixNano(),
	}
	key := expressionHash(expr)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = entry
}

func (c *PostfixCache) evictOldestLocked() {
	var oldestKey uint64
	oldest := int64(-1)
	for key, entry := range c.entries {
		used := atomic.LoadInt64(&entry.lastUsed)
		if oldest < 0 || used < oldest {
			oldest = used
			oldestKey = key
		}
	}
	if oldest >= 0 {
		delete(c.entries, oldestKey)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Clear drops every entry. Counters are kept.
func (c *PostfixCache) Clear() {
	c.mutex.Lock()
	c.entries = make(map[uint64]*cachedPostfix, c.maxSize)
	c.mutex.Unlock()
}

// Stats returns the current counters.
func (c *PostfixCache) Stats() CacheStats {
	c.mutex.RLock()
	size := len(c.entries)
	c.mutex.RUnlock()
	return CacheStats{
		Size:      size,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}
