package cache

import (
	"strings"
	"sync"

	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

// EntityEntry is one cache slot: a value-shaped snapshot plus the live,
// weak-semantics component references the expansion path resolver walks
// (§3's CacheEntry). Both fields are always replaced together.
type EntityEntry struct {
	Snapshot *model.EntitySnapshot
	Refs     map[string]hostecs.Component
}

// EntityCache is the bounded, insertion-ordered entity store (§4.3).
// Mutations go through a single mutex, keeping ordered eviction atomic
// with the entries it touches (§5).
type EntityCache struct {
	mu         sync.Mutex
	entries    map[int64]*EntityEntry
	order      *orderedSet[int64]
	maxEntries int
	serializer *serializer.Serializer
}

// NewEntityCache returns an empty cache bounded at maxEntries.
func NewEntityCache(maxEntries int, s *serializer.Serializer) *EntityCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &EntityCache{
		entries:    make(map[int64]*EntityEntry),
		order:      newOrderedSet[int64](),
		maxEntries: maxEntries,
		serializer: s,
	}
}

// SetMaxEntries updates the bound, evicting immediately if now over it.
func (c *EntityCache) SetMaxEntries(n int) {
	if n <= 0 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxEntries = n
	c.evictLocked()
}

// PutEntity atomically replaces the snapshot and refs for id, evicting the
// oldest entry by insertion order if this put pushes the cache over its
// bound. Per the open questions in SPEC_FULL.md §9, the engine always
// evicts on insert rather than leaving size checks to a separate path.
func (c *EntityCache) PutEntity(id int64, snapshot *model.EntitySnapshot, refs map[string]hostecs.Component) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = &EntityEntry{Snapshot: snapshot, Refs: refs}
	c.order.touch(id)
	c.evictLocked()
}

func (c *EntityCache) evictLocked() {
	for c.order.size() > c.maxEntries {
		oldest, ok := c.order.oldest()
		if !ok {
			return
		}
		c.order.remove(oldest)
		delete(c.entries, oldest)
	}
}

// RemoveEntity drops id's snapshot and refs together.
func (c *EntityCache) RemoveEntity(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.order.remove(id)
}

// Get returns id's current entry, if cached.
func (c *EntityCache) Get(id int64) (*EntityEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Size returns the number of cached entities.
func (c *EntityCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.size()
}

// Snapshots returns a copy of every cached snapshot, in insertion order —
// used to build a WorldSnapshot without a live rescan (§4.6).
func (c *EntityCache) Snapshots() []model.EntitySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.EntitySnapshot, 0, c.order.size())
	for _, id := range c.order.order {
		if e, ok := c.entries[id]; ok && e.Snapshot != nil {
			out = append(out, *e.Snapshot)
		}
	}
	return out
}

// ExpandEntityPath resolves a dotted path against id's live component
// references (§4.3, §6). The first path segment names a component; the
// rest navigate fields/indices. Any miss or reflective failure yields nil,
// never an error, matching §7's silent-reflective-failure policy.
func (c *EntityCache) ExpandEntityPath(id int64, path string) any {
	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()
	if !ok || entry.Refs == nil {
		return nil
	}

	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil
	}

	comp, ok := entry.Refs[segments[0]]
	if !ok {
		return nil
	}

	if len(segments) == 1 {
		return c.serializer.SerializeDeep(comp)
	}

	resolved, ok := c.serializer.Resolve(comp, segments[1:])
	if !ok {
		return nil
	}
	return c.serializer.SerializeDeep(resolved)
}
