package cache

import (
	"strings"
	"sync"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

// packetEntry pairs the redacted, serialized log entry with the original
// (pre-serialization) object so its fields can be re-walked for expansion.
type packetEntry struct {
	logEntry model.PacketLogEntry
	original any
}

// PacketCache is the bounded, insertion-ordered packet log store (§4.3).
type PacketCache struct {
	mu         sync.Mutex
	entries    map[int64]*packetEntry
	order      *orderedSet[int64]
	maxEntries int
	nextID     int64
	serializer *serializer.Serializer
}

// NewPacketCache returns an empty packet cache bounded at maxEntries.
func NewPacketCache(maxEntries int, s *serializer.Serializer) *PacketCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &PacketCache{
		entries:    make(map[int64]*packetEntry),
		order:      newOrderedSet[int64](),
		maxEntries: maxEntries,
		serializer: s,
	}
}

// SetMaxEntries updates the bound, evicting immediately if now over it.
func (c *PacketCache) SetMaxEntries(n int) {
	if n <= 0 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxEntries = n
	c.evictLocked()
}

// RecordPacket builds a redacted, serialized PacketLogEntry from a raw
// packet payload and stores it. This is the entry point packet adapter
// callbacks use; PutPacket remains available for callers that have already
// built an entry (e.g. tests).
func (c *PacketCache) RecordPacket(direction model.PacketDirection, packetName string, packetID int32, handlerName string, payload any, redactions model.RedactionSet, timestampMilli int64) model.PacketLogEntry {
	data, _ := c.serializer.SerializeWithRedaction(packetName, redactions, payload).(*model.OrderedMap)
	entry := model.PacketLogEntry{
		Direction:   direction,
		PacketName:  packetName,
		PacketID:    packetID,
		HandlerName: handlerName,
		Data:        data,
		Timestamp:   timestampMilli,
	}
	return c.PutPacket(entry, payload)
}

// PutPacket assigns a monotonically increasing id to entry, stores it
// alongside the pre-serialization object used for later expansion, and
// evicts the oldest packet if the cache is now over its bound.
func (c *PacketCache) PutPacket(entry model.PacketLogEntry, original any) model.PacketLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	entry.ID = c.nextID
	c.entries[entry.ID] = &packetEntry{logEntry: entry, original: original}
	c.order.touch(entry.ID)
	c.evictLocked()
	return entry
}

func (c *PacketCache) evictLocked() {
	for c.order.size() > c.maxEntries {
		oldest, ok := c.order.oldest()
		if !ok {
			return
		}
		c.order.remove(oldest)
		delete(c.entries, oldest)
	}
}

// Get returns the cached log entry for id, if present.
func (c *PacketCache) Get(id int64) (model.PacketLogEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return model.PacketLogEntry{}, false
	}
	return e.logEntry, true
}

// Size returns the number of cached packets.
func (c *PacketCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.size()
}

// ExpandPacketPath is the packet analog of ExpandEntityPath: the first
// segment is the packet's own data field, the rest navigate further.
func (c *PacketCache) ExpandPacketPath(id int64, path string) any {
	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()
	if !ok || entry.original == nil {
		return nil
	}

	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil
	}

	resolved, ok := c.serializer.Resolve(entry.original, segments)
	if !ok {
		return nil
	}
	return c.serializer.SerializeDeep(resolved)
}
