package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

func snapshotFor(id int64) *model.EntitySnapshot {
	return &model.EntitySnapshot{EntityID: id, UUID: "uuid-1"}
}

// TestEntityCache_EvictsOldestOnOverflow exercises invariant 3 of §8: after
// cache writes, size never exceeds maxCachedEntities, and the evicted id is
// always the oldest by insertion order.
func TestEntityCache_EvictsOldestOnOverflow(t *testing.T) {
	c := NewEntityCache(2, serializer.New())

	c.PutEntity(1, snapshotFor(1), nil)
	c.PutEntity(2, snapshotFor(2), nil)
	c.PutEntity(3, snapshotFor(3), nil)

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get(1)
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get(2)
	assert.True(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)
}

// TestEntityCache_PutReplacesAtomically exercises invariant 2: after
// putEntity, the cached snapshot and refs are exactly what was just put.
func TestEntityCache_PutReplacesAtomically(t *testing.T) {
	c := NewEntityCache(10, serializer.New())
	refs := map[string]hostecs.Component{"Foo": &hostecs.FakeComponent{Type: "Foo"}}

	snap := snapshotFor(5)
	c.PutEntity(5, snap, refs)

	entry, ok := c.Get(5)
	require.True(t, ok)
	assert.Same(t, snap, entry.Snapshot)
	assert.Equal(t, refs, entry.Refs)
}

type fooComponent struct {
	Bar []int
}

func (fooComponent) TypeName() string { return "Foo" }

// TestExpandEntityPath_RoundTrip exercises §8 scenario S5.
func TestExpandEntityPath_RoundTrip(t *testing.T) {
	s := serializer.New()
	c := NewEntityCache(10, s)

	refs := map[string]hostecs.Component{
		"Foo": fooComponent{Bar: []int{10, 20, 30}},
	}
	c.PutEntity(1, snapshotFor(1), refs)

	out := c.ExpandEntityPath(1, "Foo.Bar.1")
	assert.Equal(t, int64(20), out)
}

// TestExpandEntityPath_MissingComponentReturnsNil verifies the silent-miss
// policy of §4.3/§7.
func TestExpandEntityPath_MissingComponentReturnsNil(t *testing.T) {
	c := NewEntityCache(10, serializer.New())
	c.PutEntity(1, snapshotFor(1), map[string]hostecs.Component{})

	assert.Nil(t, c.ExpandEntityPath(1, "Missing.Field"))
	assert.Nil(t, c.ExpandEntityPath(999, "Foo.Bar"))
}

func TestEntityCache_RemoveEntity(t *testing.T) {
	c := NewEntityCache(10, serializer.New())
	c.PutEntity(1, snapshotFor(1), nil)
	c.RemoveEntity(1)

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}
