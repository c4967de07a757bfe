package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/cache"
	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

type recordedEvents struct {
	order []string
}

func (r *recordedEvents) record(name string) { r.order = append(r.order, name) }

// TestSpawnUpdateDespawnOrdering implements §8 scenario S1: for one entity,
// SPAWN precedes any UPDATE/POSITION_BATCH, and DESPAWN always comes last.
func TestSpawnUpdateDespawnOrdering(t *testing.T) {
	entities := cache.NewEntityCache(10, serializer.New())
	c := collector.New(serializer.New())
	events := &recordedEvents{}

	w := New(c, entities, 1, 5, Callbacks{
		OnEntitySpawn:   func(*model.EntitySnapshot) { events.record("SPAWN") },
		OnEntityUpdate:  func(*model.EntitySnapshot, []string) { events.record("UPDATE") },
		OnPositionBatch: func([]model.PositionUpdate) { events.record("POSITION_BATCH") },
		OnEntityDespawn: func(int64) { events.record("DESPAWN") },
	})

	handle := hostecs.NewFakeHandle("uuid-1", map[string]hostecs.Component{})
	w.OnEntityAdded(handle, collector.InclusionConfig{IncludeNPCs: true, IncludeItems: true, IncludePlayers: true})

	require.NotEmpty(t, events.order)
	assert.Equal(t, "SPAWN", events.order[0])

	id := firstTrackedID(w)
	w.Tick(&model.EntitySnapshot{EntityID: id, Position: model.Vector3{X: 5, Y: 0, Z: 0}}, nil)
	w.OnEntityRemoved(id)

	assert.Equal(t, "DESPAWN", events.order[len(events.order)-1])
}

func firstTrackedID(w *Watcher) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id := range w.tracked {
		return id
	}
	return 0
}

// TestPositionBatchThrottling implements §8 scenario S2: sub-threshold
// movement never enters a batch, and movement at/above the 0.01 delta
// threshold is queued for the next flush.
func TestPositionBatchThrottling(t *testing.T) {
	entities := cache.NewEntityCache(10, serializer.New())
	c := collector.New(serializer.New())
	var batches [][]model.PositionUpdate

	w := New(c, entities, 1, 5, Callbacks{
		OnPositionBatch: func(u []model.PositionUpdate) { batches = append(batches, u) },
	})

	handle := hostecs.NewFakeHandle("uuid-2", map[string]hostecs.Component{})
	w.OnEntityAdded(handle, collector.InclusionConfig{})
	id := firstTrackedID(w)

	// Sub-threshold movement: must not queue a batch entry.
	w.Tick(&model.EntitySnapshot{EntityID: id, Position: model.Vector3{X: 0.001, Y: 0, Z: 0}}, nil)
	w.FlushPositionBatch(0, 1)
	assert.Empty(t, batches, "sub-threshold movement should not be flushed")

	// Movement past the threshold must be queued and flushed.
	w.Tick(&model.EntitySnapshot{EntityID: id, Position: model.Vector3{X: 5, Y: 0, Z: 0}}, nil)
	w.FlushPositionBatch(0, 1)
	require.Len(t, batches, 1)
	assert.Equal(t, id, batches[0][0].EntityID)
}

func TestFlushPositionBatch_TimeSyncEveryNth(t *testing.T) {
	entities := cache.NewEntityCache(10, serializer.New())
	c := collector.New(serializer.New())
	syncCount := 0

	w := New(c, entities, 1, 5, Callbacks{
		OnPositionBatch: func([]model.PositionUpdate) {},
		OnTimeSync:      func(int64, float64) { syncCount++ },
	})

	handle := hostecs.NewFakeHandle("uuid-3", map[string]hostecs.Component{})
	w.OnEntityAdded(handle, collector.InclusionConfig{})
	id := firstTrackedID(w)

	for i := 0; i < timeSyncEveryNBatches; i++ {
		w.Tick(&model.EntitySnapshot{EntityID: id, Position: model.Vector3{X: float64(i + 1), Y: 0, Z: 0}}, nil)
		w.FlushPositionBatch(0, 1)
	}
	assert.Equal(t, 1, syncCount)
}
