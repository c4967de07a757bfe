// Package watch implements the lifecycle and per-tick observers that feed
// the live event stream (§4.4): entity spawn/despawn, throttled position
// batching, full-update change detection, and periodic time sync. It
// follows the familiar Update(world, deltaTime) tick idiom, generalized
// from a fixed per-frame system update to a configurable-interval
// observer driven by the host's own tick callbacks.
package watch

import (
	"sort"
	"sync"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/cache"
	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

const (
	// positionDeltaThreshold is the minimum per-axis movement (§4.4) that
	// qualifies a tracked entity for inclusion in a position batch.
	positionDeltaThreshold = 0.01
	// fullRefreshEveryNIntervals forces a full snapshot+change-detection
	// pass once every this-many processed tick intervals, independent of
	// movement, so slowly-changing non-position fields still surface.
	fullRefreshEveryNIntervals = 10
	// minFullRefreshInterval bounds how often a full refresh can fire for
	// a single entity even if the N-interval counter would otherwise allow
	// it, avoiding full-snapshot storms on a fast tick rate.
	minFullRefreshInterval = time.Second
	// FlushInterval is the cadence of the scheduled position-flush job.
	FlushInterval = 50 * time.Millisecond
	// timeSyncEveryNBatches emits a TIME_SYNC push once every this-many
	// processed position batches.
	timeSyncEveryNBatches = 60
)

// Callbacks are invoked as the watcher observes lifecycle and tick events.
// Every field is optional; a nil callback is simply skipped.
type Callbacks struct {
	OnEntitySpawn   func(snapshot *model.EntitySnapshot)
	OnEntityDespawn func(entityID int64)
	OnEntityUpdate  func(snapshot *model.EntitySnapshot, changedComponents []string)
	OnPositionBatch func(updates []model.PositionUpdate)
	OnTimeSync      func(epochMilli int64, rate float64)
}

type trackedPosition struct {
	x, y, z        float64
	yaw, pitch     float32
	lastFullUpdate time.Time
	processedTicks int
}

// Watcher drives the lifecycle/tick observers described in §4.4.
type Watcher struct {
	mu        sync.Mutex
	collector *collector.Collector
	entities  *cache.EntityCache
	previous  map[int64]*model.EntitySnapshot
	prevOrder []int64
	maxPrev   int

	updateIntervalTicks int
	tickCounter         int
	tracked             map[int64]*trackedPosition
	pendingBatch        map[int64]model.PositionUpdate

	batchCount int
	callbacks  Callbacks
}

// New returns a Watcher writing collected snapshots into entities and
// invoking callbacks as events occur. maxPreviousSnapshots bounds the
// change-detection table identically to the primary cache (§9).
func New(c *collector.Collector, entities *cache.EntityCache, updateIntervalTicks, maxPreviousSnapshots int, callbacks Callbacks) *Watcher {
	if updateIntervalTicks <= 0 {
		updateIntervalTicks = 1
	}
	if maxPreviousSnapshots <= 0 {
		maxPreviousSnapshots = 1
	}
	return &Watcher{
		collector:           c,
		entities:            entities,
		previous:            make(map[int64]*model.EntitySnapshot),
		maxPrev:             maxPreviousSnapshots,
		updateIntervalTicks: updateIntervalTicks,
		tracked:             make(map[int64]*trackedPosition),
		pendingBatch:        make(map[int64]model.PositionUpdate),
		callbacks:           callbacks,
	}
}

// SetUpdateIntervalTicks updates the throttling interval, e.g. on a config
// change pushed through CONFIG_UPDATE.
func (w *Watcher) SetUpdateIntervalTicks(ticks int) {
	if ticks <= 0 {
		ticks = 1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updateIntervalTicks = ticks
}

// OnEntityAdded implements the lifecycle-add half of §4.4: collect a full
// snapshot via the Entity Collector and notify OnEntitySpawn.
func (w *Watcher) OnEntityAdded(handle hostecs.EntityHandle, cfg collector.InclusionConfig) {
	snap, refs, included := w.collector.FromHandle(handle, cfg)
	if !included || snap == nil {
		return
	}
	w.entities.PutEntity(snap.EntityID, snap, refs)
	w.rememberPrevious(snap)

	w.mu.Lock()
	w.tracked[snap.EntityID] = &trackedPosition{
		x: snap.Position.X, y: snap.Position.Y, z: snap.Position.Z,
		yaw: snap.Rotation.Yaw, pitch: snap.Rotation.Pitch,
		lastFullUpdate: timeNow(),
	}
	w.mu.Unlock()

	if w.callbacks.OnEntitySpawn != nil {
		w.callbacks.OnEntitySpawn(snap)
	}
}

// OnEntityRemoved implements the lifecycle-remove half of §4.4. id is
// either the chunk reference index or the UUID-hash surrogate, whichever
// identified the entity while it was alive.
func (w *Watcher) OnEntityRemoved(id int64) {
	w.entities.RemoveEntity(id)

	w.mu.Lock()
	delete(w.tracked, id)
	delete(w.pendingBatch, id)
	delete(w.previous, id)
	w.mu.Unlock()

	if w.callbacks.OnEntityDespawn != nil {
		w.callbacks.OnEntityDespawn(id)
	}
}

// Tick implements the per-tick observer of §4.4. It must be called once per
// host tick with every currently-resident entity's fresh collection; the
// caller (the inspector core, scheduled on the world thread) is responsible
// for iterating chunks and invoking this once per entity.
func (w *Watcher) Tick(snap *model.EntitySnapshot, refs map[string]hostecs.Component) {
	if snap == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	tracked, known := w.tracked[snap.EntityID]
	if !known {
		tracked = &trackedPosition{lastFullUpdate: timeNow()}
		w.tracked[snap.EntityID] = tracked
	}
	tracked.processedTicks++

	if !known || tracked.processedTicks%w.updateIntervalTicks != 0 {
		if !known {
			tracked.lastFullUpdate = timeNow()
			w.applyFullUpdateLocked(snap, refs)
			tracked.x, tracked.y, tracked.z = snap.Position.X, snap.Position.Y, snap.Position.Z
			tracked.yaw, tracked.pitch = snap.Rotation.Yaw, snap.Rotation.Pitch
		}
		return
	}

	moved := movedPastThreshold(tracked, snap)
	dueForFullRefresh := tracked.processedTicks%(w.updateIntervalTicks*fullRefreshEveryNIntervals) == 0 &&
		timeNow().Sub(tracked.lastFullUpdate) >= minFullRefreshInterval

	if moved {
		w.pendingBatch[snap.EntityID] = model.PositionUpdate{
			EntityID: snap.EntityID, UUID: snap.UUID,
			X: snap.Position.X, Y: snap.Position.Y, Z: snap.Position.Z,
			Yaw: snap.Rotation.Yaw, Pitch: snap.Rotation.Pitch,
		}
		tracked.x, tracked.y, tracked.z = snap.Position.X, snap.Position.Y, snap.Position.Z
		tracked.yaw, tracked.pitch = snap.Rotation.Yaw, snap.Rotation.Pitch
	}
	if dueForFullRefresh {
		tracked.lastFullUpdate = timeNow()
		w.applyFullUpdateLocked(snap, refs)
	}
}

func movedPastThreshold(t *trackedPosition, snap *model.EntitySnapshot) bool {
	return absDelta(t.x, snap.Position.X) >= positionDeltaThreshold ||
		absDelta(t.y, snap.Position.Y) >= positionDeltaThreshold ||
		absDelta(t.z, snap.Position.Z) >= positionDeltaThreshold
}

func absDelta(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// applyFullUpdateLocked stores the fresh snapshot, diffs it against the
// previously recorded one (invariant 8: field-wise component comparison,
// absent-previous means every component counts as changed), and fires
// OnEntityUpdate with the changed component name list.
func (w *Watcher) applyFullUpdateLocked(snap *model.EntitySnapshot, refs map[string]hostecs.Component) {
	w.entities.PutEntity(snap.EntityID, snap, refs)
	changed := w.diffAgainstPreviousLocked(snap)
	w.rememberPreviousLocked(snap)
	if w.callbacks.OnEntityUpdate != nil {
		w.callbacks.OnEntityUpdate(snap, changed)
	}
}

func (w *Watcher) diffAgainstPreviousLocked(snap *model.EntitySnapshot) []string {
	prev, ok := w.previous[snap.EntityID]
	if !ok || prev.Components == nil {
		return allComponentNames(snap)
	}
	var changed []string
	if snap.Components != nil {
		for _, name := range snap.Components.Keys() {
			cur, _ := snap.Components.Get(name)
			curComp, _ := cur.(*model.ComponentData)
			old, existed := prev.Components.Get(name)
			oldComp, _ := old.(*model.ComponentData)
			if !existed || !curComp.Equal(oldComp) {
				changed = append(changed, name)
			}
		}
	}
	sort.Strings(changed)
	return changed
}

func allComponentNames(snap *model.EntitySnapshot) []string {
	if snap.Components == nil {
		return nil
	}
	names := append([]string(nil), snap.Components.Keys()...)
	sort.Strings(names)
	return names
}

func (w *Watcher) rememberPrevious(snap *model.EntitySnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rememberPreviousLocked(snap)
}

func (w *Watcher) rememberPreviousLocked(snap *model.EntitySnapshot) {
	if _, existed := w.previous[snap.EntityID]; !existed {
		w.prevOrder = append(w.prevOrder, snap.EntityID)
	}
	w.previous[snap.EntityID] = snap
	for len(w.prevOrder) > w.maxPrev {
		oldest := w.prevOrder[0]
		w.prevOrder = w.prevOrder[1:]
		delete(w.previous, oldest)
	}
}

// FlushPositionBatch implements the dedicated 50ms scheduled job: drain the
// pending batch and hand it to OnPositionBatch in a stable entity-id order,
// then advance the time-sync counter.
func (w *Watcher) FlushPositionBatch(epochMilli int64, rate float64) {
	w.mu.Lock()
	if len(w.pendingBatch) == 0 {
		w.mu.Unlock()
		return
	}
	updates := make([]model.PositionUpdate, 0, len(w.pendingBatch))
	for _, u := range w.pendingBatch {
		updates = append(updates, u)
	}
	w.pendingBatch = make(map[int64]model.PositionUpdate)
	w.batchCount++
	dueForTimeSync := w.batchCount%timeSyncEveryNBatches == 0
	w.mu.Unlock()

	sort.Slice(updates, func(i, j int) bool { return updates[i].EntityID < updates[j].EntityID })

	if w.callbacks.OnPositionBatch != nil {
		w.callbacks.OnPositionBatch(updates)
	}
	if dueForTimeSync && w.callbacks.OnTimeSync != nil {
		w.callbacks.OnTimeSync(epochMilli, rate)
	}
}

func timeNow() time.Time { return time.Now() }
