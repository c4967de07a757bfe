// Package inspector wires the cache, collector, watcher, query service,
// asset wrapper, and transport hub into the single orchestrator described at
// §4.6: the Inspector Core. Nothing outside this package talks to the host
// world or the transport hub directly — every feature gate, on-demand
// refresh, and entity action is decided here. Grounded on a thin
// dispatch-surface/mod-API-facade split: the facade never trusts the
// caller to have already checked a permission flag.
package inspector

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lait-kelomins/laits-entity-inspector/internal/assets"
	"github.com/lait-kelomins/laits-entity-inspector/internal/cache"
	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/config"
	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/instructions"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/query"
	"github.com/lait-kelomins/laits-entity-inspector/internal/telemetry"
	"github.com/lait-kelomins/laits-entity-inspector/internal/transport"
	"github.com/lait-kelomins/laits-entity-inspector/internal/watch"
)

// refreshTimeoutMs is §4.6's fixed on-demand refresh deadline.
const refreshTimeoutMs = 2000

// Core is the single orchestrator wiring every other package together.
type Core struct {
	world    hostecs.World
	cfg      *config.Store
	entities *cache.EntityCache
	packets  *cache.PacketCache
	collector *collector.Collector
	watcher  *watch.Watcher
	queries  *query.Service
	assets   *assets.Wrapper
	hub      *transport.Hub

	uuidByID sync.Map // int64 -> string, populated on spawn for despawn payloads
	paused   int32

	log zerolog.Logger
}

// New wires a Core around world and the given collaborators. store and
// patches are the external asset registry / patch engine (§1 out of scope);
// trees builds instruction-tree views from a live NPCEntity reference.
func New(world hostecs.World, cfgStore *config.Store, entities *cache.EntityCache, packets *cache.PacketCache, coll *collector.Collector, trees *instructions.Serializer, store assets.AssetStore, patches assets.PatchEngine, hub *transport.Hub) *Core {
	c := &Core{
		world:     world,
		cfg:       cfgStore,
		entities:  entities,
		packets:   packets,
		collector: coll,
		hub:       hub,
		log:       telemetry.WithComponent("inspector"),
	}
	c.queries = query.New(entities, world, trees)
	c.assets = assets.New(store, patches, c.featureGates)

	cur := cfgStore.Current()
	c.watcher = watch.New(coll, entities, cur.UpdateIntervalTicks, cur.MaxCachedEntities, watch.Callbacks{
		OnEntitySpawn:   c.broadcastEntitySpawn,
		OnEntityDespawn: c.broadcastEntityDespawn,
		OnEntityUpdate:  c.broadcastEntityUpdate,
		OnPositionBatch: c.broadcastPositionBatch,
		OnTimeSync:      c.broadcastTimeSync,
	})
	return c
}

func (c *Core) featureGates() config.FeatureGates { return c.cfg.Current().Debug }

func nowMilli() int64 { return time.Now().UnixMilli() }

// --- lifecycle / tick plumbing (§4.4, §4.6) ---

// HandleEntityAdded routes a lifecycle "entity added" callback to the
// watcher, using the currently configured inclusion filter.
func (c *Core) HandleEntityAdded(handle hostecs.EntityHandle) {
	c.watcher.OnEntityAdded(handle, c.inclusionConfig())
}

// HandleEntityRemoved routes a lifecycle "entity removed" callback.
func (c *Core) HandleEntityRemoved(id int64) {
	c.watcher.OnEntityRemoved(id)
}

func (c *Core) inclusionConfig() collector.InclusionConfig {
	cur := c.cfg.Current()
	return collector.InclusionConfig{IncludeNPCs: cur.IncludeNPCs, IncludePlayers: cur.IncludePlayers, IncludeItems: cur.IncludeItems}
}

// RunTick implements the per-tick observer driver of §4.4: scheduled on the
// world thread, it walks every resident chunk and feeds a fresh collection
// of each entity to the watcher. A no-op while paused or disabled.
func (c *Core) RunTick() {
	if c.IsPaused() || !c.cfg.Current().Enabled {
		return
	}
	incl := c.inclusionConfig()
	err := c.world.Thread().Execute(func() {
		q := c.world.Query()
		q.ForEachChunk(func(chunk hostecs.Chunk) bool {
			for slot := 0; slot < chunk.Len(); slot++ {
				snap, refs, ok := c.collector.FromChunk(chunk, slot, incl)
				if !ok || snap == nil {
					continue
				}
				c.watcher.Tick(snap, refs)
			}
			return true
		})
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("tick execution failed")
	}
	telemetry.EntitiesCached.Set(float64(c.entities.Size()))
}

// FlushPositions implements the dedicated 50ms scheduled job of §5: drain
// the watcher's pending batch using the world's current game-time.
func (c *Core) FlushPositions() {
	c.watcher.FlushPositionBatch(c.world.GameTimeEpochMilli(), c.world.GameTimeRate())
}

// Pause / Resume / IsPaused implement the SET_PAUSED request: a paused core
// still accepts connections and requests but stops the tick driver from
// collecting fresh state.
func (c *Core) Pause()          { atomic.StoreInt32(&c.paused, 1) }
func (c *Core) Resume()         { atomic.StoreInt32(&c.paused, 0) }
func (c *Core) IsPaused() bool  { return atomic.LoadInt32(&c.paused) == 1 }

// --- broadcast callbacks wired into the watcher (§4.4, §4.6 feature gates) ---

func (c *Core) broadcastEntitySpawn(snap *model.EntitySnapshot) {
	c.uuidByID.Store(snap.EntityID, snap.UUID)
	if !c.featureGates().EntityLifecycle {
		return
	}
	c.hub.Broadcast(model.Frame{Type: model.MsgEntitySpawn, Data: snap, Timestamp: nowMilli()})
}

func (c *Core) broadcastEntityDespawn(id int64) {
	uuid := ""
	if v, ok := c.uuidByID.LoadAndDelete(id); ok {
		uuid, _ = v.(string)
	}
	if !c.featureGates().EntityLifecycle {
		return
	}
	c.hub.Broadcast(model.Frame{
		Type:      model.MsgEntityDespawn,
		Data:      model.EntityDespawnData{EntityID: id, UUID: uuid},
		Timestamp: nowMilli(),
	})
}

func (c *Core) broadcastEntityUpdate(snap *model.EntitySnapshot, changed []string) {
	if !c.featureGates().EntityLifecycle {
		return
	}
	c.hub.Broadcast(model.Frame{
		Type:      model.MsgEntityUpdate,
		Data:      model.EntityUpdateData{Snapshot: snap, ChangedComponents: changed},
		Timestamp: nowMilli(),
	})
}

func (c *Core) broadcastPositionBatch(updates []model.PositionUpdate) {
	if !c.featureGates().PositionTracking {
		return
	}
	c.hub.Broadcast(model.Frame{Type: model.MsgPositionBatch, Data: updates, Timestamp: nowMilli()})
}

func (c *Core) broadcastTimeSync(epochMilli int64, rate float64) {
	if !c.featureGates().PositionTracking {
		return
	}
	c.hub.Broadcast(model.Frame{
		Type:      model.MsgTimeSync,
		Data:      model.TimeSyncData{GameTimeEpochMilli: epochMilli, GameTimeRate: rate},
		Timestamp: nowMilli(),
	})
}

// --- on-connect sequence (§4.7) ---

// HandleConnect implements §4.7's four-step on-connect sequence: send INIT,
// mark initialized, then send the current config and feature gates. Only
// after this completes is the session eligible for broadcast.
func (c *Core) HandleConnect(conn transport.Conn) (*transport.Session, error) {
	session, err := c.hub.Connect(conn)
	if err != nil {
		return nil, err
	}

	if err := session.Send(model.Frame{Type: model.MsgInit, Data: c.Snapshot(), Timestamp: nowMilli()}); err != nil {
		c.log.Warn().Err(err).Str("session", session.ID()).Msg("failed to send initial snapshot")
	}
	c.hub.MarkInitialized(session)

	cur := c.cfg.Current()
	if err := session.Send(model.Frame{Type: model.MsgConfigSync, Data: cur, Timestamp: nowMilli()}); err != nil {
		c.log.Warn().Err(err).Str("session", session.ID()).Msg("failed to send config sync")
	}
	if err := session.Send(model.Frame{Type: model.MsgFeatureInfo, Data: cur.Debug, Timestamp: nowMilli()}); err != nil {
		c.log.Warn().Err(err).Str("session", session.ID()).Msg("failed to send feature info")
	}
	return session, nil
}

// HandleDisconnect removes session from the hub; no further broadcasts
// reach it.
func (c *Core) HandleDisconnect(session *transport.Session) {
	c.hub.Disconnect(session)
}

// Snapshot builds a WorldSnapshot from the cache, never from a live rescan
// (§4.6's onRequestSnapshot).
func (c *Core) Snapshot() model.WorldSnapshot {
	epoch := c.world.GameTimeEpochMilli()
	rate := c.world.GameTimeRate()
	return model.WorldSnapshot{
		WorldID:            c.world.ID(),
		WorldName:          c.world.Name(),
		Entities:           c.entities.Snapshots(),
		GameTimeEpochMilli: &epoch,
		GameTimeRate:       &rate,
		ServerVersion:      c.world.ServerVersion(),
	}
}

// --- on-demand refresh (§4.6, §5) ---

// refreshEntityLive enqueues a collectEntityById invocation on the world
// thread and waits up to refreshTimeoutMs. On timeout it records the metric
// and returns false. The submitted closure may still run later, per
// WorldThread.TryExecute's contract, but its result is then discarded: the
// cache is only updated by a refresh that finished within the deadline.
func (c *Core) refreshEntityLive(id int64) (*model.EntitySnapshot, bool) {
	incl := c.inclusionConfig()
	var (
		snap  *model.EntitySnapshot
		refs  map[string]hostecs.Component
		found bool
	)
	ran, err := c.world.Thread().TryExecute(func() {
		q := c.world.Query()
		snap, refs, found = c.collector.ById(q, hostecs.EntityID(id), incl)
	}, refreshTimeoutMs)

	if err != nil || !ran {
		telemetry.OnDemandRefreshTimeoutsTotal.Inc()
		c.log.Warn().Err(err).Int64("entityId", id).Msg("on-demand refresh timed out, falling back to cache")
		return nil, false
	}
	if !found || snap == nil {
		return nil, false
	}
	c.entities.PutEntity(snap.EntityID, snap, refs)
	return snap, true
}

// entitySnapshotRefreshed implements the "refresh-then-return" behavior
// shared by entity detail, timers, alarms, and instructions requests: try a
// live on-demand refresh when the gate allows it, otherwise (or on failure)
// fall back to whatever is already cached.
func (c *Core) entitySnapshotRefreshed(id int64) (*model.EntitySnapshot, bool) {
	if c.featureGates().OnDemandRefresh {
		if snap, ok := c.refreshEntityLive(id); ok {
			return snap, true
		}
	}
	return c.queries.GetEntityDetail(id)
}

// EntityDetail implements onRequestEntityDetail.
func (c *Core) EntityDetail(id int64) (*model.EntitySnapshot, bool) {
	return c.entitySnapshotRefreshed(id)
}

// Timers implements the timers request: disabled reports (nil, true, false);
// otherwise found reports whether the entity is known at all.
func (c *Core) Timers(id int64) (timers []model.TimerInfo, disabled, found bool) {
	if !c.featureGates().TimerInspection {
		return nil, true, false
	}
	if _, ok := c.entitySnapshotRefreshed(id); !ok {
		return nil, false, false
	}
	return c.queries.GetTimers(id), false, true
}

// Alarms implements the alarms request.
func (c *Core) Alarms(id int64) (alarms []model.AlarmInfo, disabled, found bool) {
	if !c.featureGates().AlarmInspection {
		return nil, true, false
	}
	if _, ok := c.entitySnapshotRefreshed(id); !ok {
		return nil, false, false
	}
	return c.queries.GetAlarms(id), false, true
}

// Instructions implements the instructions request.
func (c *Core) Instructions(id int64) (tree model.InstructionTree, disabled, found bool) {
	if !c.featureGates().InstructionInspection {
		return model.InstructionTree{}, true, false
	}
	if _, ok := c.entitySnapshotRefreshed(id); !ok {
		return model.InstructionTree{}, false, false
	}
	tree, ok := c.queries.GetInstructions(id)
	return tree, false, ok
}

// ListEntities implements listEntities; not behind any single feature gate.
func (c *Core) ListEntities(filter, search string, limit, offset int) []model.EntityListItem {
	return c.queries.ListEntities(filter, search, limit, offset)
}

// FindByTimerState implements findByTimerState, gated like Timers.
func (c *Core) FindByTimerState(state model.TimerState, limit int) (items []model.EntityListItem, disabled bool) {
	if !c.featureGates().TimerInspection {
		return nil, true
	}
	return c.queries.FindByTimerState(state, limit), false
}

// FindByAlarm implements findByAlarm, gated like Alarms.
func (c *Core) FindByAlarm(name string, state model.AlarmState, limit int) (items []model.EntityListItem, disabled bool) {
	if !c.featureGates().AlarmInspection {
		return nil, true
	}
	return c.queries.FindByAlarm(name, state, limit), false
}

// --- lazy expansion (§4.3, §4.6) ---

// ExpandEntity implements onRequestExpand. Both the disabled-gate case and a
// resolution miss surface through the same "Failed to expand path" wire
// message (§8 S7) since a path lookup has no natural empty representation.
func (c *Core) ExpandEntity(id int64, path string) (value any, failureReason string) {
	if !c.featureGates().LazyExpansion {
		return nil, "lazy expansion disabled via debug config"
	}
	v := c.entities.ExpandEntityPath(id, path)
	if v == nil {
		return nil, "no such entity, component, or field"
	}
	return v, ""
}

// ExpandPacket implements onRequestPacketExpand.
func (c *Core) ExpandPacket(id int64, path string) (value any, failureReason string) {
	if !c.featureGates().LazyExpansion {
		return nil, "lazy expansion disabled via debug config"
	}
	v := c.packets.ExpandPacketPath(id, path)
	if v == nil {
		return nil, "no such packet or field"
	}
	return v, ""
}

// --- config (§4.6, §6) ---

// ConfigUpdate applies updates, re-propagates the derived settings into the
// watcher and cache, persists, and broadcasts CONFIG_SYNC.
func (c *Core) ConfigUpdate(updates map[string]any) config.Config {
	cur := c.cfg.Apply(updates)
	c.watcher.SetUpdateIntervalTicks(cur.UpdateIntervalTicks)
	c.entities.SetMaxEntries(cur.MaxCachedEntities)
	c.hub.Broadcast(model.Frame{Type: model.MsgConfigSync, Data: cur, Timestamp: nowMilli()})
	return cur
}

// --- entity actions (§4.6, feature-gated by entityActions) ---

// SetEntitySurname implements setEntitySurname. It returns "" on success
// or a short error string. It waits on the world thread until the write has
// run, so the writer's own error is reported too.
func (c *Core) SetEntitySurname(id int64, text string) string {
	if !c.featureGates().EntityActions {
		return gateDisabled("entityActions")
	}
	writer, ok := c.world.(hostecs.EntityWriter)
	if !ok {
		return "entity actions are not supported by this world"
	}
	entry, ok := c.entities.Get(id)
	if !ok || entry.Snapshot == nil {
		return errEntityNotFound
	}
	uuid := entry.Snapshot.UUID

	var opErr error
	if err := c.world.Thread().Execute(func() { opErr = writer.SetEntitySurname(uuid, text) }); err != nil {
		c.log.Warn().Err(err).Int64("entityId", id).Msg("setEntitySurname world-thread execution failed")
		return "world thread execution failed"
	}
	if opErr != nil {
		c.log.Warn().Err(opErr).Int64("entityId", id).Msg("setEntitySurname failed")
		return opErr.Error()
	}
	return ""
}

// TeleportToEntity implements teleportToEntity: every connected player's
// handle is teleported to the target entity's current cached position.
func (c *Core) TeleportToEntity(id int64) string {
	if !c.featureGates().EntityActions {
		return gateDisabled("entityActions")
	}
	writer, ok := c.world.(hostecs.EntityWriter)
	if !ok {
		return "entity actions are not supported by this world"
	}
	entry, ok := c.entities.Get(id)
	if !ok || entry.Snapshot == nil {
		return errEntityNotFound
	}
	target := hostecs.Vector3{X: entry.Snapshot.Position.X, Y: entry.Snapshot.Position.Y, Z: entry.Snapshot.Position.Z}

	var opErr error
	if err := c.world.Thread().Execute(func() { opErr = writer.TeleportPlayersTo(target) }); err != nil {
		c.log.Warn().Err(err).Int64("entityId", id).Msg("teleportToEntity world-thread execution failed")
		return "world thread execution failed"
	}
	if opErr != nil {
		c.log.Warn().Err(opErr).Int64("entityId", id).Msg("teleportToEntity failed")
		return opErr.Error()
	}
	return ""
}

// --- assets / patches (§4.6, delegated to the gated wrapper) ---

func (c *Core) AssetCategories() ([]model.AssetCategory, error)      { return c.assets.Categories() }
func (c *Core) AssetList(category string) ([]model.AssetSummary, error) { return c.assets.List(category) }
func (c *Core) AssetDetail(path string) (model.AssetDetail, error)   { return c.assets.Detail(path) }
func (c *Core) AssetExpand(path, fieldPath string) (any, error)      { return c.assets.Expand(path, fieldPath) }
func (c *Core) SearchAssets(query string) ([]model.AssetSummary, error) { return c.assets.Search(query) }
func (c *Core) TestWildcard(pattern string) ([]string, error)        { return c.assets.TestWildcard(pattern) }
func (c *Core) GeneratePatch(baseAssetPath string, overlay any) (model.Patch, error) {
	return c.assets.GeneratePatch(baseAssetPath, overlay)
}
func (c *Core) SaveDraft(patch model.Patch) (model.Draft, error) { return c.assets.SaveDraft(patch) }
func (c *Core) PublishPatch(filename string) error               { return c.assets.PublishPatch(filename) }
func (c *Core) ListDrafts() ([]model.Draft, error)               { return c.assets.ListDrafts() }

// --- packet logging (§4.2 packet adapter, §5 any-thread callback) ---

// RecordPacket routes a packet adapter callback into the packet cache,
// honoring packetLogEnabled and packetLogExcluded, then broadcasts the
// resulting entry.
func (c *Core) RecordPacket(direction model.PacketDirection, packetName string, packetID int32, handlerName string, payload any, redactions model.RedactionSet) {
	cur := c.cfg.Current()
	if !cur.PacketLogEnabled {
		return
	}
	for _, excluded := range cur.PacketLogExcluded {
		if excluded == packetName {
			return
		}
	}
	entry := c.packets.RecordPacket(direction, packetName, packetID, handlerName, payload, redactions, nowMilli())
	telemetry.PacketsCached.Set(float64(c.packets.Size()))
	c.hub.Broadcast(model.Frame{Type: model.MsgPacketLog, Data: entry, Timestamp: nowMilli()})
}
