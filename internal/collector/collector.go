// Package collector builds EntitySnapshot values (plus the parallel live
// component-reference map the expansion path resolver needs) from the host
// ECS's chunk and handle iteration surface, generalized from an archetype
// bitset machinery's query/entity-manager iteration idiom down to the
// narrow hostecs.Chunk / hostecs.EntityHandle surface this engine actually
// consumes.
package collector

import (
	"hash/fnv"

	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

// Well-known component type names explicitly handled before the generic
// remaining-archetype sweep (§4.2).
const (
	TransformType = "Transform"
	ModelType     = "Model"
	UUIDType      = "Uuid"
	NPCType       = "NPCEntity"
)

// InclusionConfig mirrors the config flags that gate which entity types the
// collector reports (§4.2). Per the open questions in SPEC_FULL.md §9, the
// Player exclusion path is preserved even though it is never actually
// reachable: nothing in this package ever stamps entityType to "Player".
type InclusionConfig struct {
	IncludeNPCs     bool
	IncludePlayers  bool
	IncludeItems    bool
}

// Collector builds snapshots and live reference maps from host-provided
// chunks and handles. All operations are expected to run on the world's
// cooperative thread (§4.2) — the collector itself does no scheduling; that
// is the caller's responsibility (see internal/watch, internal/inspector).
type Collector struct {
	serializer *serializer.Serializer
}

// New returns a Collector backed by s.
func New(s *serializer.Serializer) *Collector {
	return &Collector{serializer: s}
}

// FromChunk builds a snapshot for the entity at (chunk, slot). It returns
// (nil, nil, false) when the entity's derived type is excluded by cfg.
func (c *Collector) FromChunk(chunk hostecs.Chunk, slot int, cfg InclusionConfig) (*model.EntitySnapshot, map[string]hostecs.Component, bool) {
	entityID := chunk.ReferenceIndex(slot)
	uuid := chunk.UUID(slot)
	typeNames := chunk.ComponentTypeNames(slot)

	get := func(name string) (hostecs.Component, bool) {
		return chunk.Component(slot, name)
	}
	return c.build(int64(entityID), uuid, typeNames, get, cfg)
}

// FromHandle builds a snapshot from a lifecycle-add handle. The surrogate
// entity id is the 32-bit FNV hash of the UUID string, matching the host's
// own stable-surrogate convention for handle-only entities (§3, §4.2).
func (c *Collector) FromHandle(handle hostecs.EntityHandle, cfg InclusionConfig) (*model.EntitySnapshot, map[string]hostecs.Component, bool) {
	uuid := handle.UUID()
	typeNames := handle.ComponentTypeNames()

	get := func(name string) (hostecs.Component, bool) {
		return handle.Component(name)
	}
	return c.build(int64(HashUUID(uuid)), uuid, typeNames, get, cfg)
}

// ById scans query's chunks for the entity whose reference index equals id,
// stopping at the first match (§4.2).
func (c *Collector) ById(query hostecs.ChunkQuery, id hostecs.EntityID, cfg InclusionConfig) (*model.EntitySnapshot, map[string]hostecs.Component, bool) {
	var (
		snapshot *model.EntitySnapshot
		refs     map[string]hostecs.Component
		included bool
		found    bool
	)
	query.ForEachChunk(func(chunk hostecs.Chunk) bool {
		for slot := 0; slot < chunk.Len(); slot++ {
			if chunk.ReferenceIndex(slot) != id {
				continue
			}
			snapshot, refs, included = c.FromChunk(chunk, slot, cfg)
			found = true
			return false
		}
		return true
	})
	return snapshot, refs, found && included
}

// HashUUID is the stable 32-bit surrogate id derivation used whenever only
// a UUID, not a chunk reference index, is available.
func HashUUID(uuid string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uuid))
	return h.Sum32()
}

func (c *Collector) build(entityID int64, uuid string, typeNames []string, get func(string) (hostecs.Component, bool), cfg InclusionConfig) (*model.EntitySnapshot, map[string]hostecs.Component, bool) {
	snapshot := &model.EntitySnapshot{
		EntityID:   entityID,
		UUID:       uuid,
		Components: model.NewOrderedMap(),
		Timestamp:  nowMilli(),
	}
	refs := make(map[string]hostecs.Component, len(typeNames))
	seen := make(map[string]bool, len(typeNames))

	if comp, ok := get(TransformType); ok {
		refs[TransformType] = comp
		seen[TransformType] = true
		if tr, ok := extractTransform(comp); ok {
			snapshot.Position = tr.Position
			snapshot.Rotation = tr.Rotation
		}
		snapshot.Components.Set(TransformType, c.componentData(TransformType, comp))
	}

	if comp, ok := get(ModelType); ok {
		refs[ModelType] = comp
		seen[ModelType] = true
		snapshot.ModelAssetID, _ = extractStringField(comp, "ModelAssetID", "modelAssetId")
		snapshot.Components.Set(ModelType, c.componentData(ModelType, comp))
	}

	if comp, ok := get(UUIDType); ok {
		refs[UUIDType] = comp
		seen[UUIDType] = true
		if id, ok := extractStringField(comp, "UUID", "uuid"); ok && id != "" {
			snapshot.UUID = id
		}
	}

	if comp, ok := get(NPCType); ok {
		refs[NPCType] = comp
		seen[NPCType] = true
		snapshot.EntityType = "NPC"
		snapshot.Components.Set(NPCType, c.componentData(NPCType, comp))
	}

	if !included(snapshot.EntityType, cfg) {
		return nil, nil, false
	}

	for _, name := range typeNames {
		if seen[name] {
			continue
		}
		comp, ok := get(name)
		if !ok {
			continue
		}
		refs[name] = comp
		snapshot.Components.Set(name, c.componentData(name, comp))
	}

	return snapshot, refs, true
}

// included implements the inclusion filter exactly as observed in the
// original: entityType "NPC" is gated by IncludeNPCs and "Item" by
// IncludeItems, but "Player" is never actually stamped anywhere in this
// package, so the IncludePlayers flag is preserved yet structurally inert.
// See the open questions in SPEC_FULL.md §9 — this is deliberate fidelity,
// not an oversight.
func included(entityType string, cfg InclusionConfig) bool {
	switch entityType {
	case "NPC":
		return cfg.IncludeNPCs
	case "Item":
		return cfg.IncludeItems
	case "Player":
		return cfg.IncludePlayers
	default:
		return true
	}
}

func (c *Collector) componentData(typeName string, comp hostecs.Component) *model.ComponentData {
	fields, _ := c.serializer.Serialize(comp).(*model.OrderedMap)
	return &model.ComponentData{TypeName: typeName, Fields: fields}
}

type transformShape struct {
	Position model.Vector3
	Rotation model.Rotation
}

func extractTransform(comp hostecs.Component) (transformShape, bool) {
	if t, ok := comp.(interface {
		TransformValue() (model.Vector3, model.Rotation)
	}); ok {
		pos, rot := t.TransformValue()
		return transformShape{Position: pos, Rotation: rot}, true
	}
	return reflectTransform(comp)
}
