// Package hostecs describes the surface the inspection engine consumes from
// the host game server's entity-component store. The host ECS runtime
// itself — archetype storage, system scheduling, the render/physics loop —
// is an external collaborator and is never implemented here. Everything in
// this package is a read-oriented interface the host is expected to satisfy,
// plus small value types shared across the engine.
package hostecs

import "fmt"

// EntityID is the stable integer identity the inspection engine assigns to
// an entity. For chunk-resident entities it is the ECS reference index; for
// entities reached only through a handle (lifecycle adds) it is a 32-bit
// hash of the entity's UUID used as a stable surrogate.
type EntityID int64

// InvalidEntityID marks the absence of an entity.
const InvalidEntityID EntityID = 0

// Vector3 is a plain 3D numeric vector. Positions are always expressed in
// this shape; the serializer special-cases it to a 3-element sequence.
type Vector3 struct {
	X, Y, Z float64
}

// Rotation is yaw/pitch only — the host never exposes roll to the inspector.
type Rotation struct {
	Yaw, Pitch float32
}

// Transform is the well-known component every spawn-eligible entity carries.
type Transform struct {
	Position Vector3
	Rotation Rotation
}

// Component is the minimal read contract the host's component values must
// satisfy to be walked by the serializer. A concrete host component is an
// arbitrary struct; TypeName is the only method the engine actually needs
// because the serializer discovers fields by reflection, not by this
// interface's method set.
type Component interface {
	TypeName() string
}

// EntityHandle is a direct reference to an entity's live components,
// obtained from a lifecycle "entity added" callback rather than from chunk
// iteration. Component access through a handle is expected to remain valid
// for the lifetime of the callback but, like everything else the host
// hands back, is not guaranteed to survive an archetype move.
type EntityHandle interface {
	UUID() string
	Component(typeName string) (Component, bool)
	ComponentTypeNames() []string
}

// Chunk is a contiguous block of entities sharing an archetype, as iterated
// by the host's query interface (see ChunkQuery). Index addresses a single
// entity's slot within the chunk.
type Chunk interface {
	Len() int
	ReferenceIndex(slot int) EntityID
	UUID(slot int) string
	Component(slot int, typeName string) (Component, bool)
	ComponentTypeNames(slot int) []string
}

// ChunkQuery iterates chunks matching a set of required component types.
// The host is expected to provide one query per tick/lifecycle observer
// registration; the engine never constructs its own archetype filter logic
// beyond the type-name list it asks for.
type ChunkQuery interface {
	ForEachChunk(func(Chunk) (cont bool))
}

// WorldThread is the cooperative single-threaded executor a world exposes.
// All reads of live ECS state — chunk iteration, handle dereference, path
// expansion against live refs — must be scheduled through it; the engine
// must never touch host state from a transport or timer goroutine directly.
type WorldThread interface {
	// Execute enqueues fn to run on the world thread and returns once fn has
	// completed. There is no mid-run cancellation: a submitted closure always
	// runs to completion once the world thread picks it up.
	Execute(fn func()) error

	// TryExecute behaves like Execute but gives up waiting after timeoutMs
	// milliseconds; fn may still run later even if the caller stops waiting.
	TryExecute(fn func(), timeoutMs int) (ran bool, err error)
}

// World is the thin slice of a game world the inspection engine needs: its
// identity, its query entry point, and its cooperative executor. A real
// host world satisfies a much larger interface; the engine only ever calls
// through this one.
type World interface {
	ID() string
	Name() string
	ServerVersion() string
	GameTimeEpochMilli() int64
	GameTimeRate() float64
	Query(componentTypes ...string) ChunkQuery
	Thread() WorldThread
	PlayerHandles() []EntityHandle
}

// ErrWorldThreadTimeout is returned by TryExecute implementations when the
// deadline elapses before the submitted closure has finished running.
var ErrWorldThreadTimeout = fmt.Errorf("hostecs: world thread did not respond in time")
