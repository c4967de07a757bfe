// Package demoworld is a small, self-contained hostecs.World implementation
// used by cmd/inspectord's serve command. The real host ECS is an external
// collaborator (§1 out of scope) supplied by whatever game server process
// embeds the inspector; this package exists so the binary has something
// concrete to observe when run standalone. Component field shapes follow
// a Transform/NPC-role idiom adapted to the 3D hostecs.Vector3/Rotation
// shapes this engine actually consumes.
package demoworld

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
)

// Npc is the well-known NPC marker component (collector.NPCType). Role
// exposes the pure accessor set internal/instructions is willing to call.
type Npc struct {
	Role Role
}

func (Npc) TypeName() string { return "NPCEntity" }

// Role is a minimal behavior-tree root satisfying the pure accessor set
// internal/instructions.BuildTree walks reflectively. It carries no
// RootInstructions/InteractionInstructions/DeathInstructions field, so
// BuildTree returns an instruction tree with just the state-machine view
// populated — this demo seeds entities for transport and snapshot wiring,
// not an exhaustive behavior-tree fixture.
type Role struct {
	Name     string
	State    int
	SubState int
}

func (r Role) GetRoleName() string   { return r.Name }
func (r Role) GetStateIndex() int    { return r.State }
func (r Role) GetSubStateIndex() int { return r.SubState }
func (r Role) GetStateName() string  { return fmt.Sprintf("state-%d", r.State) }

// Health is a generic component swept up by the collector's remaining-
// archetype pass, demonstrating a component with no well-known handling.
type Health struct {
	Current, Max int
}

func (Health) TypeName() string { return "Health" }

// hostecs.Transform itself has no TypeName method (it's a plain value
// shape shared across the engine); transformComponent wraps it so it
// satisfies hostecs.Component the same way a real host component would.
type transformComponent hostecs.Transform

func (transformComponent) TypeName() string { return "Transform" }

// entity is one seeded, live-updating demo entity.
type entity struct {
	id     hostecs.EntityID
	uuid   string
	orbit  float64 // radius of circular drift around the origin
	speed  float64 // radians/sec
	phase  float64
	pos    hostecs.Vector3
	rot    hostecs.Rotation
	npc    *Npc
	health *Health
}

func (e *entity) components() map[string]hostecs.Component {
	m := map[string]hostecs.Component{
		"Transform": transformComponent{Position: e.pos, Rotation: e.rot},
	}
	if e.npc != nil {
		m["NPCEntity"] = *e.npc
	}
	if e.health != nil {
		m["Health"] = *e.health
	}
	return m
}

func (e *entity) typeNames() []string {
	names := []string{"Transform"}
	if e.npc != nil {
		names = append(names, "NPCEntity")
	}
	if e.health != nil {
		names = append(names, "Health")
	}
	return names
}

func (e *entity) tick(elapsed float64) {
	e.phase += e.speed * elapsed
	e.pos = hostecs.Vector3{
		X: e.orbit * math.Cos(e.phase),
		Y: 0,
		Z: e.orbit * math.Sin(e.phase),
	}
	e.rot.Yaw = float32(e.phase)
}

// World is a minimal, ticking hostecs.World seeded with a handful of NPC
// and plain entities drifting in a circular orbit, enough to exercise the
// collector/watcher/cache pipeline end to end without a real host process.
type World struct {
	mu       sync.Mutex
	entities []*entity
	started  time.Time
	rate     float64

	thread *cooperativeThread
}

// New seeds a World with n entities (every third one an NPC) and starts its
// cooperative world thread.
func New(n int) *World {
	w := &World{started: time.Now(), rate: 1.0, thread: newCooperativeThread()}
	for i := 0; i < n; i++ {
		e := &entity{
			id:    hostecs.EntityID(i + 1),
			uuid:  fmt.Sprintf("demo-uuid-%04d", i+1),
			orbit: 2 + float64(i%5),
			speed: 0.15 + 0.05*float64(i%3),
		}
		if i%3 == 0 {
			e.npc = &Npc{Role: Role{Name: fmt.Sprintf("sentry-%d", i), State: i % 4}}
		}
		if i%2 == 0 {
			e.health = &Health{Current: 80 + i%20, Max: 100}
		}
		w.entities = append(w.entities, e)
	}
	go w.run()
	return w
}

func (w *World) run() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()
	for range ticker.C {
		now := time.Now()
		elapsed := now.Sub(last).Seconds()
		last = now
		w.mu.Lock()
		for _, e := range w.entities {
			e.tick(elapsed)
		}
		w.mu.Unlock()
	}
}

func (w *World) ID() string            { return "demo-world" }
func (w *World) Name() string          { return "Demo World" }
func (w *World) ServerVersion() string { return "demo-0.1.0" }

func (w *World) GameTimeEpochMilli() int64 {
	return time.Since(w.started).Milliseconds()
}

func (w *World) GameTimeRate() float64 { return w.rate }

func (w *World) Thread() hostecs.WorldThread { return w.thread }

// Query returns a ChunkQuery exposing every seeded entity as a single
// chunk. componentTypes is accepted but unfiltered — this fixture has no
// archetype storage to narrow against.
func (w *World) Query(componentTypes ...string) hostecs.ChunkQuery {
	return chunkQuery{w: w}
}

func (w *World) PlayerHandles() []hostecs.EntityHandle { return nil }

type chunkQuery struct{ w *World }

func (q chunkQuery) ForEachChunk(fn func(hostecs.Chunk) bool) {
	q.w.mu.Lock()
	snapshot := make([]*entity, len(q.w.entities))
	copy(snapshot, q.w.entities)
	q.w.mu.Unlock()
	fn(demoChunk{entities: snapshot})
}

type demoChunk struct{ entities []*entity }

func (c demoChunk) Len() int { return len(c.entities) }

func (c demoChunk) ReferenceIndex(slot int) hostecs.EntityID { return c.entities[slot].id }

func (c demoChunk) UUID(slot int) string { return c.entities[slot].uuid }

func (c demoChunk) Component(slot int, typeName string) (hostecs.Component, bool) {
	comp, ok := c.entities[slot].components()[typeName]
	return comp, ok
}

func (c demoChunk) ComponentTypeNames(slot int) []string { return c.entities[slot].typeNames() }

// cooperativeThread is a genuine single-goroutine executor: submitted
// closures are queued on a channel and run strictly in submission order by
// one dedicated goroutine, matching the contract hostecs.WorldThread
// documents (no concurrent execution of submitted work).
type cooperativeThread struct {
	jobs chan func()
}

func newCooperativeThread() *cooperativeThread {
	t := &cooperativeThread{jobs: make(chan func(), 64)}
	go func() {
		for fn := range t.jobs {
			fn()
		}
	}()
	return t
}

func (t *cooperativeThread) Execute(fn func()) error {
	done := make(chan struct{})
	t.jobs <- func() {
		fn()
		close(done)
	}
	<-done
	return nil
}

func (t *cooperativeThread) TryExecute(fn func(), timeoutMs int) (bool, error) {
	done := make(chan struct{})
	timeout := time.After(time.Duration(timeoutMs) * time.Millisecond)
	select {
	case t.jobs <- func() { fn(); close(done) }:
	case <-timeout:
		return false, hostecs.ErrWorldThreadTimeout
	}
	select {
	case <-done:
		return true, nil
	case <-timeout:
		return false, hostecs.ErrWorldThreadTimeout
	}
}
