package hostecs

import (
	"fmt"
	"sync"
	"time"
)

// FakeWorldThread is a test double for WorldThread that runs submitted
// closures synchronously on the calling goroutine, except that TryExecute
// with a delay longer than its timeout runs fn on a separate goroutine so
// the call can time out. It exists so unit tests can exercise world-thread
// scheduling code without a real host process.
type FakeWorldThread struct {
	mu    sync.Mutex
	delay time.Duration
}

// NewFakeWorldThread returns a WorldThread that executes work immediately.
func NewFakeWorldThread() *FakeWorldThread {
	return &FakeWorldThread{}
}

// SetDelay makes subsequent Execute/TryExecute calls sleep before running fn,
// useful for exercising the on-demand refresh timeout path.
func (f *FakeWorldThread) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *FakeWorldThread) Execute(fn func()) error {
	f.mu.Lock()
	d := f.delay
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	fn()
	return nil
}

func (f *FakeWorldThread) TryExecute(fn func(), timeoutMs int) (bool, error) {
	f.mu.Lock()
	d := f.delay
	f.mu.Unlock()

	if d <= time.Duration(timeoutMs)*time.Millisecond {
		if d > 0 {
			time.Sleep(d)
		}
		fn()
		return true, nil
	}

	done := make(chan struct{})
	go func() {
		time.Sleep(d)
		fn()
		close(done)
	}()

	select {
	case <-done:
		return true, nil
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return false, ErrWorldThreadTimeout
	}
}

// FakeComponent is a minimal Component implementation for tests that only
// need TypeName() to satisfy the interface; real host components are
// arbitrary structs discovered by reflection.
type FakeComponent struct {
	Type   string
	Fields map[string]any
}

func (c *FakeComponent) TypeName() string { return c.Type }

// FakeHandle is an in-memory EntityHandle for lifecycle-add tests.
type FakeHandle struct {
	uuid       string
	components map[string]Component
}

// NewFakeHandle builds a handle over the given component set.
func NewFakeHandle(uuid string, components map[string]Component) *FakeHandle {
	return &FakeHandle{uuid: uuid, components: components}
}

func (h *FakeHandle) UUID() string { return h.uuid }

func (h *FakeHandle) Component(typeName string) (Component, bool) {
	c, ok := h.components[typeName]
	return c, ok
}

func (h *FakeHandle) ComponentTypeNames() []string {
	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	return names
}

// FakeChunk is a single-archetype, in-memory Chunk for tests.
type FakeChunk struct {
	refIndices []EntityID
	uuids      []string
	components []map[string]Component
}

// NewFakeChunk returns an empty chunk; AddSlot appends entities to it.
func NewFakeChunk() *FakeChunk {
	return &FakeChunk{}
}

// AddSlot appends one entity's data to the chunk.
func (c *FakeChunk) AddSlot(ref EntityID, uuid string, components map[string]Component) {
	c.refIndices = append(c.refIndices, ref)
	c.uuids = append(c.uuids, uuid)
	c.components = append(c.components, components)
}

func (c *FakeChunk) Len() int { return len(c.refIndices) }

func (c *FakeChunk) ReferenceIndex(slot int) EntityID { return c.refIndices[slot] }

func (c *FakeChunk) UUID(slot int) string { return c.uuids[slot] }

func (c *FakeChunk) Component(slot int, typeName string) (Component, bool) {
	comp, ok := c.components[slot][typeName]
	return comp, ok
}

func (c *FakeChunk) ComponentTypeNames(slot int) []string {
	names := make([]string, 0, len(c.components[slot]))
	for name := range c.components[slot] {
		names = append(names, name)
	}
	return names
}

// FakeQuery iterates a fixed list of chunks, in the shape of ChunkQuery.
type FakeQuery struct {
	Chunks []Chunk
}

func (q *FakeQuery) ForEachChunk(fn func(Chunk) bool) {
	for _, c := range q.Chunks {
		if !fn(c) {
			return
		}
	}
}

// FakeWorld is a minimal in-memory World for integration-style tests.
type FakeWorld struct {
	WorldID       string
	WorldName     string
	Version       string
	GameTimeMilli int64
	GameRate      float64
	Chunks        []Chunk
	Thread_       WorldThread
	Players       []EntityHandle
	Writer        *FakeEntityWriter
}

func (w *FakeWorld) ID() string                   { return w.WorldID }
func (w *FakeWorld) Name() string                 { return w.WorldName }
func (w *FakeWorld) ServerVersion() string         { return w.Version }
func (w *FakeWorld) GameTimeEpochMilli() int64     { return w.GameTimeMilli }
func (w *FakeWorld) GameTimeRate() float64         { return w.GameRate }
func (w *FakeWorld) PlayerHandles() []EntityHandle { return w.Players }

// SetEntitySurname and TeleportPlayersTo make *FakeWorld satisfy
// EntityWriter whenever a Writer is configured, so tests can type-assert
// it the same way the inspector does against a real host world.
func (w *FakeWorld) SetEntitySurname(uuid string, text string) error {
	if w.Writer == nil {
		return fmt.Errorf("hostecs: fake world has no writer configured")
	}
	return w.Writer.SetEntitySurname(uuid, text)
}

func (w *FakeWorld) TeleportPlayersTo(target Vector3) error {
	if w.Writer == nil {
		return fmt.Errorf("hostecs: fake world has no writer configured")
	}
	return w.Writer.TeleportPlayersTo(target)
}

func (w *FakeWorld) Query(componentTypes ...string) ChunkQuery {
	return &FakeQuery{Chunks: w.Chunks}
}

func (w *FakeWorld) Thread() WorldThread {
	if w.Thread_ == nil {
		w.Thread_ = NewFakeWorldThread()
	}
	return w.Thread_
}

// FakeEntityWriter is an in-memory EntityWriter recording every call, for
// tests exercising the entity-action RPCs.
type FakeEntityWriter struct {
	mu            sync.Mutex
	Surnames      map[string]string
	TeleportCalls []Vector3
	Err           error
}

// NewFakeEntityWriter returns an EntityWriter that records calls and never
// fails unless Err is set.
func NewFakeEntityWriter() *FakeEntityWriter {
	return &FakeEntityWriter{Surnames: make(map[string]string)}
}

func (w *FakeEntityWriter) SetEntitySurname(uuid string, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	w.Surnames[uuid] = text
	return nil
}

func (w *FakeEntityWriter) TeleportPlayersTo(target Vector3) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	w.TeleportCalls = append(w.TeleportCalls, target)
	return nil
}
