package demoworld

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
)

func TestNew_SeedsRequestedEntityCount(t *testing.T) {
	w := New(10)
	var chunk hostecs.Chunk
	w.Query().ForEachChunk(func(c hostecs.Chunk) bool {
		chunk = c
		return false
	})
	require.NotNil(t, chunk)
	assert.Equal(t, 10, chunk.Len())
}

func TestNew_SeedsNpcsEveryThirdEntity(t *testing.T) {
	w := New(6)
	var chunk hostecs.Chunk
	w.Query().ForEachChunk(func(c hostecs.Chunk) bool {
		chunk = c
		return false
	})
	require.NotNil(t, chunk)

	npcSlots := 0
	for i := 0; i < chunk.Len(); i++ {
		names := chunk.ComponentTypeNames(i)
		assert.Contains(t, names, "Transform")
		for _, n := range names {
			if n == "NPCEntity" {
				npcSlots++
			}
		}
	}
	assert.Equal(t, 2, npcSlots) // indices 0 and 3 of 6
}

func TestWorld_EntityIdentityAndComponents(t *testing.T) {
	w := New(1)
	var chunk hostecs.Chunk
	w.Query().ForEachChunk(func(c hostecs.Chunk) bool {
		chunk = c
		return false
	})
	require.NotNil(t, chunk)
	require.Equal(t, 1, chunk.Len())

	assert.Equal(t, hostecs.EntityID(1), chunk.ReferenceIndex(0))
	assert.Equal(t, "demo-uuid-0001", chunk.UUID(0))

	comp, ok := chunk.Component(0, "Transform")
	require.True(t, ok)
	assert.Equal(t, "Transform", comp.TypeName())

	comp, ok = chunk.Component(0, "NPCEntity")
	require.True(t, ok)
	npc, ok := comp.(Npc)
	require.True(t, ok)
	assert.Equal(t, "sentry-0", npc.Role.GetRoleName())
}

func TestWorld_ClockAdvances(t *testing.T) {
	w := New(1)
	first := w.GameTimeEpochMilli()
	time.Sleep(5 * time.Millisecond)
	second := w.GameTimeEpochMilli()
	assert.Greater(t, second, first)
	assert.Equal(t, 1.0, w.GameTimeRate())
}

func TestCooperativeThread_ExecuteRunsSynchronously(t *testing.T) {
	th := newCooperativeThread()
	var ran bool
	err := th.Execute(func() { ran = true })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestCooperativeThread_ExecuteOrdersSubmissions(t *testing.T) {
	th := newCooperativeThread()
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			th.Execute(func() { order = append(order, i) })
		}()
	}
	wg.Wait()
	assert.Len(t, order, 5)
}

func TestCooperativeThread_TryExecuteTimesOutWhenJobsFull(t *testing.T) {
	th := &cooperativeThread{jobs: make(chan func(), 1)}
	block := make(chan struct{})
	th.jobs <- func() { <-block }

	ran, err := th.TryExecute(func() {}, 10)
	assert.False(t, ran)
	assert.ErrorIs(t, err, hostecs.ErrWorldThreadTimeout)
	close(block)
}
