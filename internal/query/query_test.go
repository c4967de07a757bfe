package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/cache"
	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/instructions"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

type fakeClock struct {
	epochMilli int64
	rate       float64
}

func (f fakeClock) GameTimeEpochMilli() int64 { return f.epochMilli }
func (f fakeClock) GameTimeRate() float64     { return f.rate }

func npcSnapshot(id int64, name, role string) *model.EntitySnapshot {
	fields := model.NewOrderedMap()
	fields.Set("Name", name)
	fields.Set("Role", role)
	components := model.NewOrderedMap()
	components.Set(collector.NPCType, &model.ComponentData{TypeName: collector.NPCType, Fields: fields})
	return &model.EntitySnapshot{EntityID: id, UUID: "uuid", EntityType: "NPC", Components: components}
}

func TestListEntities_FilterAndSearch(t *testing.T) {
	entities := cache.NewEntityCache(100, serializer.New())
	entities.PutEntity(1, npcSnapshot(1, "Gorm", "Guard"), nil)
	entities.PutEntity(2, npcSnapshot(2, "Alia", "Merchant"), nil)

	s := New(entities, fakeClock{}, instructions.New(serializer.New()))

	all := s.ListEntities("all", "", 0, 0)
	assert.Len(t, all, 2)

	filtered := s.ListEntities("npc", "gorm", 0, 0)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Gorm", filtered[0].Name)
}

func TestListEntities_Pagination(t *testing.T) {
	entities := cache.NewEntityCache(100, serializer.New())
	for i := int64(1); i <= 5; i++ {
		entities.PutEntity(i, npcSnapshot(i, "N", "R"), nil)
	}
	s := New(entities, fakeClock{}, instructions.New(serializer.New()))

	page := s.ListEntities("all", "", 2, 2)
	assert.Len(t, page, 2)
}

func TestGetTimers_Normalizes(t *testing.T) {
	entities := cache.NewEntityCache(10, serializer.New())

	timerEntry := model.NewOrderedMap()
	timerEntry.Set("state", "RUNNING")
	timerEntry.Set("value", float64(5))

	fields := model.NewOrderedMap()
	fields.Set("timers", []any{timerEntry})
	components := model.NewOrderedMap()
	components.Set("Timers", &model.ComponentData{TypeName: "Timers", Fields: fields})

	entities.PutEntity(1, &model.EntitySnapshot{EntityID: 1, Components: components}, nil)

	s := New(entities, fakeClock{}, instructions.New(serializer.New()))
	timers := s.GetTimers(1)
	require.Len(t, timers, 1)
	assert.Equal(t, model.TimerRunning, timers[0].State)
	assert.Equal(t, 5.0, timers[0].Value)
	assert.Equal(t, 1.0, timers[0].Rate, "missing rate should default to 1")
}

// TestGetAlarms_GameTimeDerivation exercises §8 scenario S6.
func TestGetAlarms_GameTimeDerivation(t *testing.T) {
	entities := cache.NewEntityCache(10, serializer.New())

	alarm := model.NewOrderedMap()
	alarm.Set("_type", "Alarm")
	alarm.Set("state", "SET")
	alarm.Set("epochMilli", int64(3000))

	params := model.NewOrderedMap()
	params.Set("MyAlarm", alarm)

	alarmStore := model.NewOrderedMap()
	alarmStore.Set("parameters", params)
	entityField := model.NewOrderedMap()
	entityField.Set("alarmStore", alarmStore)

	fields := model.NewOrderedMap()
	fields.Set("entity", entityField)
	components := model.NewOrderedMap()
	components.Set("InteractionManager", &model.ComponentData{TypeName: "InteractionManager", Fields: fields})

	entities.PutEntity(1, &model.EntitySnapshot{EntityID: 1, Components: components}, nil)

	s := New(entities, fakeClock{epochMilli: 1000, rate: 2.0}, instructions.New(serializer.New()))
	alarms := s.GetAlarms(1)
	require.Len(t, alarms, 1)
	assert.Equal(t, "MyAlarm", alarms[0].Name)
	assert.Equal(t, model.AlarmSet, alarms[0].State)
	require.NotNil(t, alarms[0].RemainingSeconds)
	assert.InDelta(t, 1.0, *alarms[0].RemainingSeconds, 0.0001)
}

type fakeRole struct {
	Name             string
	RootInstructions []fakeInstruction
}

func (r fakeRole) GetRoleName() string { return r.Name }

type fakeInstruction struct {
	Name string
}

type fakeNPCComponent struct {
	Role fakeRole
}

func (fakeNPCComponent) TypeName() string { return collector.NPCType }

// TestGetInstructions_WalksLiveRoleReference runs a chunk through the real
// collector, the same path internal/watch and internal/inspector use to
// populate the cache, instead of hand-building an entry.Refs map — that way
// a key mismatch between the collector's well-known component name and
// query.Service's lookup would fail this test rather than pass it.
func TestGetInstructions_WalksLiveRoleReference(t *testing.T) {
	chunk := hostecs.NewFakeChunk()
	chunk.AddSlot(1, "uuid-1", map[string]hostecs.Component{
		collector.NPCType: fakeNPCComponent{
			Role: fakeRole{Name: "Guard", RootInstructions: []fakeInstruction{{Name: "Patrol"}}},
		},
	})

	coll := collector.New(serializer.New())
	snap, refs, included := coll.FromChunk(chunk, 0, collector.InclusionConfig{IncludeNPCs: true})
	require.True(t, included)

	entities := cache.NewEntityCache(10, serializer.New())
	entities.PutEntity(snap.EntityID, snap, refs)

	s := New(entities, fakeClock{}, instructions.New(serializer.New()))
	tree, ok := s.GetInstructions(snap.EntityID)
	require.True(t, ok)
	assert.Equal(t, "Guard", tree.RoleName)
	require.Len(t, tree.RootInstructions, 1)
	assert.Equal(t, "Patrol", tree.RootInstructions[0].Name)
}

func TestGetInstructions_MissingNPCRef(t *testing.T) {
	entities := cache.NewEntityCache(10, serializer.New())
	entities.PutEntity(1, &model.EntitySnapshot{EntityID: 1}, map[string]hostecs.Component{})

	s := New(entities, fakeClock{}, instructions.New(serializer.New()))
	_, ok := s.GetInstructions(1)
	assert.False(t, ok)
}
