package inspector

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/cache"
	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/config"
	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/instructions"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
	"github.com/lait-kelomins/laits-entity-inspector/internal/transport"
)

type fakeConn struct {
	sent   []model.Frame
	closed bool
	addr   string
}

func (c *fakeConn) Send(frame model.Frame) error {
	c.sent = append(c.sent, frame)
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

// testTransform mimics the host's real Transform component shape
// (collector.reflectTransform walks a struct's own fields, not an
// intermediate map) so chunk-driven refresh tests exercise the same field
// lookup a live host component would.
type testTransform struct {
	Position hostecs.Vector3
	Rotation hostecs.Rotation
}

func (testTransform) TypeName() string { return collector.TransformType }

type fakeStore struct{}

func (fakeStore) Categories() []model.AssetCategory          { return nil }
func (fakeStore) List(category string) []model.AssetSummary   { return nil }
func (fakeStore) Detail(path string) (model.AssetDetail, bool) { return model.AssetDetail{}, false }
func (fakeStore) Expand(path, fieldPath string) (any, bool)    { return nil, false }
func (fakeStore) Search(query string) []model.AssetSummary    { return nil }
func (fakeStore) TestWildcard(pattern string) []string        { return nil }

type fakePatchEngine struct{}

func (fakePatchEngine) Generate(baseAssetPath string, overlay any) (model.Patch, error) {
	return model.Patch{BaseAssetPath: baseAssetPath, Overlay: overlay}, nil
}
func (fakePatchEngine) Publish(patch model.Patch) error { return nil }

// testHarness wires a Core around a FakeWorld, exactly the way New's real
// caller (cmd/inspectord) would, minus the on-disk config store.
type testHarness struct {
	core  *Core
	hub   *transport.Hub
	world *hostecs.FakeWorld
	cfg   *config.Store
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	cfgStore, err := config.Load(t.TempDir())
	require.NoError(t, err)

	s := serializer.New()
	entities := cache.NewEntityCache(100, s)
	packets := cache.NewPacketCache(100, s)
	coll := collector.New(s)
	trees := instructions.New(s)

	world := &hostecs.FakeWorld{
		WorldID:   "world-1",
		WorldName: "Testworld",
		Version:   "1.0.0",
		Writer:    hostecs.NewFakeEntityWriter(),
	}

	hub := transport.New(transport.Config{MaxClients: 5}, nil)
	require.NoError(t, hub.Start())

	c := New(world, cfgStore, entities, packets, coll, trees, fakeStore{}, fakePatchEngine{}, hub)
	return &testHarness{core: c, hub: hub, world: world, cfg: cfgStore}
}

func TestHandleConnect_SendsInitThenMarksInitializedThenConfigAndFeatureInfo(t *testing.T) {
	h := newHarness(t)
	conn := &fakeConn{addr: "a"}

	session, err := h.core.HandleConnect(conn)
	require.NoError(t, err)
	require.NotNil(t, session)

	require.Len(t, conn.sent, 3)
	assert.Equal(t, model.MsgInit, conn.sent[0].Type)
	assert.Equal(t, model.MsgConfigSync, conn.sent[1].Type)
	assert.Equal(t, model.MsgFeatureInfo, conn.sent[2].Type)
	assert.True(t, session.Initialized(), "MarkInitialized must run between INIT and CONFIG_SYNC")

	h.hub.Broadcast(model.Frame{Type: model.MsgEntityUpdate})
	assert.Len(t, conn.sent, 4, "a fully connected session must be broadcast-eligible")
}

func TestEntityDetail_RefreshesLiveWhenGateEnabled(t *testing.T) {
	h := newHarness(t)

	chunk := hostecs.NewFakeChunk()
	chunk.AddSlot(hostecs.EntityID(42), "uuid-1", map[string]hostecs.Component{
		collector.TransformType: testTransform{Position: hostecs.Vector3{X: 9, Y: 9, Z: 9}},
	})
	h.world.Chunks = []hostecs.Chunk{chunk}

	snap, ok := h.core.EntityDetail(42)
	require.True(t, ok)
	assert.Equal(t, int64(42), snap.EntityID)
}

func TestEntityDetail_FallsBackToCacheOnTimeout(t *testing.T) {
	h := newHarness(t)
	thread := hostecs.NewFakeWorldThread()
	thread.SetDelay(3 * time.Second)
	h.world.Thread_ = thread

	cached := &model.EntitySnapshot{EntityID: 7, UUID: "uuid-7"}
	h.core.entities.PutEntity(7, cached, nil)

	snap, ok := h.core.EntityDetail(7)
	require.True(t, ok, "a timed-out refresh must still fall back to the cache")
	assert.Equal(t, "uuid-7", snap.UUID)
}

func TestEntityDetail_SkipsLiveRefreshWhenGateDisabled(t *testing.T) {
	h := newHarness(t)
	cur := h.cfg.Apply(map[string]any{"debug.onDemandRefresh": false})
	require.False(t, cur.Debug.OnDemandRefresh)

	// No chunks registered on the fake world: a live refresh would find
	// nothing, but the gate being off must mean it never even tries.
	cached := &model.EntitySnapshot{EntityID: 11, UUID: "uuid-11"}
	h.core.entities.PutEntity(11, cached, nil)

	snap, ok := h.core.EntityDetail(11)
	require.True(t, ok)
	assert.Equal(t, "uuid-11", snap.UUID)
}

func TestTimers_GateDisabledReturnsEmptyNotError(t *testing.T) {
	h := newHarness(t)
	h.cfg.Apply(map[string]any{"debug.timerInspection": false})

	timers, disabled, found := h.core.Timers(1)
	assert.True(t, disabled)
	assert.False(t, found)
	assert.Empty(t, timers)
}

func TestExpandEntity_GateDisabledReturnsFailedToExpandError(t *testing.T) {
	h := newHarness(t)
	h.cfg.Apply(map[string]any{"debug.lazyExpansion": false})

	value, reason := h.core.ExpandEntity(1, "components.Transform.Position")
	assert.Nil(t, value)
	assert.Equal(t, "lazy expansion disabled via debug config", reason)
}

func TestSetEntitySurname_GateDisabled(t *testing.T) {
	h := newHarness(t)
	h.cfg.Apply(map[string]any{"debug.entityActions": false})

	errMsg := h.core.SetEntitySurname(1, "Bob")
	assert.Equal(t, "entityActions is disabled via debug config", errMsg)
}

func TestSetEntitySurname_SuccessWritesThroughWorldThread(t *testing.T) {
	h := newHarness(t)
	snap := &model.EntitySnapshot{EntityID: 5, UUID: "uuid-5"}
	h.core.entities.PutEntity(5, snap, nil)

	errMsg := h.core.SetEntitySurname(5, "Duke")
	assert.Empty(t, errMsg)
	assert.Equal(t, "Duke", h.world.Writer.Surnames["uuid-5"])
}

func TestSetEntitySurname_UnknownEntity(t *testing.T) {
	h := newHarness(t)
	errMsg := h.core.SetEntitySurname(999, "Nobody")
	assert.Equal(t, "Entity not found", errMsg)
}

func TestTeleportToEntity_Success(t *testing.T) {
	h := newHarness(t)
	snap := &model.EntitySnapshot{EntityID: 6, UUID: "uuid-6", Position: model.Vector3{X: 1, Y: 2, Z: 3}}
	h.core.entities.PutEntity(6, snap, nil)

	errMsg := h.core.TeleportToEntity(6)
	assert.Empty(t, errMsg)
	require.Len(t, h.world.Writer.TeleportCalls, 1)
	assert.Equal(t, hostecs.Vector3{X: 1, Y: 2, Z: 3}, h.world.Writer.TeleportCalls[0])
}

func TestDespawn_PreservesUUIDCapturedAtSpawn(t *testing.T) {
	h := newHarness(t)

	var despawnPayload model.EntityDespawnData
	captured := false

	// Simulate the watcher's spawn callback directly, since driving a full
	// tick through FakeWorld/Collector is exercised in the watch package's
	// own tests.
	snap := &model.EntitySnapshot{EntityID: 77, UUID: "uuid-77"}
	h.core.broadcastEntitySpawn(snap)

	conn := &fakeConn{addr: "observer"}
	session, err := h.core.HandleConnect(conn)
	require.NoError(t, err)
	_ = session

	h.core.broadcastEntityDespawn(77)

	for _, f := range conn.sent {
		if f.Type == model.MsgEntityDespawn {
			despawnPayload = f.Data.(model.EntityDespawnData)
			captured = true
		}
	}
	require.True(t, captured, "ENTITY_DESPAWN must have been broadcast")
	assert.Equal(t, int64(77), despawnPayload.EntityID)
	assert.Equal(t, "uuid-77", despawnPayload.UUID, "uuid must survive even though the cache entry is long gone by despawn time")
}

func TestDispatch_UnknownMessageType(t *testing.T) {
	h := newHarness(t)
	resp, errMsg := h.core.Dispatch(nil, model.MessageType("NOT_A_REAL_TYPE"), nil)
	assert.Nil(t, resp)
	assert.Contains(t, errMsg, "NOT_A_REAL_TYPE")
}

func TestDispatch_EntityDetailNotFound(t *testing.T) {
	h := newHarness(t)
	raw := []byte(`{"entityId":404}`)
	resp, errMsg := h.core.Dispatch(nil, model.MsgRequestEntityDetail, rawMsg(raw))
	assert.Nil(t, resp)
	assert.Equal(t, errEntityNotFound, errMsg)
}

func TestDispatch_RequestEntityAliasesEntityDetail(t *testing.T) {
	h := newHarness(t)
	snap := &model.EntitySnapshot{EntityID: 3, UUID: "uuid-3"}
	h.core.entities.PutEntity(3, snap, nil)

	raw := []byte(`{"entityId":3}`)
	resp, errMsg := h.core.Dispatch(nil, model.MsgRequestEntity, rawMsg(raw))
	require.Empty(t, errMsg)
	require.NotNil(t, resp)
	assert.Equal(t, model.MsgEntityDetail, resp.Type)
}

func TestDispatch_ConfigUpdateBroadcastsConfigSyncWithNoDirectResponse(t *testing.T) {
	h := newHarness(t)
	conn := &fakeConn{addr: "a"}
	session, err := h.core.HandleConnect(conn)
	require.NoError(t, err)
	_ = session
	before := len(conn.sent)

	raw := []byte(`{"includeItems":true}`)
	resp, errMsg := h.core.Dispatch(nil, model.MsgConfigUpdate, rawMsg(raw))
	assert.Nil(t, resp)
	assert.Empty(t, errMsg)
	assert.True(t, h.cfg.Current().IncludeItems)
	assert.Len(t, conn.sent, before+1, "CONFIG_UPDATE must broadcast CONFIG_SYNC rather than unicast a direct response")
	assert.Equal(t, model.MsgConfigSync, conn.sent[len(conn.sent)-1].Type)
}

func TestDispatch_AssetCategoriesGateDisabledReturnsEmptySuccess(t *testing.T) {
	h := newHarness(t)
	h.cfg.Apply(map[string]any{"debug.assetBrowser": false})

	resp, errMsg := h.core.Dispatch(nil, model.MsgRequestAssetCategories, nil)
	require.Empty(t, errMsg)
	require.NotNil(t, resp)
	assert.Equal(t, model.MsgAssetCategories, resp.Type)
	assert.Equal(t, []model.AssetCategory{}, resp.Data)
}

func TestDispatch_SetEntitySurnameMissingData(t *testing.T) {
	h := newHarness(t)
	resp, errMsg := h.core.Dispatch(nil, model.MsgSetEntitySurname, nil)
	assert.Nil(t, resp)
	assert.NotEmpty(t, errMsg)
}

// rawMsg adapts a []byte literal to the json.RawMessage the transport layer
// hands Dispatch as the opaque `data any` payload.
func rawMsg(b []byte) any {
	return json.RawMessage(b)
}
