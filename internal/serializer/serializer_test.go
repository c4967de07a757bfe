package serializer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

type testVector struct {
	X, Y, Z float64
}

type testRotation struct {
	Yaw, Pitch float32
}

type leafC struct {
	D int
}

type leafB struct {
	C leafC
}

type leafA struct {
	B leafB
}

type rootObj struct {
	A leafA
}

type testState int

const (
	stateIdle testState = iota
	stateRunning
)

func (s testState) String() string {
	if s == stateRunning {
		return "RUNNING"
	}
	return "IDLE"
}

type Alarm struct {
	set bool
	at  time.Time
}

func (a Alarm) IsSet() bool                 { return a.set }
func (a Alarm) HasPassed() bool             { return a.set && time.Now().After(a.at) }
func (a Alarm) GetAlarmInstant() time.Time  { return a.at }

func TestSerialize_Primitives(t *testing.T) {
	s := New()
	assert.Equal(t, "hello", s.Serialize("hello"))
	assert.Equal(t, true, s.Serialize(true))
	assert.Equal(t, int64(42), s.Serialize(42))
	assert.Equal(t, 3.5, s.Serialize(3.5))
	assert.Nil(t, s.Serialize(nil))
}

func TestSerialize_Vector(t *testing.T) {
	s := New()
	out := s.Serialize(testVector{X: 1, Y: 2, Z: 3})
	assert.Equal(t, []float64{1, 2, 3}, out)

	outRot := s.Serialize(testRotation{Yaw: 90, Pitch: -10})
	assert.Equal(t, []float64{90, -10}, outRot)
}

func TestSerialize_Timestamp(t *testing.T) {
	s := New()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := s.Serialize(ts)
	instant, ok := out.(model.Instant)
	require.True(t, ok)
	assert.Equal(t, ts.UnixMilli(), instant.EpochMilli)
	assert.Equal(t, "Instant", instant.Type)
}

func TestSerialize_Stringer(t *testing.T) {
	s := New()
	assert.Equal(t, "RUNNING", s.Serialize(stateRunning))
}

func TestSerialize_ByteArrayHexAndCap(t *testing.T) {
	s := New()
	out := s.Serialize([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.Equal(t, "DE AD BE EF", out)

	big := make([]byte, MaxByteArrayLength+1)
	out = s.Serialize(big)
	assert.Equal(t, "[101 bytes]", out)
}

func TestSerialize_CollectionCap(t *testing.T) {
	s := New()
	items := make([]int, MaxCollectionLength+1)
	out := s.Serialize(items)
	assert.Equal(t, "[51 items]", out)

	small := make([]int, 3)
	out = s.Serialize(small)
	assert.Equal(t, []any{int64(0), int64(0), int64(0)}, out)
}

// TestSerialize_DepthPlaceholder exercises the S3 scenario: a chain of
// nested structs a.b.c.d. At depth >= 2 a struct becomes a placeholder
// instead of being recursed.
func TestSerialize_DepthPlaceholder(t *testing.T) {
	s := New()
	root := rootObj{A: leafA{B: leafB{C: leafC{D: 7}}}}
	out := s.Serialize(root)

	om, ok := out.(*model.OrderedMap)
	require.True(t, ok)
	typeName, _ := om.Get("_type")
	assert.Equal(t, "rootObj", typeName)

	aVal, _ := om.Get("A")
	aMap, ok := aVal.(*model.OrderedMap)
	require.True(t, ok, "depth 1 struct should still be recursed")

	bVal, _ := aMap.Get("B")
	placeholder, ok := bVal.(model.ExpandPlaceholder)
	require.True(t, ok, "depth 2 struct should become a placeholder")
	assert.True(t, placeholder.Expandable)
	assert.Equal(t, "leafB", placeholder.Type)
}

func TestSerializeDeep_NeverPlaceholders(t *testing.T) {
	s := New()
	root := rootObj{A: leafA{B: leafB{C: leafC{D: 7}}}}
	out := s.SerializeDeep(root)

	om := out.(*model.OrderedMap)
	aMap := mustMap(t, om, "A")
	bMap := mustMap(t, aMap, "B")
	cMap := mustMap(t, bMap, "C")
	d, _ := cMap.Get("D")
	assert.Equal(t, int64(7), d)
}

func TestSerialize_PlainMapDoesNotPlaceholderAtDepth(t *testing.T) {
	s := New()
	nested := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": 1,
			},
		},
	}
	out := s.Serialize(nested)
	om, ok := out.(*model.OrderedMap)
	require.True(t, ok)
	aMap := mustMap(t, om, "a")
	bMap := mustMap(t, aMap, "b")
	c, _ := bMap.Get("c")
	assert.Equal(t, int64(1), c)
}

func TestSerialize_Alarm(t *testing.T) {
	s := New()
	future := time.Now().Add(10 * time.Second)
	out := s.Serialize(Alarm{set: true, at: future})
	om, ok := out.(*model.OrderedMap)
	require.True(t, ok)
	typeName, _ := om.Get("_type")
	assert.Equal(t, "Alarm", typeName)
	state, _ := om.Get("state")
	assert.Equal(t, string(model.AlarmSet), state)

	unset := s.Serialize(Alarm{set: false})
	om = unset.(*model.OrderedMap)
	state, _ = om.Get("state")
	assert.Equal(t, string(model.AlarmUnset), state)
}

type connectPacket struct {
	IdentityToken string
	SessionName   string
}

type wrapperPacket struct {
	Outer   connectPacket
	Comment string
}

func TestSerializeWithRedaction(t *testing.T) {
	s := New()
	redactions := model.NewDefaultRedactionSet()

	out := s.SerializeWithRedaction("Connect", redactions, connectPacket{
		IdentityToken: "abc123",
		SessionName:   "sess-1",
	})
	om := out.(*model.OrderedMap)
	token, _ := om.Get("IdentityToken")
	assert.Equal(t, model.RedactedValue, token)
	name, _ := om.Get("SessionName")
	assert.Equal(t, "sess-1", name)
}

func TestSerializeWithRedaction_NestedWrapper(t *testing.T) {
	s := New()
	redactions := model.NewDefaultRedactionSet()

	out := s.SerializeWithRedaction("Connect", redactions, wrapperPacket{
		Outer:   connectPacket{IdentityToken: "abc123", SessionName: "sess-1"},
		Comment: "hello",
	})
	om := out.(*model.OrderedMap)
	outerVal, _ := om.Get("Outer")
	outerMap, ok := outerVal.(*model.OrderedMap)
	require.True(t, ok, "depth-1 struct should still be recursed under redaction mode")
	token, _ := outerMap.Get("IdentityToken")
	assert.Equal(t, model.RedactedValue, token)
}

func mustMap(t *testing.T, m *model.OrderedMap, key string) *model.OrderedMap {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok, "missing key %q", key)
	om, ok := v.(*model.OrderedMap)
	require.True(t, ok, "key %q is not a map", key)
	return om
}
