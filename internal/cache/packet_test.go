package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

type connectPayload struct {
	IdentityToken string
	SessionName   string
}

// TestPacketCache_RecordPacket_Redacts exercises §8 scenario S4.
func TestPacketCache_RecordPacket_Redacts(t *testing.T) {
	s := serializer.New()
	c := NewPacketCache(10, s)
	redactions := model.NewDefaultRedactionSet()

	entry := c.RecordPacket(model.PacketInbound, "Connect", 1, "ConnectHandler",
		connectPayload{IdentityToken: "abc123", SessionName: "sess-1"}, redactions, 1000)

	require.NotNil(t, entry.Data)
	token, ok := entry.Data.Get("IdentityToken")
	require.True(t, ok)
	assert.Equal(t, model.RedactedValue, token)

	name, _ := entry.Data.Get("SessionName")
	assert.Equal(t, "sess-1", name)
	assert.Equal(t, int64(1), entry.ID)
}

// TestPacketCache_AssignsMonotonicIDsAndEvicts exercises invariant 3's
// packet-cache analog.
func TestPacketCache_AssignsMonotonicIDsAndEvicts(t *testing.T) {
	s := serializer.New()
	c := NewPacketCache(2, s)
	redactions := model.NewDefaultRedactionSet()

	e1 := c.RecordPacket(model.PacketOutbound, "Ping", 1, "h", struct{}{}, redactions, 1)
	e2 := c.RecordPacket(model.PacketOutbound, "Ping", 1, "h", struct{}{}, redactions, 2)
	e3 := c.RecordPacket(model.PacketOutbound, "Ping", 1, "h", struct{}{}, redactions, 3)

	assert.Equal(t, int64(1), e1.ID)
	assert.Equal(t, int64(2), e2.ID)
	assert.Equal(t, int64(3), e3.ID)

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get(e1.ID)
	assert.False(t, ok)
	_, ok = c.Get(e3.ID)
	assert.True(t, ok)
}

func TestPacketCache_ExpandPacketPath(t *testing.T) {
	s := serializer.New()
	c := NewPacketCache(10, s)
	redactions := model.NewDefaultRedactionSet()

	entry := c.RecordPacket(model.PacketInbound, "Move", 2, "MoveHandler",
		struct{ Coords []int }{Coords: []int{1, 2, 3}}, redactions, 1000)

	out := c.ExpandPacketPath(entry.ID, "Coords.2")
	assert.Equal(t, int64(3), out)
}
