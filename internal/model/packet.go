package model

import "strings"

// PacketDirection is "inbound" or "outbound".
type PacketDirection string

const (
	PacketInbound  PacketDirection = "inbound"
	PacketOutbound PacketDirection = "outbound"
)

// PacketLogEntry is one recorded protocol packet, redacted and serialized
// before being handed to the transport (§3, §6 bus-level redaction).
type PacketLogEntry struct {
	ID          int64           `json:"id"`
	Direction   PacketDirection `json:"direction"`
	PacketName  string          `json:"packetName"`
	PacketID    int32           `json:"packetId"`
	HandlerName string          `json:"handlerName"`
	Data        *OrderedMap     `json:"data"`
	Timestamp   int64           `json:"timestamp"`
}

// RedactedValue is the literal replacement string for a redacted field.
const RedactedValue = "[REDACTED]"

// RedactionKey identifies one (packetClassName, fieldName) pair subject to
// bus-level redaction (§6).
type RedactionKey struct {
	PacketName string
	FieldName  string
}

// DefaultRedactions is the fixed redaction list from §6. It is a list, not
// just a set, because it documents intent even though lookups are by key.
var DefaultRedactions = []RedactionKey{
	{PacketName: "Connect", FieldName: "identityToken"},
	{PacketName: "AuthGrant", FieldName: "authorizationGrant"},
	{PacketName: "AuthGrant", FieldName: "serverIdentityToken"},
	{PacketName: "AuthToken", FieldName: "accessToken"},
	{PacketName: "AuthToken", FieldName: "serverAuthorizationGrant"},
	{PacketName: "ServerAuthToken", FieldName: "serverAccessToken"},
}

// RedactionSet is a lookup-friendly form of DefaultRedactions.
type RedactionSet map[RedactionKey]struct{}

// NewDefaultRedactionSet builds the lookup set for DefaultRedactions.
func NewDefaultRedactionSet() RedactionSet {
	set := make(RedactionSet, len(DefaultRedactions))
	for _, k := range DefaultRedactions {
		set[k] = struct{}{}
	}
	return set
}

// Matches reports whether (packetName, fieldName) is on the redaction list.
// The packet name must match exactly; the field name is compared without
// regard to case, so an exported Go field IdentityToken matches identityToken.
func (s RedactionSet) Matches(packetName, fieldName string) bool {
	if _, ok := s[RedactionKey{PacketName: packetName, FieldName: fieldName}]; ok {
		return true
	}
	for k := range s {
		if k.PacketName == packetName && strings.EqualFold(k.FieldName, fieldName) {
			return true
		}
	}
	return false
}
