package transport

// Exact malformed-request error strings from §7. These are returned as the
// body of an ERROR frame, never as a Go error wrapping additional context —
// the wire contract is a single fixed string.
const (
	ErrMissingMessageType  = "Missing message type"
	ErrInvalidMessageFormat = "Invalid message format"
)

// UnknownMessageType formats §7's "Unknown message type: X" error.
func UnknownMessageType(msgType string) string {
	return "Unknown message type: " + msgType
}

// MissingDataFor formats §7's "Missing data for …" error.
func MissingDataFor(msgType string) string {
	return "Missing data for " + msgType
}
