// Package transport implements the session/broadcast fabric of §4.7: a
// capacity-bounded hub of per-connection sessions, on-connect/on-message/
// on-disconnect handling, and best-effort fan-out broadcast. It is grounded
// on an event_bus.go-style lifecycle-managed (Start/Stop/IsRunning),
// stats-instrumented pub/sub interface, generalized from typed in-process
// event subscription to per-session framed-message broadcast over a
// network connection. The WebSocket framing itself is an external
// collaborator (§1 out of scope); this package only needs something that can
// send/receive one Frame at a time.
package transport

import "github.com/lait-kelomins/laits-entity-inspector/internal/model"

// Conn is the minimal connection surface a session needs. A real host
// binds this to a WebSocket connection; tests bind it to an in-memory
// fake.
type Conn interface {
	Send(frame model.Frame) error
	Close(code int, reason string) error
	RemoteAddr() string
}

// Close codes sent when the hub itself decides to terminate a connection,
// independent of whatever the underlying transport's own code space uses.
const (
	CloseCapacityExceeded = 4000
	CloseNormal           = 1000
)
