package transport

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/telemetry"
)

// Dispatcher handles one parsed request frame for a session and returns the
// response frame to send back, or an error frame's message on failure. The
// inspector package supplies the concrete implementation; transport stays
// ignorant of entity/asset/config semantics (§1 scope split).
type Dispatcher interface {
	Dispatch(session *Session, msgType model.MessageType, data any) (response *model.Frame, errMsg string)
}

// Config controls hub-level behavior (§4.7, §6).
type Config struct {
	MaxClients int
}

// Hub owns the set of connected sessions and fans out broadcasts to the
// ones that completed the on-connect sequence. Grounded on an EventBus
// lifecycle (Start/Stop/IsRunning) and stats-reporting shape, generalized
// from typed in-process pub/sub to per-session network broadcast.
type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	cfg        Config
	dispatcher Dispatcher
	running    int32
	nextID     uint64

	log zerolog.Logger
}

// New returns a Hub bounded to cfg.MaxClients, routing parsed requests to
// dispatcher.
func New(cfg Config, dispatcher Dispatcher) *Hub {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10
	}
	return &Hub{
		sessions:   make(map[string]*Session),
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        telemetry.WithComponent("transport"),
	}
}

// SetDispatcher wires the dispatcher after construction, for callers whose
// Dispatcher implementation itself needs the Hub to build (inspector.Core
// takes the Hub as a constructor argument to broadcast pushes, so the two
// can't both come first).
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatcher = d
}

// Start marks the hub running. Sessions can only be accepted while running.
func (h *Hub) Start() error {
	atomic.StoreInt32(&h.running, 1)
	telemetry.SetComponentHealth("transport", true, "")
	return nil
}

// Stop closes every session and marks the hub stopped. Idempotent.
func (h *Hub) Stop() error {
	atomic.StoreInt32(&h.running, 0)
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.conn.Close(CloseNormal, "server shutting down")
	}
	telemetry.SessionsConnected.Set(0)
	telemetry.SetComponentHealth("transport", false, "stopped")
	return nil
}

// IsRunning reports whether Start has been called without a subsequent Stop.
func (h *Hub) IsRunning() bool {
	return atomic.LoadInt32(&h.running) == 1
}

// SessionCount returns the number of currently connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Connect runs the on-connect sequence of §4.7: reject over capacity with
// a close code and no frame, else register the session and hand the caller
// back a connected-but-not-yet-initialized Session. The caller (inspector
// core) is responsible for sending the INIT WorldSnapshot, calling
// MarkInitialized, then sending config and feature-info — only after which
// the session becomes broadcast-eligible.
func (h *Hub) Connect(conn Conn) (*Session, error) {
	h.mu.Lock()
	if len(h.sessions) >= h.cfg.MaxClients {
		h.mu.Unlock()
		telemetry.SessionsRejectedTotal.Inc()
		h.log.Warn().Str("remote", conn.RemoteAddr()).Int("maxClients", h.cfg.MaxClients).Msg("rejecting connection over capacity")
		_ = conn.Close(CloseCapacityExceeded, "max clients reached")
		return nil, fmt.Errorf("transport: max clients (%d) reached", h.cfg.MaxClients)
	}
	h.nextID++
	id := fmt.Sprintf("client-%d", h.nextID)
	session := &Session{id: id, conn: conn, connectedAt: time.Now(), lastActivity: time.Now()}
	h.sessions[id] = session
	h.mu.Unlock()

	telemetry.SessionsConnected.Set(float64(h.SessionCount()))
	return session, nil
}

// MarkInitialized completes the on-connect sequence for session, making it
// eligible for broadcast.
func (h *Hub) MarkInitialized(session *Session) {
	session.markInitialized()
}

// Disconnect removes session from the hub. No further broadcasts reach it.
func (h *Hub) Disconnect(session *Session) {
	h.mu.Lock()
	delete(h.sessions, session.id)
	h.mu.Unlock()
	telemetry.SessionsConnected.Set(float64(h.SessionCount()))
}

// HandleMessage implements on-message handling (§4.7): parse has already
// happened by the time this is called (type+data extracted by the
// transport's framing layer); HandleMessage only updates activity and
// dispatches. Malformed frames arrive with msgType == "" and should have
// already produced an ERROR response by the caller.
func (h *Hub) HandleMessage(session *Session, msgType model.MessageType, data any) {
	session.touch()
	h.mu.RLock()
	dispatcher := h.dispatcher
	h.mu.RUnlock()
	if dispatcher == nil {
		return
	}
	timer := telemetry.NewTimer()
	resp, errMsg := dispatcher.Dispatch(session, msgType, data)
	timer.ObserveDurationVec(telemetry.RequestDuration, string(msgType))

	if errMsg != "" {
		_ = session.Send(model.Frame{Type: model.MsgError, Data: model.ErrorData{Message: errMsg}, Timestamp: time.Now().UnixMilli()})
		return
	}
	if resp != nil {
		if err := session.Send(*resp); err != nil {
			telemetry.FramesDroppedTotal.WithLabelValues(string(resp.Type)).Inc()
		} else {
			telemetry.FramesSentTotal.WithLabelValues(string(resp.Type)).Inc()
		}
	}
}

// Broadcast fans frame out to every initialized session, best-effort: a
// per-session send failure is logged and swallowed, never propagated, and
// never blocks delivery to other sessions (§4.7, §5). Per-session ordering
// is FIFO because Send is only ever called from this single goroutine path
// plus the direct-response path, both of which hold no cross-session lock
// during the actual write.
func (h *Hub) Broadcast(frame model.Frame) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.Initialized() {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	for _, s := range targets {
		if err := s.Send(frame); err != nil {
			telemetry.FramesDroppedTotal.WithLabelValues(string(frame.Type)).Inc()
			h.log.Debug().Str("session", s.id).Str("type", string(frame.Type)).Err(err).Msg("broadcast send failed, continuing")
			continue
		}
		telemetry.FramesSentTotal.WithLabelValues(string(frame.Type)).Inc()
	}
}
