package transport

import (
	"sync"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// Session is one connected client's state (§4.7).
type Session struct {
	mu           sync.Mutex
	id           string
	conn         Conn
	connectedAt  time.Time
	lastActivity time.Time
	sendCount    uint64
	initialized  bool
}

// ID returns the session's client id string.
func (s *Session) ID() string { return s.id }

// ConnectedAt returns when the session was accepted.
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

// LastActivity returns the timestamp of the most recent in/out message.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Initialized reports whether the on-connect sequence has completed; only
// initialized sessions are eligible for broadcast (§4.7).
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Session) markInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// Send writes frame to the session's connection, updating its activity
// timestamp regardless of outcome and its send counter only on success.
func (s *Session) Send(frame model.Frame) error {
	s.touch()
	err := s.conn.Send(frame)
	if err == nil {
		s.mu.Lock()
		s.sendCount++
		s.mu.Unlock()
	}
	return err
}

// SendCount returns how many frames have been successfully sent.
func (s *Session) SendCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCount
}
