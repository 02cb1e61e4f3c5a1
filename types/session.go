package types

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is one generation cycle: a fresh stream, a fresh build. It replaces
// the implicit "is generating" global flag with an explicit value object, so
// "is this build still relevant" is a comparison rather than an assumption.
type Session struct {
	// ID uniquely identifies the generation cycle.
	ID string
	// StartedAt is the wall-clock start of the cycle.
	StartedAt time.Time

	cancelled atomic.Bool
}

// NewSession creates a session with a fresh ID.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Cancel marks the session as no longer relevant. Results produced for a
// cancelled session are discarded by policy, never applied retroactively.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether the session has been abandoned.
func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// Same reports whether other denotes the same generation cycle.
func (s *Session) Same(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID
}

// Validate checks session identity fields.
func (s *Session) Validate() error {
	if s == nil {
		return errors.New("session is nil")
	}
	if s.ID == "" {
		return errors.New("session ID is empty")
	}
	return nil
}
