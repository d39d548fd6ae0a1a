package agent

import (
	"sync"
	"sync/atomic"

	"argus/internal/domain"
)

// Session is the conversational state of one investigation. A session is
// owned by exactly one run at a time; the mutex serializes run entry and the
// cancel flag lets another goroutine stop a run between steps.
type Session struct {
	caseName string

	mu     sync.Mutex
	turns  []domain.Turn
	cancel atomic.Bool
}

// NewSession creates a session for the named case with the given starting
// history. caseName may be empty for a stateless session.
func NewSession(caseName string, history []domain.Turn) *Session {
	return &Session{caseName: caseName, turns: history}
}

// CaseName returns the case this session belongs to, or "" when stateless.
func (s *Session) CaseName() string { return s.caseName }

// Cancel requests cooperative cancellation of the running orchestration.
// Safe to call from any goroutine at any time; calling it with no run in
// flight makes the next run terminate before invoking the model.
func (s *Session) Cancel() {
	s.cancel.Store(true)
}

// cancelled reports whether cancellation has been requested.
func (s *Session) cancelled() bool {
	return s.cancel.Load()
}

// resetCancel clears the flag so a finished run does not poison the next one.
func (s *Session) resetCancel() {
	s.cancel.Store(false)
}

// append adds a turn to the session history.
func (s *Session) append(role domain.Role, content string) {
	s.turns = append(s.turns, domain.Turn{Role: role, Content: content})
}

// History returns a copy of the session's turns.
func (s *Session) History() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}
