package agent

import (
	"context"
	"log/slog"
	"sync"

	"argus/internal/domain"
)

// Asker is the surface the gateway and CLI drive: submit a query against a
// case, or abort the case's in-flight run.
type Asker interface {
	Ask(ctx context.Context, caseName, input, imagePath string) domain.RunResult
	Abort(caseName string)
}

// Service owns one Session per case and funnels runs through a shared Runner.
// Sessions are created lazily, loading stored history on first use.
type Service struct {
	runner  *Runner
	history domain.HistoryStore
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(runner *Runner, history domain.HistoryStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		runner:   runner,
		history:  history,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

var _ Asker = (*Service)(nil)

// Ask runs one orchestration pass for the case. An empty caseName runs a
// stateless session with no persistence.
func (s *Service) Ask(ctx context.Context, caseName, input, imagePath string) domain.RunResult {
	session := s.session(caseName)
	return s.runner.Run(ctx, session, input, imagePath)
}

// Abort requests cancellation of the case's in-flight run. Aborting a case
// with no active session is a no-op.
func (s *Service) Abort(caseName string) {
	s.mu.Lock()
	session, ok := s.sessions[caseName]
	s.mu.Unlock()
	if ok {
		session.Cancel()
	}
}

// session returns the case's session, creating it from stored history on
// first use.
func (s *Service) session(caseName string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[caseName]; ok {
		return session
	}

	var history []domain.Turn
	if s.history != nil && caseName != "" {
		loaded, err := s.history.LoadHistory(caseName)
		if err != nil {
			s.logger.Warn("history load failed, starting empty", "case", caseName, "error", err)
		} else {
			history = loaded
		}
	}
	session := NewSession(caseName, history)
	s.sessions[caseName] = session
	return session
}
