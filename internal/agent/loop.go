package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"argus/internal/domain"
	"argus/internal/tooling"
)

// Runner drives the orchestration loop: invoke the model, dispatch the tool
// calls it requests, feed the observations back, repeat until the model
// produces a final answer or a terminal condition is hit.
type Runner struct {
	backend    domain.Backend
	dispatcher *Dispatcher
	history    domain.HistoryStore
	contexts   domain.ContextBuilder
	window     domain.TurnWindow
	maxTurns   int
	logger     *slog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithHistoryStore enables history persistence on terminal outcomes.
func WithHistoryStore(store domain.HistoryStore) RunnerOption {
	return func(r *Runner) { r.history = store }
}

// WithContextBuilder injects the per-run case snapshot into model calls.
func WithContextBuilder(builder domain.ContextBuilder) RunnerOption {
	return func(r *Runner) { r.contexts = builder }
}

// WithTurnWindow fits the history to the model's context window before every
// model call.
func WithTurnWindow(window domain.TurnWindow) RunnerOption {
	return func(r *Runner) { r.window = window }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner builds a Runner. maxTurns <= 0 falls back to the default budget.
func NewRunner(backend domain.Backend, dispatcher *Dispatcher, maxTurns int, opts ...RunnerOption) *Runner {
	if maxTurns <= 0 {
		maxTurns = domain.DefaultMaxTurns
	}
	r := &Runner{
		backend:    backend,
		dispatcher: dispatcher,
		maxTurns:   maxTurns,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one orchestration run on the session: the input becomes a user
// turn, then model calls and tool dispatches alternate until a terminal
// outcome. History is persisted on text, error and budget terminals; a
// cancelled run persists nothing. Only one run may own a session at a time.
func (r *Runner) Run(ctx context.Context, session *Session, input, imagePath string) domain.RunResult {
	session.mu.Lock()
	defer session.mu.Unlock()
	defer session.resetCancel()

	// Case-scoped tools resolve their case from the context, so a cased
	// session must carry its name into every dispatch.
	if session.caseName != "" {
		ctx = tooling.WithActiveCase(ctx, session.caseName)
	}

	session.append(domain.RoleUser, input)

	cache := newDedupCache()
	cache.seed(session.turns)

	snapshot := r.caseSnapshot(session)
	thinkCount := 0

	for {
		if session.cancelled() {
			r.logger.Info("run cancelled", "case", session.caseName, "model_turns", thinkCount)
			return cancelledResult()
		}
		if thinkCount >= r.maxTurns {
			r.logger.Warn("turn budget exhausted", "case", session.caseName, "budget", r.maxTurns)
			r.persist(session)
			return domain.RunResult{
				Outcome: domain.OutcomeBudgetExceeded,
				Success: false,
				Data: fmt.Sprintf(
					"Stopped after %d model turns without a final answer. Partial findings are saved in the case history.",
					r.maxTurns),
				Err: "turn budget exceeded",
			}
		}

		req := domain.ThinkRequest{
			History: r.fitHistory(session),
			Context: snapshot,
			Tools:   r.dispatcher.Definitions(),
		}
		if thinkCount == 0 {
			req.ImagePath = imagePath
		}

		resp := r.backend.Think(ctx, req)
		thinkCount++

		switch resp.Kind {
		case domain.ResponseText:
			session.append(domain.RoleModel, resp.Text)
			r.persist(session)
			return domain.RunResult{Outcome: domain.OutcomeText, Success: true, Data: resp.Text}

		case domain.ResponseError:
			r.logger.Error("backend error", "case", session.caseName, "error", resp.Err)
			r.persist(session)
			return domain.RunResult{
				Outcome: domain.OutcomeError,
				Success: false,
				Data:    "The model backend reported an error: " + resp.Err,
				Err:     resp.Err,
			}

		case domain.ResponseToolCalls:
			if resp.Commentary != "" {
				session.append(domain.RoleModel, resp.Commentary)
			}
			session.append(domain.RoleModel, encodeCalls(resp.Calls))
			cancelled := false
			for _, call := range resp.Calls {
				if session.cancelled() {
					cancelled = true
					break
				}
				observation, cached := r.dispatcher.Dispatch(ctx, call, cache, session.turns)
				if cached {
					r.logger.Info("repeated tool call deduplicated", "tool", call.Name)
				}
				session.append(domain.RoleUser, observation)
			}
			if cancelled {
				r.logger.Info("run cancelled mid-dispatch", "case", session.caseName)
				return cancelledResult()
			}

		default:
			r.persist(session)
			return domain.RunResult{
				Outcome: domain.OutcomeError,
				Success: false,
				Data:    "The model backend returned an unrecognized response.",
				Err:     fmt.Sprintf("unknown response kind %q", resp.Kind),
			}
		}
	}
}

func cancelledResult() domain.RunResult {
	return domain.RunResult{
		Outcome: domain.OutcomeCancelled,
		Success: false,
		Data:    "Run cancelled by operator.",
		Err:     "cancelled",
	}
}

// encodeCalls records a tool-call batch as the model turn content. The dedup
// cache recognizes this shape when seeding from stored history.
func encodeCalls(calls []domain.ToolCall) string {
	data, err := json.Marshal(calls)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// caseSnapshot builds the ephemeral context injected into model calls. It is
// never persisted as a turn.
func (r *Runner) caseSnapshot(session *Session) string {
	if r.contexts == nil || session.caseName == "" {
		return ""
	}
	snapshot, err := r.contexts.ContextSnapshot(session.caseName)
	if err != nil {
		r.logger.Warn("case snapshot unavailable", "case", session.caseName, "error", err)
		return ""
	}
	return snapshot
}

// fitHistory applies context window fitting when configured. A fitting
// failure degrades to the full history rather than aborting the run.
func (r *Runner) fitHistory(session *Session) []domain.Turn {
	if r.window == nil {
		return session.turns
	}
	fitted, err := r.window.FitToWindow(session.turns, "")
	if err != nil {
		r.logger.Warn("window fitting failed", "error", err)
		return session.turns
	}
	return fitted
}

// persist saves the session history on terminal outcomes. Failure is logged
// and does not change the run's outcome.
func (r *Runner) persist(session *Session) {
	if r.history == nil || session.caseName == "" {
		return
	}
	if err := r.history.SaveHistory(session.caseName, session.turns); err != nil {
		r.logger.Error("history persistence failed", "case", session.caseName, "error", err)
	}
}
