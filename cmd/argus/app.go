package main

import (
	"fmt"
	"log/slog"
	"os"

	"argus/internal/agent"
	"argus/internal/casestore"
	"argus/internal/config"
	ctxwindow "argus/internal/context"
	"argus/internal/domain"
	"argus/internal/llm"
	"argus/internal/tokenizer"
	"argus/internal/tooling"
)

// app bundles the wired components every command needs.
type app struct {
	cfg     *domain.Config
	logger  *slog.Logger
	store   *casestore.Store
	service *agent.Service
}

// newLogger builds the process logger from infra config.
func newLogger(infra domain.InfraConfig) *slog.Logger {
	var level slog.Level
	switch infra.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if infra.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// loadConfig reads the config file, falling back to defaults when absent.
func loadConfig(path string) *domain.Config {
	cfg, err := config.Load(path)
	if err != nil {
		return &domain.Config{
			Backend: domain.BackendConfig{Provider: "gemini"},
			Agent:   domain.AgentConfig{MaxTurns: domain.DefaultMaxTurns},
			Gateway: domain.GatewayConfig{Port: 8080},
			Infra:   domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
			DataDir: "data",
		}
	}
	return cfg
}

// buildApp wires config, case store, tool registry, backend and orchestration
// service. notifier may be nil (CLI runs); the gateway passes its hub.
func buildApp(cfg *domain.Config, notifier domain.Notifier) (*app, error) {
	logger := newLogger(cfg.Infra)
	store := casestore.NewStore(cfg.DataDir, logger)

	registry, err := tooling.DefaultRegistry(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	backend, err := llm.NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	dispatcher := agent.NewDispatcher(registry, notifier, logger)
	opts := []agent.RunnerOption{
		agent.WithLogger(logger),
		agent.WithHistoryStore(store),
		agent.WithContextBuilder(store),
	}
	if cfg.Agent.MaxContextTokens > 0 {
		encoding := cfg.Agent.Encoding
		if encoding == "" {
			encoding = "cl100k_base"
		}
		tok, err := tokenizer.NewTikToken(encoding)
		if err != nil {
			return nil, err
		}
		opts = append(opts, agent.WithTurnWindow(ctxwindow.NewManager(tok, cfg.Agent.MaxContextTokens)))
	}
	runner := agent.NewRunner(backend, dispatcher, cfg.Agent.MaxTurns, opts...)
	service := agent.NewService(runner, store, logger)

	return &app{cfg: cfg, logger: logger, store: store, service: service}, nil
}
