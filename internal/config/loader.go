package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"argus/internal/domain"
)

// marshalIndent and writeFile are used by WriteDefault and Save; tests may replace to force errors.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
)

// WriteDefault writes a default Config to path (e.g. argus.json). Paths are not created.
func WriteDefault(path string) error {
	cfg := &domain.Config{
		Backend: domain.BackendConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Agent: domain.AgentConfig{
			MaxTurns:         domain.DefaultMaxTurns,
			MaxContextTokens: 0,
			Encoding:         "cl100k_base",
		},
		Gateway: domain.GatewayConfig{Port: 8080},
		Infra:   domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
		DataDir: "data",
	}
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data, 0644)
}

// Load reads path (e.g. argus.json), unmarshals into domain.Config, and cleans
// all path fields to mitigate path traversal. Returns error if file is missing or invalid JSON.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	var c domain.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	CleanPaths(&c)
	applyDefaults(&c)
	return &c, nil
}

// CleanPaths applies filepath.Clean to all path fields in cfg to prevent path traversal.
func CleanPaths(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	if cfg.DataDir != "" {
		cfg.DataDir = filepath.Clean(cfg.DataDir)
	}
}

// applyDefaults fills the fields the loop and gateway cannot run without.
func applyDefaults(cfg *domain.Config) {
	if cfg.Agent.MaxTurns <= 0 {
		cfg.Agent.MaxTurns = domain.DefaultMaxTurns
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 8080
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
}

// Save writes cfg to path as JSON (so watch schedules and key edits persist).
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config save mkdir: %w", err)
	}
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config save marshal: %w", err)
	}
	if err = writeFile(path, data, 0644); err != nil {
		return fmt.Errorf("config save write: %w", err)
	}
	return nil
}
