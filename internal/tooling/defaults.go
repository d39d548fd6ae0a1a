package tooling

import (
	"path/filepath"

	"argus/internal/domain"
)

// DefaultRegistry assembles the full OSINT tool set advertised to the model.
// The VirusTotal tool is deliberately absent: it is reserved for the direct
// lookup command and never offered to the model.
func DefaultRegistry(cfg *domain.Config, store CaseAPI) (*ToolRegistry, error) {
	client := NewProbeClient(cfg.ProxyURL)
	registry := NewToolRegistry()

	tools := []SchemaTool{
		NewPingTool(),
		NewWhoisTool(client),
		NewDNSTool(),
		NewWebSearchTool(client),
		NewBrowseTool(client),
		NewDorkTool(filepath.Join(cfg.DataDir, "dorks.yaml")),
		NewSocialSearchTool(client),
		NewUsernameSearchTool(client),
		NewLeaksTool(client, cfg.Keys.HIBP),
		NewDarkSearchTool(client),
		NewIPIntelTool(client),
		NewShodanTool(client, cfg.Keys.Shodan),
		NewMetadataTool(),
		NewReverseImageTool(),
		NewManageTargetTool(store),
		NewGetTargetsTool(store),
		NewLinkTargetsTool(store),
	}
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LookupRegistry is the tool set for direct, model-free lookups from the CLI.
// It includes everything the model sees plus the VirusTotal tool.
func LookupRegistry(cfg *domain.Config, store CaseAPI) (*ToolRegistry, error) {
	registry, err := DefaultRegistry(cfg, store)
	if err != nil {
		return nil, err
	}
	client := NewProbeClient(cfg.ProxyURL)
	if err := registry.Register(NewVirusTotalTool(client, cfg.Keys.VirusTotal)); err != nil {
		return nil, err
	}
	return registry, nil
}
