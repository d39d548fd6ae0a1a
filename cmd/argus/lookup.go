package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"argus/internal/casestore"
	"argus/internal/tooling"
)

func newLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <tool> [target]",
		Short: "Run one OSINT tool directly, bypassing the model",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runLookup,
	}
	cmd.Flags().String("case", "", "case to run case-scoped tools against")
	return cmd
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(configPath(cmd))
	logger := newLogger(cfg.Infra)
	store := casestore.NewStore(cfg.DataDir, logger)
	defer store.Close()

	registry, err := tooling.LookupRegistry(cfg, store)
	if err != nil {
		return err
	}
	tool, err := registry.Get(args[0])
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, registry.Names())
	}

	// The target positional fills the tool's first required schema field, so
	// "argus lookup whois example.com" works without knowing arg names.
	toolArgs := map[string]string{}
	if len(args) == 2 {
		required := tooling.RequiredFields(tool.Definition())
		if len(required) == 0 {
			return fmt.Errorf("tool %q takes no target argument", args[0])
		}
		toolArgs[required[0]] = args[1]
	}
	rawArgs, err := json.Marshal(toolArgs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if caseName, _ := cmd.Flags().GetString("case"); caseName != "" {
		ctx = tooling.WithActiveCase(ctx, caseName)
	}
	result, err := tool.Call(ctx, rawArgs)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Data)
	return nil
}
