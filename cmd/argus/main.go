package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// buildMeta holds version and build metadata (injectable via ldflags).
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("argus %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "argus",
		Short: "OSINT investigative assistant",
		Long:  "Argus is a model-driven OSINT assistant that plans and runs investigation tools.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return cmd.Help()
		},
	}
	root.PersistentFlags().String("config", "", "config file path (default argus.json or $ARGUS_CONFIG)")
	root.Flags().BoolP("version", "V", false, "print version and build metadata")

	root.AddCommand(newAskCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newCasesCommand())
	root.AddCommand(newLookupCommand())
	root.AddCommand(newWatchCommand())
	root.AddCommand(newConfigCommand())
	return root
}

// configPath resolves the config file location: --config flag, then
// ARGUS_CONFIG, then argus.json in the working directory.
func configPath(cmd *cobra.Command) string {
	if flag, _ := cmd.Flags().GetString("config"); flag != "" {
		return flag
	}
	if env := os.Getenv("ARGUS_CONFIG"); env != "" {
		return env
	}
	return "argus.json"
}

func getVersion() string {
	if version != "" {
		return version
	}
	b, err := os.ReadFile("VERSION")
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(b))
}

// version is set at build time via ldflags for build metadata, e.g.:
//
//	go build -ldflags "-X main.version=1.0.0" -o argus ./cmd/argus
var version string

// exitCodeErr carries an exit code for the process. When returned from a command, runApp exits with that code.
type exitCodeErr int

func (e exitCodeErr) Error() string { return fmt.Sprintf("exit %d", int(e)) }
func (e exitCodeErr) ExitCode() int { return int(e) }

// runApp runs the root command with the given args and returns the exit code.
func runApp(args []string) int {
	bm := newBuildMeta(version, "", "")
	if bm.Version == "" {
		bm.Version = getVersion()
	}
	root := newRootCommand(bm)
	root.SetArgs(args[1:])
	if err := root.Execute(); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
