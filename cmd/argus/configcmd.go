package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"argus/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{Use: "config", Short: "Manage the argus config file"}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	configCmd.AddCommand(initCmd)
	return configCmd
}
