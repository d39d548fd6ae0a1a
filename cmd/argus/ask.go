package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Run one investigation query through the model",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	cmd.Flags().String("case", "", "investigation case to run against (stateless when empty)")
	cmd.Flags().String("image", "", "path to an image attachment")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(configPath(cmd))
	a, err := buildApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.store.Close()

	caseName, _ := cmd.Flags().GetString("case")
	imagePath, _ := cmd.Flags().GetString("image")

	// Ctrl-C cancels the run cooperatively; the run terminates between steps
	// and nothing from the interrupted run is persisted.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			a.service.Abort(caseName)
		}
	}()

	result := a.service.Ask(cmd.Context(), caseName, args[0], imagePath)
	fmt.Fprintln(cmd.OutOrStdout(), result.Data)
	if !result.Success {
		return exitCodeErr(1)
	}
	return nil
}
