package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"argus/internal/scheduler"
)

func newWatchCommand() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage recurring lookups run by the serve scheduler",
	}

	addCmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a recurring lookup",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchAdd,
	}
	addCmd.Flags().String("cron", "", "cron expression, e.g. \"0 * * * *\" (required)")
	addCmd.Flags().String("tool", "", "tool to run (required)")
	addCmd.Flags().StringArray("arg", nil, "tool argument as key=value (repeatable)")
	addCmd.Flags().String("name", "", "human-readable name")
	addCmd.MarkFlagRequired("cron")
	addCmd.MarkFlagRequired("tool")

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a recurring lookup",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchRemove,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring lookups",
		Args:  cobra.NoArgs,
		RunE:  runWatchList,
	}
	watchCmd.AddCommand(addCmd, removeCmd, listCmd)
	return watchCmd
}

func runWatchAdd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(configPath(cmd))
	path := watchFilePath(cfg)
	jobs, err := scheduler.LoadJobs(path)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job.ID == args[0] {
			return fmt.Errorf("watch %q already exists", args[0])
		}
	}

	cronExpr, _ := cmd.Flags().GetString("cron")
	toolName, _ := cmd.Flags().GetString("tool")
	name, _ := cmd.Flags().GetString("name")
	rawArgs, _ := cmd.Flags().GetStringArray("arg")

	toolArgs := make(map[string]string, len(rawArgs))
	for _, pair := range rawArgs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid --arg %q: want key=value", pair)
		}
		toolArgs[key] = value
	}

	jobs = append(jobs, scheduler.Job{
		ID:       args[0],
		Name:     name,
		CronExpr: cronExpr,
		Tool:     toolName,
		Args:     toolArgs,
	})
	if err := scheduler.SaveJobs(path, jobs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watch %q saved; active on next serve start\n", args[0])
	return nil
}

func runWatchRemove(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(configPath(cmd))
	path := watchFilePath(cfg)
	jobs, err := scheduler.LoadJobs(path)
	if err != nil {
		return err
	}
	kept := jobs[:0]
	found := false
	for _, job := range jobs {
		if job.ID == args[0] {
			found = true
			continue
		}
		kept = append(kept, job)
	}
	if !found {
		return fmt.Errorf("watch %q not found", args[0])
	}
	if err := scheduler.SaveJobs(path, kept); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watch %q removed\n", args[0])
	return nil
}

func runWatchList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(configPath(cmd))
	jobs, err := scheduler.LoadJobs(watchFilePath(cfg))
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no watches")
		return nil
	}
	for _, job := range jobs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%v\n", job.ID, job.CronExpr, job.Tool, job.Args)
	}
	return nil
}
