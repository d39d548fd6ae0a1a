package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"argus/internal/casestore"
)

func newCasesCommand() *cobra.Command {
	casesCmd := &cobra.Command{Use: "cases", Short: "Manage investigation cases"}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new case",
		Args:  cobra.ExactArgs(1),
		RunE:  runCasesCreate,
	}
	createCmd.Flags().String("description", "", "case description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		Args:  cobra.NoArgs,
		RunE:  runCasesList,
	}
	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a case and all its data",
		Args:  cobra.ExactArgs(1),
		RunE:  runCasesDelete,
	}
	casesCmd.AddCommand(createCmd, listCmd, deleteCmd, newPersonsCommand())
	return casesCmd
}

func openStore(cmd *cobra.Command) *casestore.Store {
	cfg := loadConfig(configPath(cmd))
	return casestore.NewStore(cfg.DataDir, newLogger(cfg.Infra))
}

func runCasesCreate(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()
	description, _ := cmd.Flags().GetString("description")
	if err := store.CreateCase(args[0], description); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "case %q created\n", args[0])
	return nil
}

func runCasesList(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()
	cases, err := store.ListCases()
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no cases")
		return nil
	}
	for _, c := range cases {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d targets\t%s\n", c.Name, len(c.Targets), c.Description)
	}
	return nil
}

func runCasesDelete(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()
	if err := store.DeleteCase(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "case %q deleted\n", args[0])
	return nil
}
