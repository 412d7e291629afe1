package main

import (
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List transactions narrowed by tab, scope, search and filters.

Examples:
  # Pending card charges above 100
  ledgerflow list --scope cards --tab payables -f amount:greater_than:100

  # Everything in two categories from one account
  ledgerflow list --scope account-3 -f category:in:12,15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runList(cmd *cobra.Command, flags viewFlags) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cmd.OutOrStdout(), nil)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.engine.Load(ctx); err != nil {
		return err
	}
	if err := flags.apply(s.engine); err != nil {
		return err
	}

	if err := s.printer.Transactions(s.engine.Visible(), s.engine.Catalog(), nil); err != nil {
		return err
	}
	return s.printer.Summary(s.engine.Summary(), s.engine.ActiveFilters())
}
