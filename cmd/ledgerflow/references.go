package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/config"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/storage"
)

func referencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "refs",
		Aliases: []string{"references"},
		Short:   "Manage accounts, credit cards and categories",
	}
	cmd.AddCommand(refsListCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(addCardCmd())
	cmd.AddCommand(addCategoryCmd())
	return cmd
}

func refsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts, credit cards and categories with their ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			accounts, err := store.ListAccounts(ctx)
			if err != nil {
				return err
			}
			cards, err := store.ListCreditCards(ctx)
			if err != nil {
				return err
			}
			categories, err := store.ListCategories(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, cli.FormatTitle("Accounts"))
			for _, a := range accounts {
				fmt.Fprintf(w, "account-%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.Bank)
			}
			fmt.Fprintln(w, cli.FormatTitle("Credit cards"))
			for _, c := range cards {
				fmt.Fprintf(w, "card-%s\t%s\t%s\n", c.ID, c.Name, c.Brand)
			}
			fmt.Fprintln(w, cli.FormatTitle("Categories"))
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	}
}

// withSQLite runs fn against the local database.
func withSQLite(cmd *cobra.Command, fn func(*storage.SQLiteStorage) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store.Backend != config.BackendSQLite {
		return errSQLiteOnly
	}
	store, err := openSQLite(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func addAccountCmd() *cobra.Command {
	var account model.Account
	cmd := &cobra.Command{
		Use:   "add-account <id> <name>",
		Short: "Add or rename a bank account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account.ID, account.Name = args[0], args[1]
			return withSQLite(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.SaveAccount(cmd.Context(), account); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved account-"+account.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account.Type, "type", "checking", "account type")
	cmd.Flags().StringVar(&account.Bank, "bank", "", "bank name")
	return cmd
}

func addCardCmd() *cobra.Command {
	var card model.CreditCard
	cmd := &cobra.Command{
		Use:   "add-card <id> <name>",
		Short: "Add or rename a credit card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			card.ID, card.Name = args[0], args[1]
			return withSQLite(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.SaveCreditCard(cmd.Context(), card); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved card-"+card.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&card.Brand, "brand", "", "card brand")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-category <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLite(cmd, func(store *storage.SQLiteStorage) error {
				category, err := store.CreateCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %s (%s)", category.Name, category.ID)))
				return nil
			})
		},
	}
}
