package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/config"
	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/ofx"
	"github.com/Veraticus/ledgerflow/internal/service"
)

var errNoFiles = errors.New("no files found to import")

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX files exported from your bank.

Bank transactions arrive confirmed; card charges arrive pending until their
invoice is paid. Statements are booked on the account id found in the file
unless --source names an account or card of your own.

Examples:
  # Import every statement in a directory
  ledgerflow import ~/Downloads/*.ofx

  # Book a card statement on card 3 and preview it first
  ledgerflow import --source card-3 --dry-run fatura.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
	cmd.Flags().String("source", "", "book every statement on account-<id> or card-<id>")
	cmd.Flags().BoolP("dry-run", "d", false, "preview the import without saving")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	source, _ := cmd.Flags().GetString("source")

	var override *model.SourceRef
	if source != "" {
		ref, err := codec.DecodeSource(source)
		if err != nil {
			return common.NewValidationError("source", source, err)
		}
		override = &ref
	}

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	drafts := parseStatements(ctx, files, override)
	if len(drafts) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dryRun {
		printer := cli.NewPrinter(out, codec.NewCurrency(cfg.Locale))
		if err := printer.Transactions(drafts, filter.NewCatalog(filter.Sources{}), nil); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported", len(drafts))))
		return nil
	}

	if cfg.Store.Backend == config.BackendSQLite {
		store, err := openSQLite(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		imported, err := store.ImportTransactions(ctx, drafts)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d of %d transactions (%d already present)",
			imported, len(drafts), len(drafts)-imported)))
		return nil
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	imported, err := createAll(ctx, cmd, store, drafts)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d of %d transactions", imported, len(drafts))))
	return err
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("No files found matching pattern", "pattern", pattern)
		}
	}
	if len(files) == 0 {
		return nil, errNoFiles
	}
	return files, nil
}

// parseStatements reads every file, skipping the ones that fail.
func parseStatements(ctx context.Context, files []string, override *model.SourceRef) []model.Transaction {
	parser := ofx.NewParser()
	var drafts []model.Transaction
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		statements, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		count := 0
		for _, st := range statements {
			txns := st.Transactions
			if override != nil {
				txns = st.Rebook(*override)
			}
			drafts = append(drafts, txns...)
			count += len(txns)
		}
		slog.Info("Processed file", "file", filepath.Base(path), "transactions", count)
	}
	return drafts
}

// createAll sends drafts one by one to a remote store.
func createAll(ctx context.Context, cmd *cobra.Command, store service.TransactionStore, drafts []model.Transaction) (int, error) {
	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx = interrupts.Watch(ctx, "import")
	defer interrupts.Stop()

	progress := cli.NewBulkProgress(cmd.ErrOrStderr(), "import", len(drafts))
	created := 0
	for i, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if _, err := store.CreateTransaction(ctx, draft); err != nil {
			common.LogError(err, "Failed to import transaction", common.Fields{"description": draft.Description})
			return created, err
		}
		created++
		progress(i+1, len(drafts))
	}
	return created, nil
}
