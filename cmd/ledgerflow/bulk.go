package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

var errMissingField = errors.New("set-field needs --field and --value")

type bulkOptions struct {
	field string
	value string
	ids   []string
	view  viewFlags
	yes   bool
	all   bool
}

func bulkCmd() *cobra.Command {
	var opts bulkOptions
	cmd := &cobra.Command{
		Use:       "bulk <confirm|delete|duplicate|set-field>",
		Short:     "Apply one action to many transactions",
		ValidArgs: []string{string(bulk.OpConfirm), string(bulk.OpDelete), string(bulk.OpDuplicate), string(bulk.OpSetField)},
		Long: `Select transactions by id or by the same view flags as list, then confirm,
delete, duplicate or set a field on all of them.

Examples:
  # Confirm every pending card charge from March
  ledgerflow bulk confirm --scope cards -f date:after:2024-02-29 -f date:before:2024-04-01

  # Recategorize two records
  ledgerflow bulk set-field --id 41 --id 42 --field category --value 12

  # Delete everything matching a search, without asking
  ledgerflow bulk delete --search "test" --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(args[0])
			if err != nil {
				return err
			}
			return runBulk(cmd, req, opts)
		},
	}

	opts.view.register(cmd)
	cmd.Flags().StringSliceVar(&opts.ids, "id", nil, "transaction ids to act on (repeatable)")
	cmd.Flags().StringVar(&opts.field, "field", "", "field to set (date, account, beneficiary, description, category, amount, kind)")
	cmd.Flags().StringVar(&opts.value, "value", "", "value for --field, in the same format inline editing uses")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the delete confirmation")
	cmd.Flags().BoolVar(&opts.all, "all", false, "act on every record when no filter narrows the list")
	return cmd
}

// request builds the bulk request for the operation named op.
func (o bulkOptions) request(op string) (bulk.Request, error) {
	operation, err := bulk.ParseOperation(op)
	if err != nil {
		return bulk.Request{}, err
	}
	req := bulk.Request{Op: operation}
	if operation != bulk.OpSetField {
		return req, nil
	}
	if o.field == "" {
		return bulk.Request{}, common.NewValidationError("field", "", errMissingField)
	}
	req.Field = model.Field(o.field)
	req.Value = o.value
	return req, nil
}

func runBulk(cmd *cobra.Command, req bulk.Request, opts bulkOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx, out, nil)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.engine.Load(ctx); err != nil {
		return err
	}
	if err := opts.view.apply(s.engine); err != nil {
		return err
	}
	if err := selectTargets(s.engine, opts.ids, opts.view, opts.all); err != nil {
		return err
	}

	sel := s.engine.SelectionSummary()
	if sel.Count == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions match"))
		return nil
	}
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s %d transactions (%d pending)", req.Op, sel.Count, sel.Pending)))

	if req.Op == bulk.OpDelete && !opts.yes {
		prompter := cli.NewPrompter(cmd.InOrStdin(), out)
		ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete %d transactions? This cannot be undone", sel.Count))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	runCtx := interrupts.Watch(ctx, "bulk "+string(req.Op))
	defer interrupts.Stop()

	progress := cli.NewBulkProgress(cmd.ErrOrStderr(), string(req.Op), sel.Count)
	result, err := s.engine.RunBulk(runCtx, req, progress)
	if printErr := s.printer.Result(result); printErr != nil {
		return printErr
	}
	return err
}
