package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <field> [value]",
		Short: "Change one field of a transaction",
		Long: `Change one field of a transaction. Without a value you are prompted with
the current one; an empty answer keeps it.

Fields and formats:
  date         YYYY-MM-DD
  account      account-<id> or card-<id>
  beneficiary  name, created when it does not exist yet
  description  free text
  category     category id
  amount       number in the configured locale, e.g. 10,50; bare digits are cents
  kind         inflow, outflow or transfer`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runEdit,
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, field := args[0], model.Field(args[1])
	if !field.Valid() {
		return common.NewValidationError("field", args[1], codec.ErrUnknownField)
	}

	s, err := openSession(ctx, cmd.OutOrStdout(), nil)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.engine.Load(ctx); err != nil {
		return err
	}
	if _, err := s.engine.StartEdit(id, field); err != nil {
		return err
	}

	var raw string
	if len(args) == 3 {
		raw = args[2]
	} else {
		session, _ := s.engine.EditSession()
		prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		if raw, err = prompter.Ask(ctx, string(field), session.Buffer); err != nil {
			s.engine.CancelEdit()
			return err
		}
	}

	raw, err = editValue(s.engine.Fields().Currency(), field, raw)
	if err != nil {
		s.engine.CancelEdit()
		return err
	}
	if _, err := s.engine.UpdateEditBuffer(raw); err != nil {
		return err
	}
	if err := s.engine.CommitEdit(ctx, id); err != nil {
		return err
	}
	return printRecord(s, id)
}

// editValue normalizes an amount with a decimal separator so the digit mask
// keeps its value.
func editValue(currency codec.Currency, field model.Field, raw string) (string, error) {
	if field != model.FieldAmount {
		return raw, nil
	}
	amount, err := currency.Parse(raw)
	if err != nil {
		return "", common.NewValidationError(string(field), raw, err)
	}
	return currency.Format(amount), nil
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a transaction between pending and confirmed",
		Long: `Flip a transaction between pending and confirmed. Pending card charges are
confirmed through their invoice payment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.engine.Load(ctx); err != nil {
				return err
			}
			if err := s.engine.ToggleStatus(ctx, args[0]); err != nil {
				return err
			}
			return printRecord(s, args[0])
		},
	}
}

func printRecord(s *session, id string) error {
	record, ok := s.engine.Record(id)
	if !ok {
		return nil
	}
	return s.printer.Transactions([]model.Transaction{record}, s.engine.Catalog(), nil)
}
