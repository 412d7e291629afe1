package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/filter"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// Printer renders engine state as plain terminal output.
type Printer struct {
	writer   io.Writer
	currency codec.Currency
}

// NewPrinter creates a printer writing to w, or stdout when w is nil.
func NewPrinter(w io.Writer, currency codec.Currency) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{writer: w, currency: currency}
}

// Amount formats a signed amount with the currency's grouping.
func (p *Printer) Amount(t model.Transaction) string {
	formatted := p.currency.Format(t.Amount)
	if t.Kind == model.KindInflow {
		return InflowStyle.Render("+" + formatted)
	}
	return OutflowStyle.Render("-" + formatted)
}

// Transactions prints records as a table. Rows whose id selected reports
// true are marked.
func (p *Printer) Transactions(records []model.Transaction, catalog *filter.Catalog, selected func(id string) bool) error {
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tDATE\tDESCRIPTION\tSOURCE\tCATEGORY\tAMOUNT\tSTATUS")
	for _, t := range records {
		mark := " "
		if selected != nil && selected(t.ID) {
			mark = SelectedStyle.Render("*")
		}
		description := t.Description
		if t.BeneficiaryName != "" {
			description = fmt.Sprintf("%s (%s)", description, t.BeneficiaryName)
		}
		if t.Installments > 1 {
			description = fmt.Sprintf("%s %d/%d", description, t.Installment, t.Installments)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			mark,
			t.ID,
			t.Date.Format(model.DateLayout),
			description,
			catalog.SourceLabel(t),
			t.CategoryName,
			p.Amount(t),
			StatusIcon(t.Confirmed),
		)
	}
	return w.Flush()
}

// Summary prints the visible count, active filters and balance.
func (p *Printer) Summary(s engine.Summary, filters []filter.ActiveFilter) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s of %s records", humanize.Comma(int64(s.Visible)), humanize.Comma(int64(s.Total)))
	if s.Filters > 0 {
		labels := make([]string, len(filters))
		for i, f := range filters {
			labels[i] = f.Label()
		}
		fmt.Fprintf(&b, " · %d filters: %s", s.Filters, strings.Join(labels, "; "))
	}
	balance := p.currency.Format(s.Balance)
	if s.Balance.IsNegative() {
		balance = OutflowStyle.Render("-" + balance)
	} else {
		balance = InflowStyle.Render(balance)
	}
	fmt.Fprintf(&b, "\nBalance: %s", balance)
	_, err := fmt.Fprintln(p.writer, SubtleStyle.Render(b.String()))
	return err
}

// Result prints the per-record outcome of a batch.
func (p *Printer) Result(r bulk.Result) error {
	for _, o := range r.Outcomes {
		var line string
		switch {
		case o.Err != nil:
			line = FormatError(fmt.Sprintf("%s: %v", o.ID, o.Err))
		case o.Skipped:
			line = SubtleStyle.Render(fmt.Sprintf("- %s: skipped", o.ID))
		default:
			line = FormatSuccess(o.ID)
		}
		if _, err := fmt.Fprintln(p.writer, line); err != nil {
			return err
		}
	}
	summary := fmt.Sprintf("%s: %d succeeded, %d failed", r.Op, len(r.Succeeded()), len(r.Failed()))
	if len(r.Failed()) > 0 {
		_, err := fmt.Fprintln(p.writer, FormatWarning(summary))
		return err
	}
	_, err := fmt.Fprintln(p.writer, FormatSuccess(summary))
	return err
}

// Notifier returns an engine notifier that prints each notification as an error line.
func (p *Printer) Notifier() engine.Notifier {
	return engine.NotifierFunc(func(n engine.Notification) {
		fmt.Fprintln(p.writer, FormatError(n.Message))
	})
}
