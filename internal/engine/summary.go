package engine

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/filter"
)

// Summary describes the visible list.
type Summary struct {
	Balance decimal.Decimal
	Visible int
	Total   int
	Filters int
}

// SelectionSummary describes the selected records.
type SelectionSummary struct {
	Total   decimal.Decimal
	Count   int
	Pending int
}

// Summary returns counts and the signed balance of the visible records.
func (e *Engine) Summary() Summary {
	visible := e.Visible()
	return Summary{
		Visible: len(visible),
		Total:   len(e.records),
		Filters: len(e.filters),
		Balance: filter.Balance(visible),
	}
}

// SelectionSummary sums the amounts of the selected records and counts the pending ones.
func (e *Engine) SelectionSummary() SelectionSummary {
	s := SelectionSummary{Total: decimal.Zero}
	for _, id := range e.selection.IDs() {
		r, ok := e.Record(id)
		if !ok {
			continue
		}
		s.Count++
		s.Total = s.Total.Add(r.Amount)
		if !r.Confirmed {
			s.Pending++
		}
	}
	return s
}
