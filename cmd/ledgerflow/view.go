package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/filter"
)

var (
	errNoTarget     = errors.New("select records with --id, --filter, --search, --tab or --scope, or pass --all")
	errUnknownScope = errors.New("unknown scope")
)

// viewFlags narrow the loaded records the way the interactive view does.
type viewFlags struct {
	search  string
	tab     string
	scope   string
	filters []string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "filter as field:operation:value, e.g. amount:greater_than:100 (repeatable)")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "only descriptions containing this text")
	cmd.Flags().StringVar(&f.tab, "tab", string(filter.TabAll), "tab (all, inflows, outflows, receivables, payables)")
	cmd.Flags().StringVar(&f.scope, "scope", string(filter.ScopeAll), "sources (all, banks, cards, account-<id>, card-<id>)")
}

// narrowed reports whether any flag restricts the records.
func (f viewFlags) narrowed() bool {
	return len(f.filters) > 0 || f.search != "" ||
		(f.tab != "" && f.tab != string(filter.TabAll)) ||
		(f.scope != "" && f.scope != string(filter.ScopeAll))
}

// apply configures a loaded engine; filters are checked against its catalog.
func (f viewFlags) apply(eng *engine.Engine) error {
	tab, err := filter.ParseTab(f.tab)
	if err != nil {
		return common.NewValidationError("tab", f.tab, err)
	}
	scope, err := parseScope(f.scope)
	if err != nil {
		return err
	}

	filters := make([]filter.ActiveFilter, 0, len(f.filters))
	for _, expr := range f.filters {
		af, err := filter.ParseExpression(eng.Catalog(), expr)
		if err != nil {
			return err
		}
		filters = append(filters, af)
	}

	eng.SetView(filter.View{Tab: tab, Scope: scope})
	eng.SetActiveFilters(filters)
	eng.SetSearch(f.search)
	return nil
}

func parseScope(s string) (filter.Scope, error) {
	switch filter.ScopeKind(s) {
	case "", filter.ScopeAll:
		return filter.Scope{Kind: filter.ScopeAll}, nil
	case filter.ScopeBanks:
		return filter.Scope{Kind: filter.ScopeBanks}, nil
	case filter.ScopeCards:
		return filter.Scope{Kind: filter.ScopeCards}, nil
	}
	ref, err := codec.DecodeSource(s)
	if err != nil {
		return filter.Scope{}, common.NewValidationError("scope", s, fmt.Errorf("%w: %w", errUnknownScope, err))
	}
	return filter.Scope{Kind: filter.ScopeSource, Source: ref}, nil
}

// selectTargets selects ids, or every visible record when no id is given.
// Acting on the whole unfiltered list needs all.
func selectTargets(eng *engine.Engine, ids []string, flags viewFlags, all bool) error {
	if len(ids) == 0 {
		if !flags.narrowed() && !all {
			return common.NewValidationError("selection", "", errNoTarget)
		}
		eng.SelectAll()
		return nil
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := eng.Record(id); !ok {
			return common.NewValidationError("id", id, engine.ErrRecordNotFound)
		}
		eng.ToggleSelection(id)
	}
	return nil
}
