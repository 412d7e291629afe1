package filter

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Tab is a preset partition of the list by kind and status.
type Tab string

// Tabs.
const (
	TabAll         Tab = "all"
	TabInflows     Tab = "inflows"
	TabOutflows    Tab = "outflows"
	TabReceivables Tab = "receivables"
	TabPayables    Tab = "payables"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabAll, TabInflows, TabOutflows, TabReceivables, TabPayables}

// ParseTab resolves a tab by name; the empty string is TabAll.
func ParseTab(s string) (Tab, error) {
	if s == "" {
		return TabAll, nil
	}
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Matches reports whether t belongs on the tab. Inflow and outflow tabs show
// confirmed records; receivables and payables show pending ones.
func (tab Tab) Matches(t model.Transaction) bool {
	switch tab {
	case TabInflows:
		return t.Kind == model.KindInflow && t.Confirmed
	case TabOutflows:
		return t.Kind == model.KindOutflow && t.Confirmed
	case TabReceivables:
		return t.Kind == model.KindInflow && !t.Confirmed
	case TabPayables:
		return t.Kind == model.KindOutflow && !t.Confirmed
	}
	return true
}

// ScopeKind narrows the list by money source.
type ScopeKind string

// Scope kinds.
const (
	ScopeAll    ScopeKind = "all"
	ScopeBanks  ScopeKind = "banks"
	ScopeCards  ScopeKind = "cards"
	ScopeSource ScopeKind = "source"
)

// Scope selects which sources are visible.
type Scope struct {
	Source model.SourceRef
	Kind   ScopeKind
}

// Matches reports whether t is drawn from a source inside the scope.
func (s Scope) Matches(t model.Transaction) bool {
	switch s.Kind {
	case ScopeBanks:
		return t.AccountID != ""
	case ScopeCards:
		return t.CreditCardID != ""
	case ScopeSource:
		return t.Source() == s.Source
	}
	return true
}

// View is the combination of tab and scope applied before filters and search.
type View struct {
	Scope Scope
	Tab   Tab
}

// Matches reports whether t is inside the view.
func (v View) Matches(t model.Transaction) bool {
	return v.Tab.Matches(t) && v.Scope.Matches(t)
}

// Balance sums the signed amounts of records: inflows add, everything else subtracts.
func Balance(records []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.SignedAmount())
	}
	return total
}
