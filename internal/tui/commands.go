package tui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/ledgerflow/internal/bulk"
)

// bulkProgress is written by the executor's workers and read by View.
type bulkProgress struct {
	done  atomic.Int64
	total atomic.Int64
}

func (p *bulkProgress) set(done, total int) {
	p.done.Store(int64(done))
	p.total.Store(int64(total))
}

func (p *bulkProgress) get() (done, total int) {
	return int(p.done.Load()), int(p.total.Load())
}

// begin marks the model busy and starts cmd with the spinner running. The
// engine is only touched by cmd until its result message arrives.
func (m *Model) begin(label string, cmd tea.Cmd) tea.Cmd {
	m.busy = true
	m.busyLabel = label
	m.status = ""
	return tea.Batch(m.spinner.Tick, cmd)
}

// load fetches references and transactions.
func (m Model) load() tea.Cmd {
	eng, parent, timeout := m.engine, m.ctx, m.config.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return loadedMsg{err: eng.Load(ctx)}
	}
}

// perform runs a single store-backed engine call.
func (m Model) perform(op string, fn func(ctx context.Context) error) tea.Cmd {
	parent, timeout := m.ctx, m.config.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) toggleStatus(id string) tea.Cmd {
	eng := m.engine
	return m.perform("toggle status", func(ctx context.Context) error {
		return eng.ToggleStatus(ctx, id)
	})
}

func (m Model) commitEdit(id string) tea.Cmd {
	eng := m.engine
	return m.perform("edit", func(ctx context.Context) error {
		return eng.CommitEdit(ctx, id)
	})
}

// runBulk applies req to the selection, reporting progress as it goes.
func (m Model) runBulk(req bulk.Request) tea.Cmd {
	eng, parent, timeout, progress := m.engine, m.ctx, m.config.Timeout, m.progress
	progress.set(0, 0)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		result, err := eng.RunBulk(ctx, req, progress.set)
		return opDoneMsg{op: "bulk " + string(req.Op), err: err, result: &result}
	}
}
