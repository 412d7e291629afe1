// Package tui is the interactive terminal front end of the transaction engine.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/ledgerflow/internal/engine"
)

// ErrNoEngine is returned by Run without an engine.
var ErrNoEngine = errors.New("engine is required")

// Run loads eng and drives it from the terminal until the user quits or ctx
// is cancelled. Build the engine with the same Notices passed in opts so
// store failures reach the status line.
func Run(ctx context.Context, eng *engine.Engine, opts ...Option) error {
	if eng == nil {
		return ErrNoEngine
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	program := tea.NewProgram(
		newModel(ctx, eng, cfg),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
