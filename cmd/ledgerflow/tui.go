package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/tui"
	"github.com/Veraticus/ledgerflow/internal/tui/themes"
)

func tuiCmd() *cobra.Command {
	var (
		theme   string
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse, filter and edit transactions interactively",
		Long: `Open the interactive transaction list. Press ? inside for key bindings.

Logs would garble the screen, so they are discarded unless --log-file is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := redirectLogs(logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			notices := tui.NewNotices()
			s, err := openSession(ctx, cmd.OutOrStdout(), notices)
			if err != nil {
				return err
			}
			defer s.close()

			return tui.Run(ctx, s.engine,
				tui.WithNotices(notices),
				tui.WithTheme(themes.GetTheme(theme)),
			)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file while the TUI runs")
	return cmd
}

// redirectLogs points the logger at path, or discards logs when path is empty.
func redirectLogs(path string) (func(), error) {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return nil, err
	}
	format := viper.GetString("logging.format")

	if path == "" {
		return func() {}, common.SetupLoggerTo(io.Discard, level, format)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := common.SetupLoggerTo(f, level, format); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}
