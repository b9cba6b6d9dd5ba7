// Package cli defines Cobra command definitions for the sentiscribe CLI.
// This file contains the root command, which launches the TUI.
package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jwulff/sentiscribe/internal/app"
	"github.com/jwulff/sentiscribe/internal/listener"
)

var (
	configPath string
	logLevel   string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "sentiscribe",
	Short: "Listen, classify sentiment, and report trends",
	Long: `Sentiscribe captures spoken (or typed) utterances, scores each one
with a sentiment service, speaks short feedback, and keeps a running
tally that can be viewed as trends or exported to CSV, text or SQLite.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch TUI if TTY, show help otherwise
		if !isTTY() {
			return cmd.Help()
		}
		return runTUI(cmd.Context())
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $SENTISCRIBE_CONFIG, ./sentiscribe.yaml, ~/.config/sentiscribe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func runTUI(parent context.Context) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	events := make(chan listener.Event, 256)
	sess, err := newSession(cfg, logger, app.EventForwarder(events, logger))
	if err != nil {
		cancel()
		return err
	}

	m := app.New(app.Options{
		Context:   ctx,
		Loop:      sess.loop,
		Ledger:    sess.ledger,
		Events:    events,
		Typed:     sess.typed,
		Provider:  cfg.Transcription.Provider,
		ExportDir: cfg.Export.Dir,
		Logger:    logger.Named("tui"),
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := p.Run()

	// Unblock any in-flight capture before waiting for the loop.
	cancel()
	if err := sess.Close(); err != nil {
		logger.Warn("session close", zap.Error(err))
	}
	return runErr
}
