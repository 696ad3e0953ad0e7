package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/chessbook/internal/board"
	"github.com/Iron-Ham/chessbook/internal/config"
	"github.com/Iron-Ham/chessbook/internal/core"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/rules"
	"github.com/Iron-Ham/chessbook/internal/runtime"
	"github.com/Iron-Ham/chessbook/internal/tui"
)

var errNotTerminal = errors.New("chessbook open needs an interactive terminal")

var openCmd = &cobra.Command{
	Use:   "open [file.pdf]",
	Short: "Open a chess book in the terminal UI",
	Long: `Open a chess book in the terminal UI. Without a file the UI starts
empty and a book can be opened with :open <path>.

The physical board is polled at board.base_url; analysis works without it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().Bool("flip", false, "show the board from Black's side")
	openCmd.Flags().Bool("ascii", false, "draw pieces as letters")
}

func runOpen(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}

	d, err := loadDeps(true)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	st, err := d.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	d.serveMetrics(ctx)

	boardClient := board.New(board.Options{
		BaseURL: d.cfg.Board.BaseURL,
		Timeout: d.cfg.Board.Timeout(),
		Logger:  d.logger,
		Metrics: d.metrics,
	})
	executor := runtime.NewExecutor(runtime.Options{
		Services: d.services,
		Board:    boardClient,
		Store:    st,
		Timeout:  d.cfg.Services.Timeout(),
		Logger:   d.logger,
		Metrics:  d.metrics,
	})

	flip, _ := cmd.Flags().GetBool("flip")
	ascii, _ := cmd.Flags().GetBool("ascii")
	opts := tui.Options{
		UnicodePieces: d.cfg.TUI.UnicodePieces && !ascii,
		Flip:          d.cfg.TUI.FlipBoard || flip,
		HardwareSync:  d.cfg.Board.AutoSync,
	}
	if len(args) > 0 {
		opts.OpenPath = args[0]
	}

	reducer := core.NewReducer(rules.NewEngine(), settingsFrom(d.cfg))
	app := tui.New(reducer, executor, runtime.NewObserver(d.logger, d.metrics), opts)

	config.Watch(func(cfg *config.Config) {
		d.logger.Info("configuration reloaded")
		app.UpdateSettings(settingsFrom(cfg))
	}, func(err error) {
		d.logger.Warn("ignoring invalid configuration", "error", err.Error())
	})

	d.logger.Info("starting TUI", "pdf", opts.OpenPath, "storage", d.cfg.Storage.Backend)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
