package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/chessbook/internal/core"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/runtime"
)

// App wraps the Bubbletea program
type App struct {
	program  *tea.Program
	model    Model
	executor *runtime.Executor
}

// New creates a new TUI application driven by executor
func New(reducer *core.Reducer, executor *runtime.Executor, observer *runtime.Observer, opts Options) *App {
	var obs Observer
	if observer != nil {
		obs = observer
	}
	model := NewModel(reducer, executor, obs, opts)
	return &App{
		program:  tea.NewProgram(model, tea.WithAltScreen()),
		model:    model,
		executor: executor,
	}
}

// UpdateSettings hands new reducer settings to the running program
func (a *App) UpdateSettings(s core.Settings) {
	a.program.Send(settingsChanged{settings: s})
}

// Run starts the TUI application and blocks until it exits
func (a *App) Run() error {
	// Background work must not outlive the program
	defer a.executor.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		if _, ok := <-sigChan; ok {
			a.program.Send(tea.Quit())
		}
	}()

	// Poll results and renders arrive outside of any tea.Cmd
	a.executor.Attach(func(m msg.Msg) {
		a.program.Send(m)
	})

	_, err := a.program.Run()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}
