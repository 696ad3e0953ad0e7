// Package tui is the terminal front end. It translates key presses into
// reducer messages, hands the reducer's effects to the runtime and renders
// the resulting model.
package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/chessbook/internal/core"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

// Runtime performs effects.
type Runtime interface {
	Commands(effects []effect.Effect) tea.Cmd
}

// Observer is told about every reducer step.
type Observer interface {
	Observe(before, after core.Model, message msg.Msg, effects []effect.Effect)
}

// Options are the display preferences.
type Options struct {
	UnicodePieces bool
	Flip          bool
	// HardwareSync starts with board sync turned on.
	HardwareSync bool
	// OpenPath is uploaded on start when set.
	OpenPath string
}

// settingsChanged replaces the reducer settings after a config reload.
type settingsChanged struct {
	settings core.Settings
}

type inputMode int

const (
	modeNormal inputMode = iota
	modeMove
	modeComment
	modeCommand
)

// Model is the bubbletea model.
type Model struct {
	state    core.Model
	reducer  *core.Reducer
	runtime  Runtime
	observer Observer
	keys     KeyMap
	opts     Options

	mode  inputMode
	input textinput.Model
	// inputErr is shown until the next key press.
	inputErr string

	width    int
	height   int
	quitting bool
}

// NewModel returns a model starting from core.NewModel.
func NewModel(reducer *core.Reducer, runtime Runtime, observer Observer, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	state := core.NewModel()
	state.HardwareSync = opts.HardwareSync

	return Model{
		state:    state,
		reducer:  reducer,
		runtime:  runtime,
		observer: observer,
		keys:     DefaultKeyMap(),
		opts:     opts,
		input:    ti,
	}
}

// State returns the current core model.
func (m Model) State() core.Model { return m.state }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.opts.OpenPath == "" {
		return nil
	}
	path := m.opts.OpenPath
	return func() tea.Msg { return msg.OpenPDF{Path: path} }
}

// Update implements tea.Model.
func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch teaMsg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = teaMsg.Width
		m.height = teaMsg.Height
		return m, nil
	case settingsChanged:
		r := *m.reducer
		r.Settings = teaMsg.settings
		m.reducer = &r
		return m, nil
	case tea.KeyMsg:
		m.inputErr = ""
		if m.mode != modeNormal {
			return m.handleInput(teaMsg)
		}
		return m.handleKey(teaMsg)
	case msg.Msg:
		return m.dispatch(teaMsg)
	}
	return m, nil
}

// dispatch runs one reducer step and schedules its effects.
func (m Model) dispatch(message msg.Msg) (tea.Model, tea.Cmd) {
	before := m.state
	next, effects := m.reducer.Update(before, message)
	if m.observer != nil {
		m.observer.Observe(before, next, message, effects)
	}
	m.state = next
	if len(effects) == 0 || m.runtime == nil {
		return m, nil
	}
	return m, m.runtime.Commands(effects)
}

func (m Model) startInput(mode inputMode, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) handleInput(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		mode := m.mode
		m.mode = modeNormal
		m.input.Blur()
		m.input.SetValue("")
		return m.submit(mode, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

func (m Model) submit(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case modeMove:
		if value == "" {
			return m, nil
		}
		return m.dispatch(msg.MoveEntered{SAN: value})
	case modeComment:
		return m.dispatch(msg.SetComment{Text: value})
	case modeCommand:
		message, err := parseCommand(value)
		if errors.Is(err, errQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		if message == nil {
			return m, nil
		}
		return m.dispatch(message)
	}
	return m, nil
}

func (m Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(k, m.keys.Command):
		return m.startInput(modeCommand, ":", "")
	case key.Matches(k, m.keys.Sync):
		return m.dispatch(msg.ToggleHardwareSync{})
	case key.Matches(k, m.keys.Cancel):
		return m.dispatch(msg.Cancel{})
	}

	switch wf := m.state.Workflow.(type) {
	case workflow.Viewing:
		return m.handleViewingKey(k, wf)
	case workflow.PendingConfirm:
		return m.handlePendingKey(k)
	case workflow.MatchExisting:
		return m.handleMatchKey(k, wf)
	case workflow.Reaching:
		return m.handleReachingKey(k)
	case workflow.Analysis:
		return m.handleAnalysisKey(k)
	}
	return m, nil
}

func (m Model) handleViewingKey(k tea.KeyMsg, wf workflow.Viewing) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.NextPage):
		return m.dispatch(msg.GoToPage{Page: m.state.Page + 1})
	case key.Matches(k, m.keys.PrevPage):
		return m.dispatch(msg.GoToPage{Page: m.state.Page - 1})
	case key.Matches(k, m.keys.NextGame):
		return m.selectGame(1)
	case key.Matches(k, m.keys.PrevGame):
		return m.selectGame(-1)
	case key.Matches(k, m.keys.Setup):
		return m.dispatch(msg.StartAnalysisSetup{})
	case key.Matches(k, m.keys.Delete):
		if wf.ActiveGameID != "" {
			return m.dispatch(msg.GameDeleted{GameID: wf.ActiveGameID})
		}
	case wf.Candidate != nil && key.Matches(k, m.keys.Accept):
		return m.dispatch(msg.ContinuationAccepted{})
	case wf.Candidate != nil && key.Matches(k, m.keys.Reject):
		return m.dispatch(msg.ContinuationRejected{})
	}
	if i, ok := digit(k); ok {
		return m.dispatch(msg.DiagramSelected{Index: i})
	}
	return m, nil
}

func (m Model) handlePendingKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Confirm):
		return m.dispatch(msg.ConfirmPieces{})
	case key.Matches(k, m.keys.Discard):
		return m.dispatch(msg.DiscardPending{})
	case key.Matches(k, m.keys.White):
		return m.dispatch(msg.TurnChosen{Turn: position.White})
	case key.Matches(k, m.keys.Black):
		return m.dispatch(msg.TurnChosen{Turn: position.Black})
	}
	return m, nil
}

func (m Model) handleMatchKey(k tea.KeyMsg, wf workflow.MatchExisting) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.FromStart):
		return m.dispatch(msg.MatchChosen{Choice: msg.NewFromStart})
	case key.Matches(k, m.keys.FromDiagram):
		return m.dispatch(msg.MatchChosen{Choice: msg.FromDiagram})
	case wf.Candidate != nil && key.Matches(k, m.keys.Accept):
		return m.dispatch(msg.ContinuationAccepted{})
	case wf.Candidate != nil && key.Matches(k, m.keys.Reject):
		return m.dispatch(msg.ContinuationRejected{})
	}
	if i, ok := digit(k); ok && i < len(wf.Options) {
		return m.dispatch(msg.MatchChosen{Choice: msg.ContinueExisting, AnalysisID: wf.Options[i]})
	}
	return m, nil
}

func (m Model) handleReachingKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Move):
		return m.startInput(modeMove, "move> ", "")
	case key.Matches(k, m.keys.Undo):
		return m.dispatch(msg.UndoReachMove{})
	case key.Matches(k, m.keys.MoveText):
		return m.dispatch(msg.RequestMoveText{})
	}
	return m, nil
}

func (m Model) handleAnalysisKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	nav := []struct {
		binding key.Binding
		dir     msg.Direction
	}{
		{m.keys.Back, msg.Back},
		{m.keys.Forward, msg.Forward},
		{m.keys.Start, msg.ToStart},
		{m.keys.End, msg.ToEnd},
		{m.keys.NextVar, msg.NextVariation},
		{m.keys.PrevVar, msg.PrevVariation},
	}
	for _, n := range nav {
		if key.Matches(k, n.binding) {
			return m.dispatch(msg.Navigate{Direction: n.dir})
		}
	}

	switch {
	case key.Matches(k, m.keys.Move):
		return m.startInput(modeMove, "move> ", "")
	case key.Matches(k, m.keys.DeleteNode):
		return m.dispatch(msg.DeleteNode{})
	case key.Matches(k, m.keys.Promote):
		return m.dispatch(msg.PromoteNode{})
	case key.Matches(k, m.keys.Comment):
		comment := ""
		if n, ok := cursorNode(m.state); ok {
			comment = n.Comment
		}
		return m.startInput(modeComment, "comment> ", comment)
	case key.Matches(k, m.keys.CopyPGN):
		return m.dispatch(msg.CopyPGN{})
	case key.Matches(k, m.keys.Close):
		return m.dispatch(msg.CloseAnalysis{})
	case k.Type == tea.KeyTab:
		return m.selectGame(1)
	case k.Type == tea.KeyShiftTab:
		return m.selectGame(-1)
	}
	return m, nil
}

// selectGame activates the confirmed game step places after the active one.
func (m Model) selectGame(step int) (tea.Model, tea.Cmd) {
	games := m.state.Study.Confirmed()
	if len(games) == 0 {
		return m, nil
	}
	active := workflow.ActiveGameID(m.state.Workflow)
	idx := -1
	for i, g := range games {
		if g.ID == active {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && step < 0:
		idx = len(games) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + step + len(games)) % len(games)
	}
	return m.dispatch(msg.GameSelected{GameID: games[idx].ID})
}

// digit maps the keys 1-9 to indexes 0-8.
func digit(k tea.KeyMsg) (int, bool) {
	if k.Type != tea.KeyRunes || len(k.Runes) != 1 {
		return 0, false
	}
	r := k.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}
