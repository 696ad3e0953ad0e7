package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/core"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/study"
	"github.com/Iron-Ham/chessbook/internal/tui/styles"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

const sidebarWidth = 30

var unicodePieces = map[position.Piece]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := styles.Header.Render(m.headerText())
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderBoard(),
		"  ",
		m.renderSidebar(),
	)

	sections := []string{header, body, m.renderPanel(), m.renderStatus()}
	if m.mode != modeNormal {
		sections = append(sections, m.input.View())
	}
	sections = append(sections, m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerText() string {
	s := m.state
	if s.PdfID == "" {
		return "chessbook"
	}
	return fmt.Sprintf("chessbook  %s  page %d/%d  %s",
		shortID(s.PdfID), s.Page+1, s.PageCount, s.Workflow.Kind())
}

// displayPlacement is the placement the board shows for the current
// workflow, or "" when there is nothing to show.
func displayPlacement(s core.Model) position.Placement {
	switch wf := s.Workflow.(type) {
	case workflow.Reaching:
		return wf.Session.Current.Placement()
	case workflow.Analysis:
		if n, ok := cursorNode(s); ok {
			return n.Position.Placement()
		}
	default:
		if g, ok := s.Study.Game(workflow.ActiveGameID(wf)); ok {
			return g.Placement
		}
	}
	return ""
}

// cursorNode returns the analysis node under the cursor.
func cursorNode(s core.Model) (*analysis.Node, bool) {
	wf, ok := s.Workflow.(workflow.Analysis)
	if !ok {
		return nil, false
	}
	tree, ok := s.Study.Analyses[wf.AnalysisID]
	if !ok || tree.IsZero() {
		return nil, false
	}
	return analysis.Resolve(tree, wf.Cursor)
}

func (m Model) renderBoard() string {
	pl := displayPlacement(m.state)
	if pl == "" {
		return styles.BoardFrame.Render(styles.Muted.Render("no diagram selected"))
	}
	squares, err := position.DecomposeToSquareMap(pl)
	if err != nil {
		return styles.BoardFrame.Render(styles.ErrorMsg.Render("unreadable position"))
	}

	var b strings.Builder
	for row := 0; row < 8; row++ {
		rank := 8 - row
		if m.opts.Flip {
			rank = row + 1
		}
		b.WriteString(styles.Coordinate.Render(fmt.Sprintf("%d ", rank)))
		for col := 0; col < 8; col++ {
			file := col
			if m.opts.Flip {
				file = 7 - col
			}
			sq := position.SquareAt(file, rank)
			b.WriteString(m.renderSquare(squares[sq], (file+rank)%2 == 0))
		}
		b.WriteString("\n")
	}
	files := "  "
	for col := 0; col < 8; col++ {
		file := col
		if m.opts.Flip {
			file = 7 - col
		}
		files += fmt.Sprintf(" %c ", 'a'+file)
	}
	b.WriteString(styles.Coordinate.Render(files))
	return styles.BoardFrame.Render(b.String())
}

func (m Model) renderSquare(p position.Piece, light bool) string {
	bg := styles.DarkSquare
	if light {
		bg = styles.LightSquare
	}
	if p == 0 {
		return bg.Render("   ")
	}
	glyph := p.String()
	if m.opts.UnicodePieces {
		glyph = unicodePieces[p]
	}
	fg := styles.WhitePiece
	if p.Color() == position.Black {
		fg = styles.BlackPiece
	}
	return bg.Inherit(fg).Render(" " + glyph + " ")
}

func (m Model) renderSidebar() string {
	s := m.state
	active := workflow.ActiveGameID(s.Workflow)

	var b strings.Builder
	b.WriteString(styles.SidebarTitle.Render("Games"))
	b.WriteString("\n")
	if len(s.Study.Games) == 0 {
		b.WriteString(styles.Muted.Render("none yet"))
	}
	for _, g := range s.Study.Games {
		line := styles.Truncate(gameLabel(g, s.Study), sidebarWidth-4)
		switch {
		case g.ID == active:
			line = styles.SidebarItemActive.Render(line)
		case g.Pending:
			line = styles.SidebarItemPending.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if s.PdfID != "" {
		b.WriteString(styles.SidebarSectionTitle.Render("Page"))
		b.WriteString("\n")
		switch {
		case s.RenderedPage != s.Page:
			b.WriteString(styles.Muted.Render("rendering..."))
		case len(s.Diagrams) == 0:
			b.WriteString(styles.Muted.Render("no diagrams found"))
		default:
			b.WriteString(fmt.Sprintf("%d diagrams (1-%d)", len(s.Diagrams), min(len(s.Diagrams), 9)))
		}
	}
	return styles.Sidebar.Width(sidebarWidth).Render(b.String())
}

func gameLabel(g study.Game, s study.Study) string {
	label := fmt.Sprintf("p%d %s %s", g.Page+1, shortID(g.ID), g.Turn)
	if g.Pending {
		return label + " ?"
	}
	if _, ok := s.Analyses[g.ID]; ok {
		label += " *"
	}
	if _, ok := s.Continuations.Get(g.ID); ok {
		label += " →"
	}
	return label
}

func (m Model) renderPanel() string {
	s := m.state
	switch wf := s.Workflow.(type) {
	case workflow.NoPDF:
		return styles.Muted.Render("open a PDF with :open <path>")

	case workflow.Viewing:
		if wf.Candidate == nil {
			return ""
		}
		return styles.Primary.Render(fmt.Sprintf(
			"this diagram continues analysis %s at %s: link it? (y/n)",
			shortID(wf.Candidate.AnalysisID), wf.Candidate.Path))

	case workflow.PendingConfirm:
		g, _ := s.Study.Game(wf.GameID)
		return fmt.Sprintf("check the pieces (confidence %.0f%%), %s to move. :edit <square> <piece> fixes a square",
			g.Confidence*100, colorName(g.Turn))

	case workflow.MatchExisting:
		var b strings.Builder
		if wf.Candidate != nil {
			fmt.Fprintf(&b, "  y  link to analysis %s at %s (n ignores)\n",
				shortID(wf.Candidate.AnalysisID), wf.Candidate.Path)
		}
		b.WriteString("reach this diagram from:\n")
		b.WriteString("  s  the starting position\n")
		b.WriteString("  f  the diagram itself\n")
		for i, id := range wf.Options {
			if i >= 9 {
				break
			}
			fmt.Fprintf(&b, "  %d  analysis %s\n", i+1, shortID(id))
		}
		return strings.TrimRight(b.String(), "\n")

	case workflow.Reaching:
		sess := wf.Session
		sans := make([]string, len(sess.Moves))
		for i, mv := range sess.Moves {
			sans[i] = mv.SAN
		}
		line := strings.Join(sans, " ")
		if line == "" {
			line = styles.Muted.Render("no moves yet")
		}
		return fmt.Sprintf("%s to move. %s", colorName(sess.Turn()), line)

	case workflow.Analysis:
		tree := s.Study.Analyses[wf.AnalysisID]
		var b strings.Builder
		b.WriteString(styles.Truncate(analysis.Render(tree), max(m.width, 40)))
		b.WriteString("\n")
		if len(wf.Cursor) == 0 {
			b.WriteString(styles.CursorMove.Render("start"))
		} else {
			b.WriteString(styles.CursorMove.Render(wf.Cursor.String()))
		}
		if n, ok := cursorNode(s); ok && n.Comment != "" {
			b.WriteString("  ")
			b.WriteString(styles.Muted.Render("{" + n.Comment + "}"))
		}
		return b.String()
	}
	return ""
}

func (m Model) renderStatus() string {
	s := m.state
	var text string
	switch s.StatusLevel {
	case core.LevelWarn:
		text = styles.WarningMsg.Render(s.Status)
	case core.LevelError:
		text = styles.ErrorMsg.Render(s.Status)
	default:
		text = styles.InfoMsg.Render(s.Status)
	}
	if m.inputErr != "" {
		text = styles.ErrorMsg.Render(m.inputErr)
	}

	board := "board offline"
	switch {
	case s.Board.Connected:
		board = "board connected"
	case s.Board.Available:
		board = "board idle"
	}
	if s.HardwareSync {
		board += ", sync on"
	}
	return styles.StatusBar.Render(text + "  " + styles.Muted.Render(board))
}

// helpBindings lists the keys that do something in the current workflow.
func (m Model) helpBindings() []key.Binding {
	k := m.keys
	var bindings []key.Binding
	switch wf := m.state.Workflow.(type) {
	case workflow.Viewing:
		bindings = []key.Binding{k.NextPage, k.PrevPage, k.NextGame, k.Setup, k.Delete}
		if wf.Candidate != nil {
			bindings = append(bindings, k.Accept, k.Reject)
		}
	case workflow.PendingConfirm:
		bindings = []key.Binding{k.Confirm, k.Discard, k.White}
	case workflow.MatchExisting:
		bindings = []key.Binding{k.FromStart, k.FromDiagram, k.Cancel}
		if wf.Candidate != nil {
			bindings = append(bindings, k.Accept, k.Reject)
		}
	case workflow.Reaching:
		bindings = []key.Binding{k.Move, k.Undo, k.MoveText, k.Cancel}
	case workflow.Analysis:
		bindings = []key.Binding{k.Move, k.Back, k.Start, k.NextVar, k.DeleteNode, k.Promote, k.Comment, k.CopyPGN, k.Close}
	}
	return append(bindings, k.Sync, k.Command, k.Quit)
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.helpBindings()))
	for _, b := range m.helpBindings() {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+h.Desc)
	}
	return styles.HelpBar.Render(strings.Join(parts, "  "))
}

func colorName(c position.Color) string {
	if c == position.Black {
		return "Black"
	}
	return "White"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
