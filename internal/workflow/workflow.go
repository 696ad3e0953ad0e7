// Package workflow defines the closed set of modes the application can be
// in. Exactly one State value exists at a time and it alone decides which
// messages the reducer acts on.
package workflow

import (
	"slices"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/continuation"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
)

// Kind names a workflow state.
type Kind int

// Workflow kinds.
const (
	KindNoPDF Kind = iota
	KindViewing
	KindPendingConfirm
	KindMatchExisting
	KindReaching
	KindAnalysis
)

// String returns the state name used in logs and the status bar.
func (k Kind) String() string {
	switch k {
	case KindNoPDF:
		return "NO_PDF"
	case KindViewing:
		return "VIEWING"
	case KindPendingConfirm:
		return "PENDING_CONFIRM"
	case KindMatchExisting:
		return "MATCH_EXISTING"
	case KindReaching:
		return "REACHING"
	case KindAnalysis:
		return "ANALYSIS"
	default:
		return "UNKNOWN"
	}
}

// State is implemented only by the types in this package.
type State interface {
	Kind() Kind
	sealed()
}

// NoPDF is the initial state: nothing is loaded.
type NoPDF struct{}

// Viewing is page browsing with at most one active confirmed game.
type Viewing struct {
	ActiveGameID string
	// Candidate is a continuation found for the active game and awaiting the
	// user's decision. Nil when there is none.
	Candidate *continuation.Candidate
}

// PendingConfirm waits for the user to check a freshly recognized diagram.
type PendingConfirm struct {
	GameID string
}

// MatchExisting asks whether to continue an existing analysis or start a
// new one for a confirmed game.
type MatchExisting struct {
	GameID string
	// Options lists analysis IDs that can be continued, in study order.
	Options []string
	// Candidate is a node of another analysis that already shows the
	// diagram. Nil when no analysis reaches it.
	Candidate *continuation.Candidate
}

// Reaching accumulates moves from a start position toward the diagram.
type Reaching struct {
	Session ReachSession
}

// Analysis is cursor navigation inside a tree.
type Analysis struct {
	AnalysisID string
	GameID     string
	Cursor     analysis.Path
}

func (NoPDF) Kind() Kind          { return KindNoPDF }
func (Viewing) Kind() Kind        { return KindViewing }
func (PendingConfirm) Kind() Kind { return KindPendingConfirm }
func (MatchExisting) Kind() Kind  { return KindMatchExisting }
func (Reaching) Kind() Kind       { return KindReaching }
func (Analysis) Kind() Kind       { return KindAnalysis }

func (NoPDF) sealed()          {}
func (Viewing) sealed()        {}
func (PendingConfirm) sealed() {}
func (MatchExisting) sealed()  {}
func (Reaching) sealed()       {}
func (Analysis) sealed()       {}

// ActiveGameID returns the game a state is about, or "".
func ActiveGameID(s State) string {
	switch s := s.(type) {
	case Viewing:
		return s.ActiveGameID
	case PendingConfirm:
		return s.GameID
	case MatchExisting:
		return s.GameID
	case Reaching:
		return s.Session.GameID
	case Analysis:
		return s.GameID
	default:
		return ""
	}
}

// ReachSession tracks how a confirmed diagram is reached from a start
// position. It lives only inside Reaching.
type ReachSession struct {
	GameID     string
	Target     position.Placement
	TargetTurn position.Color
	Start      position.Position
	Current    position.Position
	// BaseAnalysisID is set when the moves extend an existing analysis from
	// BasePath; empty for a fresh tree.
	BaseAnalysisID string
	BasePath       analysis.Path
	Moves          []rules.Move
}

// NewReachSession starts a session at start.
func NewReachSession(gameID string, target position.Placement, targetTurn position.Color, start position.Position) ReachSession {
	return ReachSession{
		GameID:     gameID,
		Target:     target,
		TargetTurn: targetTurn,
		Start:      start,
		Current:    start,
	}
}

// Turn returns the side to move in the current position.
func (s ReachSession) Turn() position.Color {
	return position.Turn(s.Current)
}

// Reached reports whether the current placement is the target.
func (s ReachSession) Reached() bool {
	return position.SamePlacement(s.Current.Placement(), s.Target)
}

// Play returns the session after m.
func (s ReachSession) Play(m rules.Move) ReachSession {
	out := s
	out.Moves = append(slices.Clone(s.Moves), m)
	out.Current = m.Position
	return out
}

// Undo returns the session without its last move.
func (s ReachSession) Undo() (ReachSession, bool) {
	if len(s.Moves) == 0 {
		return s, false
	}
	out := s
	out.Moves = slices.Clone(s.Moves[:len(s.Moves)-1])
	out.Current = s.Start
	if n := len(out.Moves); n > 0 {
		out.Current = out.Moves[n-1].Position
	}
	return out, true
}

// SAN returns the played moves in SAN.
func (s ReachSession) SAN() []string {
	out := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		out[i] = m.SAN
	}
	return out
}
