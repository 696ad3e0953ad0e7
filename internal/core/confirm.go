package core

import (
	"fmt"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/continuation"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/study"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

func (r *Reducer) updatePending(m Model, wf workflow.PendingConfirm, message msg.Msg) (Model, []effect.Effect) {
	g, ok := m.Study.Game(wf.GameID)
	if !ok {
		m.Workflow = workflow.Viewing{}
		return m, nil
	}

	switch message := message.(type) {
	case msg.PieceEdited:
		if !position.IsSquare(string(message.Square)) {
			return m.warn(fmt.Sprintf("no such square %q", message.Square)), nil
		}
		if message.Piece != 0 && !position.IsPieceLetter(byte(message.Piece)) {
			return m.warn(fmt.Sprintf("no such piece %q", message.Piece)), nil
		}
		pl, err := position.WithPiece(g.Placement, message.Square, message.Piece)
		if err != nil {
			return m.fail(errors.StatusText(err)), nil
		}
		g.Placement = pl
		m.Study = m.Study.WithGame(g)
		return m, nil

	case msg.TurnChosen:
		if message.Turn != position.White && message.Turn != position.Black {
			return m, nil
		}
		g.Turn = message.Turn
		m.Study = m.Study.WithGame(g)
		return m, nil

	case msg.ConfirmPieces:
		return r.confirm(m, g.ID)

	case msg.DiscardPending, msg.Cancel:
		m.Study = m.Study.DeleteGame(g.ID)
		m.Workflow = workflow.Viewing{}
		return m.info("diagram discarded"), nil
	}
	return m, nil
}

// confirm turns the pending game into a confirmed one, unless an existing
// game already holds the edited placement.
func (r *Reducer) confirm(m Model, gameID string) (Model, []effect.Effect) {
	g, _ := m.Study.Game(gameID)
	if err := position.ValidateForBoard(g.Placement); err != nil {
		return m.warn("fix the position first: " + errors.StatusText(err)), nil
	}

	if existing, ok := m.Study.FindConfirmedByPlacement(g.Placement); ok {
		m.Study = m.Study.DeleteGame(g.ID)
		return r.activateDuplicate(m, existing)
	}

	g.Pending = false
	m.Study = m.Study.WithGame(g)
	next, effects := r.startMatch(m, g.ID)
	return next, append([]effect.Effect{r.save(next)}, effects...)
}

// startMatch enters MATCH_EXISTING for a confirmed game, offering any
// other analysis that already reaches the diagram.
func (r *Reducer) startMatch(m Model, gameID string) (Model, []effect.Effect) {
	g, ok := m.Study.Game(gameID)
	if !ok || g.Pending {
		return m, nil
	}
	var options []string
	for _, id := range m.Study.GameOrder() {
		if tree, ok := m.Study.Analyses[id]; ok && !tree.IsZero() {
			options = append(options, id)
		}
	}
	wf := workflow.MatchExisting{GameID: gameID, Options: options}
	if cand, ok := m.Study.FindContinuation(gameID, r.Settings.ContinuationBudget); ok {
		wf.Candidate = &cand
		m.Workflow = wf
		owner, _ := m.Study.Game(cand.AnalysisID)
		return m.info(fmt.Sprintf("position reached in the analysis from page %d after %s; link to continue there",
			owner.Page+1, cand.Path)), nil
	}
	m.Workflow = wf
	return m.info("continue an existing analysis or start a new one"), nil
}

func (r *Reducer) updateMatch(m Model, wf workflow.MatchExisting, message msg.Msg) (Model, []effect.Effect) {
	g, ok := m.Study.Game(wf.GameID)
	if !ok {
		m.Workflow = workflow.Viewing{}
		return m, nil
	}

	switch message := message.(type) {
	case msg.Cancel:
		m.Workflow = workflow.Viewing{ActiveGameID: g.ID}
		return m, nil

	case msg.ContinuationAccepted:
		if wf.Candidate == nil {
			return m, nil
		}
		if next, effects, ok := r.linkGame(m, g.ID, *wf.Candidate); ok {
			return next, effects
		}
		wf.Candidate = nil
		m.Workflow = wf
		return m.warn(continuationGone), nil

	case msg.ContinuationRejected:
		if wf.Candidate == nil {
			return m, nil
		}
		wf.Candidate = nil
		m.Workflow = wf
		return m.info("continuation dismissed"), nil

	case msg.MatchChosen:
		var session workflow.ReachSession
		switch message.Choice {
		case msg.NewFromStart:
			session = workflow.NewReachSession(g.ID, g.Placement, g.Turn, position.StartingPosition)
		case msg.FromDiagram:
			session = workflow.NewReachSession(g.ID, g.Placement, g.Turn, g.Position())
		case msg.ContinueExisting:
			return r.continueExisting(m, g, message.AnalysisID)
		default:
			return m, nil
		}
		if own, ok := m.Study.Analyses[g.ID]; ok && !own.IsZero() && !position.PlacementsEqual(own.Start, session.Start) {
			return m.warn("this game's analysis starts from another position; continue it or delete it first"), nil
		}
		return r.enterReaching(m, session)
	}
	return m, nil
}

// continueExisting opens the node of analysisID that already shows the
// diagram, or starts a reach from the end of its main line.
func (r *Reducer) continueExisting(m Model, g study.Game, analysisID string) (Model, []effect.Effect) {
	tree, ok := m.Study.Analyses[analysisID]
	if !ok || tree.IsZero() {
		return m.warn("that analysis no longer exists"), nil
	}

	if p, found := analysis.FindPlacement(tree, g.Placement, r.Settings.ContinuationBudget); found {
		if analysisID == g.ID {
			next, effects := r.enterAnalysis(m, workflow.Analysis{AnalysisID: analysisID, GameID: g.ID, Cursor: p})
			return next.info("diagram found in its analysis"), effects
		}
		next, effects, _ := r.linkGame(m, g.ID, continuation.Candidate{AnalysisID: analysisID, Path: p})
		return next, effects
	}

	base := analysis.MainlineEnd(tree, nil)
	n, _ := analysis.Resolve(tree, base)
	session := workflow.NewReachSession(g.ID, g.Placement, g.Turn, n.Position)
	session.BaseAnalysisID = analysisID
	session.BasePath = base
	return r.enterReaching(m, session)
}
