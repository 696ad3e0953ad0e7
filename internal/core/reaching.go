package core

import (
	"fmt"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/continuation"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/inference"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

// enterReaching starts a reach session, completing it at once when the
// start already shows the diagram.
func (r *Reducer) enterReaching(m Model, s workflow.ReachSession) (Model, []effect.Effect) {
	if s.Reached() {
		return r.completeReach(m, s)
	}
	m.Workflow = workflow.Reaching{Session: s}
	m = m.info("play the moves that lead to the diagram")

	effects := []effect.Effect{effect.StartBoardPoll{Interval: r.Settings.BoardPollInterval}}
	if m.Board.Connected {
		next, sync := r.syncBoard(m, s.Start.Placement())
		m = next
		effects = append(effects, sync...)
	}
	return m, effects
}

func (r *Reducer) updateReaching(m Model, wf workflow.Reaching, message msg.Msg) (Model, []effect.Effect) {
	s := wf.Session
	switch message := message.(type) {
	case msg.MoveEntered:
		mv, ok, err := inference.FindMove(r.Oracle, s.Current, message.SAN)
		if err != nil {
			return m.fail(errors.StatusText(err)), nil
		}
		if !ok {
			return m.warn(fmt.Sprintf("illegal move %q", message.SAN)), nil
		}
		return r.reachPlayed(m, s.Play(mv))

	case msg.PlacementObserved:
		return r.reachObserved(m, s, message.Placement)

	case msg.RequestMoveText:
		g, ok := m.Study.Game(s.GameID)
		if !ok {
			return m, nil
		}
		return m.info("reading move text..."), []effect.Effect{
			effect.ExtractMoves{PdfID: m.PdfID, Page: g.Page, BBox: g.BBox, GameID: g.ID},
		}

	case msg.MovesExtracted:
		if message.GameID != s.GameID {
			return m, nil
		}
		return r.reachFromText(m, s, message)

	case msg.MoveExtractionFailed:
		if message.GameID != s.GameID {
			return m, nil
		}
		return m.warn("could not read move text: " + errors.StatusText(message.Err)), nil

	case msg.UndoReachMove:
		undone, ok := s.Undo()
		if !ok {
			return m, nil
		}
		m.Workflow = workflow.Reaching{Session: undone}
		m = m.info(fmt.Sprintf("took back %s", s.Moves[len(s.Moves)-1].SAN))
		if m.Board.Connected {
			return r.syncBoard(m, undone.Current.Placement())
		}
		return m, nil

	case msg.Cancel:
		m.Workflow = workflow.Viewing{ActiveGameID: s.GameID}
		return m.info("setup cancelled"), []effect.Effect{effect.StopBoardPoll{}}
	}
	return m, nil
}

// reachObserved matches a placement seen on the board against the session.
// Placements no single move explains are ignored.
func (r *Reducer) reachObserved(m Model, s workflow.ReachSession, pl position.Placement) (Model, []effect.Effect) {
	res, err := inference.InferMove(r.Oracle, s.Current, pl)
	if err != nil || res.Outcome != inference.Matched {
		return m, nil
	}
	return r.reachPlayed(m, s.Play(res.Move))
}

func (r *Reducer) reachPlayed(m Model, s workflow.ReachSession) (Model, []effect.Effect) {
	if s.Reached() {
		return r.completeReach(m, s)
	}
	m.Workflow = workflow.Reaching{Session: s}
	return m.info(fmt.Sprintf("%d moves played", len(s.Moves))), nil
}

// reachFromText resolves the extracted text against the diagram, trying the
// embedded PDF text before OCR. Partial resolutions are not applied.
func (r *Reducer) reachFromText(m Model, s workflow.ReachSession, message msg.MovesExtracted) (Model, []effect.Effect) {
	for _, text := range []string{message.PdfText, message.OcrText} {
		tokens := inference.Tokenize(text)
		if len(tokens) == 0 {
			continue
		}
		res, err := inference.ResolveTokens(r.Oracle, s.Current, tokens, s.Target)
		if err != nil {
			return m.fail(errors.StatusText(err)), nil
		}
		if res.Reached {
			for _, mv := range res.Moves {
				s = s.Play(mv)
			}
			return r.completeReach(m, s)
		}
	}
	return m.warn("move text does not lead to the diagram; enter the moves by hand"), nil
}

// completeReach stores the reached line and opens ANALYSIS at the diagram.
// A fresh session creates (or extends) the game's own tree and never
// replaces one rooted elsewhere; a session based on another analysis extends
// that tree and links the game into it.
func (r *Reducer) completeReach(m Model, s workflow.ReachSession) (Model, []effect.Effect) {
	var (
		tree       analysis.Tree
		cursor     analysis.Path
		analysisID string
	)

	if s.BaseAnalysisID != "" {
		analysisID = s.BaseAnalysisID
		tree = m.Study.Analyses[analysisID]
		tree, cursor = insertLine(tree, s.BasePath, s.Moves)
		m.Study = m.Study.WithAnalysis(analysisID, tree)
		m.Study = m.Study.WithLink(continuation.Link{FromGameID: s.GameID, ToAnalysisID: analysisID, NodePath: cursor})
	} else {
		analysisID = s.GameID
		tree = analysis.New(s.Start)
		if existing, ok := m.Study.Analyses[analysisID]; ok && !existing.IsZero() {
			if !position.PlacementsEqual(existing.Start, s.Start) {
				m.Workflow = workflow.Viewing{ActiveGameID: s.GameID}
				return m.warn("this game's analysis starts from another position; reach discarded"),
					[]effect.Effect{effect.StopBoardPoll{}}
			}
			tree = existing
		}
		tree, cursor = insertLine(tree, nil, s.Moves)
		m.Study = m.Study.WithAnalysis(analysisID, tree)
		m.Study.Continuations = m.Study.Continuations.Without(s.GameID)
	}

	// REACHING always polls the board; ANALYSIS keeps polling only with sync on.
	m, effects := r.enterAnalysis(m, workflow.Analysis{AnalysisID: analysisID, GameID: s.GameID, Cursor: cursor})
	if !m.HardwareSync {
		effects = append(effects, effect.StopBoardPoll{})
	}
	m = m.info(fmt.Sprintf("diagram reached after %d moves", len(s.Moves)))
	return m, append([]effect.Effect{r.save(m)}, effects...)
}

func insertLine(tree analysis.Tree, from analysis.Path, moves []rules.Move) (analysis.Tree, analysis.Path) {
	cursor := from
	for _, mv := range moves {
		tree, cursor = analysis.Insert(tree, cursor, mv.SAN, mv.Position)
	}
	return tree, cursor
}
