package core

import (
	"fmt"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/inference"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

func (r *Reducer) updateAnalysis(m Model, wf workflow.Analysis, message msg.Msg) (Model, []effect.Effect) {
	tree, ok := m.Study.Analyses[wf.AnalysisID]
	if !ok || tree.IsZero() {
		m.Workflow = workflow.Viewing{ActiveGameID: wf.GameID}
		return m, nil
	}
	node, ok := analysis.Resolve(tree, wf.Cursor)
	if !ok {
		wf.Cursor = nil
		m.Workflow = wf
		node = tree.Root
	}

	switch message := message.(type) {
	case msg.MoveEntered:
		mv, ok, err := inference.FindMove(r.Oracle, node.Position, message.SAN)
		if err != nil {
			return m.fail(errors.StatusText(err)), nil
		}
		if !ok {
			return m.warn(fmt.Sprintf("illegal move %q", message.SAN)), nil
		}
		return r.playInAnalysis(m, wf, tree, mv)

	case msg.PlacementObserved:
		return r.observeInAnalysis(m, wf, tree, node.Position, message.Placement)

	case msg.Navigate:
		return r.navigate(m, wf, tree, message.Direction)

	case msg.DeleteNode:
		next, cursor, ok := analysis.Delete(tree, wf.Cursor)
		if !ok {
			return m.warn("the starting position cannot be deleted"), nil
		}
		m.Study = m.Study.WithAnalysis(wf.AnalysisID, next)
		wf.Cursor = cursor
		m.Workflow = wf
		m = m.info("move deleted")
		return r.afterTreeEdit(m, next, cursor, true)

	case msg.PromoteNode:
		next, ok := analysis.Promote(tree, wf.Cursor)
		if !ok {
			return m.info("already the main line"), nil
		}
		m.Study = m.Study.WithAnalysis(wf.AnalysisID, next)
		return m.info("variation promoted"), []effect.Effect{r.save(m)}

	case msg.SetComment:
		next, ok := analysis.SetComment(tree, wf.Cursor, message.Text)
		if !ok {
			return m, nil
		}
		m.Study = m.Study.WithAnalysis(wf.AnalysisID, next)
		return m.info("comment saved"), []effect.Effect{r.save(m)}

	case msg.CopyPGN:
		return m.info("PGN copied"), []effect.Effect{
			effect.CopyToClipboard{Text: analysis.RenderGame(tree, r.pgnHeaders(m, wf)...)},
		}

	case msg.GameSelected:
		if message.GameID == wf.GameID {
			return m, nil
		}
		next, effects := r.activateGame(m, message.GameID)
		if _, still := next.Workflow.(workflow.Analysis); !still && m.HardwareSync {
			effects = append(effects, effect.StopBoardPoll{})
		}
		return next, effects

	case msg.GameDeleted:
		return r.deleteGame(m, message.GameID)

	case msg.CloseAnalysis, msg.Cancel:
		m.Workflow = workflow.Viewing{ActiveGameID: wf.GameID}
		if m.HardwareSync {
			return m, []effect.Effect{effect.StopBoardPoll{}}
		}
		return m, nil
	}
	return m, nil
}

// playInAnalysis adds mv below the cursor, or follows it when the child
// already exists.
func (r *Reducer) playInAnalysis(m Model, wf workflow.Analysis, tree analysis.Tree, mv rules.Move) (Model, []effect.Effect) {
	next, cursor := analysis.Insert(tree, wf.Cursor, mv.SAN, mv.Position)
	wf.Cursor = cursor
	m.Workflow = wf
	m = m.info(mv.SAN)
	if next.Root == tree.Root {
		return r.afterTreeEdit(m, next, cursor, false)
	}
	m.Study = m.Study.WithAnalysis(wf.AnalysisID, next)
	return r.afterTreeEdit(m, next, cursor, true)
}

// observeInAnalysis plays the move a board placement implies. Placements
// that already match the cursor, or that no single move explains, change
// nothing.
func (r *Reducer) observeInAnalysis(m Model, wf workflow.Analysis, tree analysis.Tree, from position.Position, pl position.Placement) (Model, []effect.Effect) {
	res, err := inference.InferMove(r.Oracle, from, pl)
	if err != nil || res.Outcome != inference.Matched {
		return m, nil
	}
	next, cursor := analysis.Insert(tree, wf.Cursor, res.Move.SAN, res.Move.Position)
	wf.Cursor = cursor
	m.Workflow = wf
	m = m.info(res.Move.SAN)
	if next.Root == tree.Root {
		return m, nil
	}
	m.Study = m.Study.WithAnalysis(wf.AnalysisID, next)
	return m, []effect.Effect{r.save(m)}
}

// afterTreeEdit saves when the tree changed and pushes the cursor position
// to the board when syncing.
func (r *Reducer) afterTreeEdit(m Model, tree analysis.Tree, cursor analysis.Path, changed bool) (Model, []effect.Effect) {
	var effects []effect.Effect
	if changed {
		effects = append(effects, r.save(m))
	}
	if !m.HardwareSync {
		return m, effects
	}
	n, ok := analysis.Resolve(tree, cursor)
	if !ok {
		return m, effects
	}
	next, sync := r.syncBoard(m, n.Position.Placement())
	return next, append(effects, sync...)
}

func (r *Reducer) navigate(m Model, wf workflow.Analysis, tree analysis.Tree, dir msg.Direction) (Model, []effect.Effect) {
	var (
		cursor analysis.Path
		ok     bool
	)
	switch dir {
	case msg.Back:
		cursor, ok = analysis.Parent(wf.Cursor)
	case msg.Forward:
		cursor, ok = analysis.MainlineChild(tree, wf.Cursor)
	case msg.ToStart:
		cursor, ok = nil, len(wf.Cursor) > 0
	case msg.ToEnd:
		cursor = analysis.MainlineEnd(tree, wf.Cursor)
		ok = !cursor.Equal(wf.Cursor)
	case msg.NextVariation:
		cursor, ok = analysis.NextSibling(tree, wf.Cursor)
		if !ok {
			return m.info("no more variations"), nil
		}
	case msg.PrevVariation:
		cursor, ok = analysis.PrevSibling(tree, wf.Cursor)
		if !ok {
			return m.info("no more variations"), nil
		}
	}
	if !ok {
		return m, nil
	}
	wf.Cursor = cursor
	m.Workflow = wf
	return r.afterTreeEdit(m.info(cursor.String()), tree, cursor, false)
}

func (r *Reducer) pgnHeaders(m Model, wf workflow.Analysis) []analysis.Header {
	headers := []analysis.Header{
		{Name: "Event", Value: "chessbook analysis"},
		{Name: "Annotator", Value: "chessbook"},
	}
	if g, ok := m.Study.Game(wf.GameID); ok {
		headers = append(headers, analysis.Header{Name: "Source", Value: fmt.Sprintf("%s, page %d", m.PdfID, g.Page+1)})
	}
	return headers
}
