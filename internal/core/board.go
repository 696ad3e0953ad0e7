package core

import (
	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

func (r *Reducer) boardStatus(m Model, message msg.BoardStatusReceived) (Model, []effect.Effect) {
	prev := m.Board
	m.Board = BoardStatus{Available: message.Available, Connected: message.Connected}
	switch {
	case prev.Connected && !m.Board.Connected:
		return m.warn("board disconnected"), nil
	case !prev.Connected && m.Board.Connected:
		m = m.info("board connected")
		// Push the position the user is looking at once the board appears.
		if pl, ok := BoardTarget(m); ok {
			return r.syncBoard(m, pl)
		}
	}
	return m, nil
}

// boardFen feeds a polled board placement to the active workflow. Only
// REACHING and a syncing ANALYSIS listen to the board.
func (r *Reducer) boardFen(m Model, message msg.BoardFenReceived) (Model, []effect.Effect) {
	observed := msg.PlacementObserved{Placement: message.Position.Placement()}
	switch m.Workflow.(type) {
	case workflow.Reaching:
		return r.Update(m, observed)
	case workflow.Analysis:
		if m.HardwareSync {
			return r.Update(m, observed)
		}
	}
	return m, nil
}

// boardError reports a failed board call. Polling continues.
func (r *Reducer) boardError(m Model, message msg.BoardError) (Model, []effect.Effect) {
	return m.warn("board: " + errors.StatusText(message.Err)), nil
}

func (r *Reducer) toggleHardwareSync(m Model) (Model, []effect.Effect) {
	m.HardwareSync = !m.HardwareSync
	wf, ok := m.Workflow.(workflow.Analysis)
	if !ok {
		if m.HardwareSync {
			return m.info("board sync on"), nil
		}
		return m.info("board sync off"), nil
	}
	if !m.HardwareSync {
		return m.info("board sync off"), []effect.Effect{effect.StopBoardPoll{}}
	}
	return r.enterAnalysis(m.info("board sync on"), wf)
}

// BoardTarget returns the placement the board should show in the current
// workflow, if any.
func BoardTarget(m Model) (pl position.Placement, ok bool) {
	switch wf := m.Workflow.(type) {
	case workflow.Reaching:
		return wf.Session.Current.Placement(), true
	case workflow.Analysis:
		if !m.HardwareSync {
			return "", false
		}
		n, ok := analysis.Resolve(m.Study.Analyses[wf.AnalysisID], wf.Cursor)
		if !ok {
			return "", false
		}
		return n.Position.Placement(), true
	}
	return "", false
}
