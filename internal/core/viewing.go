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

func (r *Reducer) updateViewing(m Model, wf workflow.Viewing, message msg.Msg) (Model, []effect.Effect) {
	switch message := message.(type) {
	case msg.GoToPage:
		next, effects := r.goToPage(m, message.Page)
		if len(effects) > 0 {
			wf.Candidate = nil
			next.Workflow = wf
		}
		return next, effects

	case msg.DiagramSelected:
		if message.Index < 0 || message.Index >= len(m.Diagrams) {
			return m, nil
		}
		box := m.Diagrams[message.Index]
		return m.info("recognizing diagram..."), []effect.Effect{
			effect.Recognize{PdfID: m.PdfID, Page: m.Page, BBox: box},
		}

	case msg.RecognitionSucceeded:
		if message.PdfID != m.PdfID || message.Page != m.Page {
			return m, nil
		}
		return r.recognized(m, message)

	case msg.RecognitionFailed:
		if message.PdfID != m.PdfID || message.Page != m.Page {
			return m, nil
		}
		return m.fail("recognition failed: " + errors.StatusText(message.Err)), nil

	case msg.GameSelected:
		return r.activateGame(m, message.GameID)

	case msg.GameDeleted:
		return r.deleteGame(m, message.GameID)

	case msg.ContinuationAccepted:
		return r.acceptContinuation(m, wf)

	case msg.ContinuationRejected:
		if wf.Candidate == nil {
			return m, nil
		}
		wf.Candidate = nil
		m.Workflow = wf
		return m.info("continuation dismissed"), nil

	case msg.StartAnalysisSetup:
		id := message.GameID
		if id == "" {
			id = wf.ActiveGameID
		}
		return r.startMatch(m, id)
	}
	return m, nil
}

// recognized applies a recognition result: a placement already held by a
// confirmed game activates that game, anything else becomes a pending game.
func (r *Reducer) recognized(m Model, message msg.RecognitionSucceeded) (Model, []effect.Effect) {
	pl, err := position.ParsePlacement(message.Placement)
	if err != nil {
		return m.fail("recognition returned an invalid position: " + err.Error()), nil
	}

	if existing, ok := m.Study.FindConfirmedByPlacement(pl); ok {
		return r.activateDuplicate(m, existing)
	}

	g := study.Game{
		ID:         r.NewID(),
		Page:       message.Page,
		BBox:       message.BBox,
		Placement:  pl,
		Turn:       position.White,
		Confidence: message.Confidence,
		Pending:    true,
	}
	m.Study = m.Study.WithGame(g)
	m.Workflow = workflow.PendingConfirm{GameID: g.ID}
	if message.Confidence < r.Settings.MinConfidence {
		return m.warn(fmt.Sprintf("low confidence (%.0f%%), check the pieces before confirming", message.Confidence*100)), nil
	}
	return m.info("check the pieces and confirm"), nil
}

// activateGame opens a confirmed game: its own or linked analysis when there
// is one, otherwise VIEWING with a continuation candidate if one exists.
func (r *Reducer) activateGame(m Model, gameID string) (Model, []effect.Effect) {
	g, ok := m.Study.Game(gameID)
	if !ok || g.Pending {
		return m, nil
	}

	m, effects := r.goToPage(m, g.Page)

	if target, ok := m.Study.AnalysisFor(gameID, r.Settings.ContinuationBudget); ok {
		next, more := r.enterAnalysis(m, workflow.Analysis{AnalysisID: target.AnalysisID, GameID: gameID, Cursor: target.Path})
		return next, append(effects, more...)
	}

	if cand, ok := m.Study.FindContinuation(gameID, r.Settings.ContinuationBudget); ok {
		m.Workflow = workflow.Viewing{ActiveGameID: gameID, Candidate: &cand}
		owner, _ := m.Study.Game(cand.AnalysisID)
		return m.info(fmt.Sprintf("position reached in the analysis from page %d after %s; accept to continue there",
			owner.Page+1, cand.Path)), effects
	}

	m.Workflow = workflow.Viewing{ActiveGameID: gameID}
	return m.info("no analysis yet; start one to reach this position"), effects
}

// activateDuplicate opens the confirmed game that already holds a freshly
// recognized diagram.
func (r *Reducer) activateDuplicate(m Model, existing study.Game) (Model, []effect.Effect) {
	next, effects := r.activateGame(m, existing.ID)
	next.Status = fmt.Sprintf("diagram already in study (page %d); %s", existing.Page+1, next.Status)
	return next, effects
}

func (r *Reducer) acceptContinuation(m Model, wf workflow.Viewing) (Model, []effect.Effect) {
	if wf.Candidate == nil || wf.ActiveGameID == "" {
		return m, nil
	}
	if next, effects, ok := r.linkGame(m, wf.ActiveGameID, *wf.Candidate); ok {
		return next, effects
	}
	wf.Candidate = nil
	m.Workflow = wf
	return m.warn(continuationGone), nil
}

const continuationGone = "that analysis has changed; the continuation is no longer available"

// linkGame links gameID to the node cand names and opens ANALYSIS there.
// It reports false, leaving m untouched, when the node no longer resolves.
func (r *Reducer) linkGame(m Model, gameID string, cand continuation.Candidate) (Model, []effect.Effect, bool) {
	link := cand.Link(gameID)
	if _, _, ok := continuation.Resolve(link, m.Study.Analyses); !ok {
		return m, nil, false
	}

	m.Study = m.Study.WithLink(link)
	next, effects := r.enterAnalysis(m, workflow.Analysis{
		AnalysisID: link.ToAnalysisID,
		GameID:     gameID,
		Cursor:     link.NodePath,
	})
	return next.info("continuing existing analysis"), append([]effect.Effect{r.save(next)}, effects...), true
}

// deleteGame removes a game with its analysis and links, valid from VIEWING
// and ANALYSIS.
func (r *Reducer) deleteGame(m Model, gameID string) (Model, []effect.Effect) {
	if _, ok := m.Study.Game(gameID); !ok {
		return m, nil
	}
	m.Study = m.Study.DeleteGame(gameID)

	var effects []effect.Effect
	switch wf := m.Workflow.(type) {
	case workflow.Viewing:
		if wf.ActiveGameID == gameID {
			m.Workflow = workflow.Viewing{}
		} else if wf.Candidate != nil && wf.Candidate.AnalysisID == gameID {
			wf.Candidate = nil
			m.Workflow = wf
		}
	case workflow.Analysis:
		if wf.GameID == gameID || wf.AnalysisID == gameID {
			m.Workflow = workflow.Viewing{}
			if m.HardwareSync {
				effects = append(effects, effect.StopBoardPoll{})
			}
		}
	}
	return m.info("game deleted"), append([]effect.Effect{r.save(m)}, effects...)
}

// enterAnalysis switches to ANALYSIS and starts board sync when enabled.
func (r *Reducer) enterAnalysis(m Model, wf workflow.Analysis) (Model, []effect.Effect) {
	m.Workflow = wf
	if !m.HardwareSync {
		return m, nil
	}
	tree := m.Study.Analyses[wf.AnalysisID]
	n, ok := analysis.Resolve(tree, wf.Cursor)
	if !ok {
		return m, nil
	}
	next, effects := r.syncBoard(m, n.Position.Placement())
	return next, append([]effect.Effect{effect.StartBoardPoll{Interval: r.Settings.BoardPollInterval}}, effects...)
}
