package runtime

import (
	"fmt"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/core"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/inference"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/metrics"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

// Observer records what each reducer step did, for logs and metrics. It
// never changes the outcome of a step.
type Observer struct {
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewObserver returns an Observer.
func NewObserver(logger *logging.Logger, m *metrics.Metrics) *Observer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Observer{logger: logger.With("component", "reducer"), metrics: m}
}

// Observe is called with the model before and after one Update.
func (o *Observer) Observe(before, after core.Model, message msg.Msg, effects []effect.Effect) {
	if IsStale(before, message) {
		o.metrics.Stale()
		o.logger.Debug("dropped stale message", "message", fmt.Sprintf("%T", message))
		return
	}

	if observed, ok := observedPlacement(message); ok {
		if outcome, ok := ClassifyObservation(before, after, observed); ok {
			o.metrics.Inference(outcome.String())
			if outcome == inference.Matched {
				o.logger.WithWorkflow(kindOf(after.Workflow).String()).Debug("move inferred from placement", "status", after.Status)
			}
		}
	}

	if from, to := kindOf(before.Workflow), kindOf(after.Workflow); from != to {
		o.logger.WithPDF(after.PdfID).Info("workflow changed",
			"from", from.String(),
			"to", to.String(),
			"effects", len(effects),
		)
	}
}

func kindOf(s workflow.State) workflow.Kind {
	if s == nil {
		return workflow.KindNoPDF
	}
	return s.Kind()
}

func observedPlacement(message msg.Msg) (position.Placement, bool) {
	switch message := message.(type) {
	case msg.PlacementObserved:
		return message.Placement, true
	case msg.BoardFenReceived:
		return message.Position.Placement(), true
	}
	return "", false
}

// IsStale reports whether message answers a request the model no longer
// waits for, so the reducer will drop it.
func IsStale(m core.Model, message msg.Msg) bool {
	samePage := func(pdfID string, page int) bool {
		return pdfID == m.PdfID && page == m.Page
	}
	switch message := message.(type) {
	case msg.StudyLoaded:
		return message.PdfID != m.PdfID
	case msg.StudyLoadFailed:
		return message.PdfID != m.PdfID
	case msg.StudySaveFailed:
		return message.PdfID != m.PdfID
	case msg.PageRendered:
		return !samePage(message.PdfID, message.Page)
	case msg.PageRenderFailed:
		return !samePage(message.PdfID, message.Page)
	case msg.DiagramsDetected:
		return !samePage(message.PdfID, message.Page)
	case msg.DetectFailed:
		return !samePage(message.PdfID, message.Page)
	case msg.RecognitionSucceeded:
		_, viewing := m.Workflow.(workflow.Viewing)
		return !viewing || !samePage(message.PdfID, message.Page)
	case msg.RecognitionFailed:
		_, viewing := m.Workflow.(workflow.Viewing)
		return !viewing || !samePage(message.PdfID, message.Page)
	case msg.MovesExtracted:
		wf, ok := m.Workflow.(workflow.Reaching)
		return !ok || wf.Session.GameID != message.GameID
	case msg.MoveExtractionFailed:
		wf, ok := m.Workflow.(workflow.Reaching)
		return !ok || wf.Session.GameID != message.GameID
	case msg.BoardFenReceived:
		_, listening := core.BoardTarget(m)
		return !listening
	}
	return false
}

// ClassifyObservation reports how the reducer treated an observed
// placement. ok is false when no workflow was listening for moves.
func ClassifyObservation(before, after core.Model, observed position.Placement) (inference.Outcome, bool) {
	from, ok := movePlacement(before)
	if !ok {
		return 0, false
	}
	if position.SamePlacement(from, observed) {
		return inference.NoChange, true
	}
	if to, ok := movePlacement(after); ok && position.SamePlacement(to, observed) {
		return inference.Matched, true
	}
	// A reach completed by this move leaves REACHING for ANALYSIS at the
	// diagram, which movePlacement(after) already covers.
	return inference.NoMatch, true
}

// movePlacement is the placement moves are played from in m.
func movePlacement(m core.Model) (position.Placement, bool) {
	switch wf := m.Workflow.(type) {
	case workflow.Reaching:
		return wf.Session.Current.Placement(), true
	case workflow.Analysis:
		n, ok := analysis.Resolve(m.Study.Analyses[wf.AnalysisID], wf.Cursor)
		if !ok {
			return "", false
		}
		return n.Position.Placement(), true
	}
	return "", false
}
