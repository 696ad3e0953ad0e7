// Package core is the pure heart of chessbook: a reducer that takes the
// current Model and one message and returns the next Model plus the effects
// the runtime should perform.
//
// Update performs no I/O, starts no goroutines and reads no clocks. Every
// (state, message) pair it does not handle returns the model unchanged, so
// late or duplicated messages are harmless.
package core

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
	"github.com/Iron-Ham/chessbook/internal/study"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

// Reducer holds the collaborators Update consults. None of them may perform
// I/O: Oracle answers rules questions and NewID mints game IDs.
type Reducer struct {
	Oracle   rules.Oracle
	NewID    func() string
	Settings Settings
}

// NewReducer returns a Reducer using random UUIDs for game IDs.
func NewReducer(oracle rules.Oracle, settings Settings) *Reducer {
	return &Reducer{Oracle: oracle, NewID: uuid.NewString, Settings: settings}
}

// Update applies one message.
func (r *Reducer) Update(m Model, message msg.Msg) (Model, []effect.Effect) {
	if m.Workflow == nil {
		m.Workflow = workflow.NoPDF{}
	}

	switch message := message.(type) {
	case msg.OpenPDF:
		return r.openPDF(m, message)
	case msg.PDFLoaded:
		return r.pdfLoaded(m, message)
	case msg.PDFFailed:
		return m.fail(fmt.Sprintf("could not open %s: %s", message.Path, errors.StatusText(message.Err))), nil
	case msg.StudyLoaded:
		return r.studyLoaded(m, message)
	case msg.StudyLoadFailed:
		if message.PdfID != m.PdfID {
			return m, nil
		}
		return m.warn("could not load saved study: " + errors.StatusText(message.Err)), nil
	case msg.StudySaveFailed:
		if message.PdfID != m.PdfID {
			return m, nil
		}
		return m.warn("could not save study: " + errors.StatusText(message.Err)), nil

	case msg.BoardStatusReceived:
		return r.boardStatus(m, message)
	case msg.BoardFenReceived:
		return r.boardFen(m, message)
	case msg.BoardError:
		return r.boardError(m, message)
	case msg.ToggleHardwareSync:
		return r.toggleHardwareSync(m)
	}

	if m.PdfID != "" {
		if next, effects, ok := r.pageMessage(m, message); ok {
			return next, effects
		}
	}

	switch wf := m.Workflow.(type) {
	case workflow.NoPDF:
		return m, nil
	case workflow.Viewing:
		return r.updateViewing(m, wf, message)
	case workflow.PendingConfirm:
		return r.updatePending(m, wf, message)
	case workflow.MatchExisting:
		return r.updateMatch(m, wf, message)
	case workflow.Reaching:
		return r.updateReaching(m, wf, message)
	case workflow.Analysis:
		return r.updateAnalysis(m, wf, message)
	}
	return m, nil
}

func (r *Reducer) openPDF(m Model, message msg.OpenPDF) (Model, []effect.Effect) {
	switch m.Workflow.(type) {
	case workflow.NoPDF, workflow.Viewing:
	default:
		return m, nil
	}
	if message.Path == "" {
		return m, nil
	}
	return m.info("uploading " + message.Path), []effect.Effect{effect.UploadPDF{Path: message.Path}}
}

func (r *Reducer) pdfLoaded(m Model, message msg.PDFLoaded) (Model, []effect.Effect) {
	switch m.Workflow.(type) {
	case workflow.NoPDF, workflow.Viewing:
	default:
		return m, nil
	}

	next := NewModel()
	next.PdfID = message.PdfID
	next.PageCount = message.Pages
	next.Workflow = workflow.Viewing{}
	next.Board = m.Board
	next.HardwareSync = m.HardwareSync
	next = next.info(fmt.Sprintf("opened %d pages", message.Pages))

	return next, []effect.Effect{
		effect.LoadStudy{PdfID: message.PdfID},
		effect.CancelRender{},
		effect.RenderPage{PdfID: message.PdfID, Page: 0},
		effect.DetectDiagrams{PdfID: message.PdfID, Page: 0},
		effect.StartStatusPoll{Interval: r.Settings.StatusPollInterval},
	}
}

func (r *Reducer) studyLoaded(m Model, message msg.StudyLoaded) (Model, []effect.Effect) {
	if message.PdfID != m.PdfID || !message.Found {
		return m, nil
	}
	// Keep a pending recognition that raced ahead of the load.
	loaded := message.Study
	for _, g := range m.Study.Games {
		if g.Pending {
			loaded = loaded.WithGame(g)
		}
	}
	m.Study = loaded
	return m.info(fmt.Sprintf("loaded %d games", len(loaded.Confirmed()))), nil
}

// save returns the effect persisting the current study.
func (r *Reducer) save(m Model) effect.Effect {
	return effect.SaveStudy{PdfID: m.PdfID, Study: m.Study.Persistable()}
}

// syncBoard returns the effect pushing pl to the board, or a status warning
// when the placement cannot be set up physically.
func (r *Reducer) syncBoard(m Model, pl position.Placement) (Model, []effect.Effect) {
	if err := position.ValidateForBoard(pl); err != nil {
		return m.warn("board not updated: " + errors.StatusText(err)), nil
	}
	return m, []effect.Effect{effect.SetBoardFen{Placement: pl, Force: true}}
}

// goToPage moves to page and requests its raster and diagrams.
func (r *Reducer) goToPage(m Model, page int) (Model, []effect.Effect) {
	if page < 0 || page >= m.PageCount || page == m.Page {
		return m, nil
	}
	m.Page = page
	m.Diagrams = nil
	return m, []effect.Effect{
		effect.CancelRender{},
		effect.RenderPage{PdfID: m.PdfID, Page: page},
		effect.DetectDiagrams{PdfID: m.PdfID, Page: page},
	}
}

// pageMessage handles page responses, which are valid in every state that
// has a PDF.
func (r *Reducer) pageMessage(m Model, message msg.Msg) (Model, []effect.Effect, bool) {
	switch message := message.(type) {
	case msg.PageRendered:
		if message.PdfID != m.PdfID || message.Page != m.Page {
			return m, nil, true
		}
		m.RenderedPage = message.Page
		return m, nil, true
	case msg.PageRenderFailed:
		if message.PdfID != m.PdfID || message.Page != m.Page {
			return m, nil, true
		}
		return m.fail("page render failed: " + errors.StatusText(message.Err)), nil, true
	case msg.DiagramsDetected:
		if message.PdfID != m.PdfID || message.Page != m.Page {
			return m, nil, true
		}
		m.Diagrams = append([]study.BBox(nil), message.Boxes...)
		return m.info(fmt.Sprintf("%d diagrams on page %d", len(message.Boxes), m.Page+1)), nil, true
	case msg.DetectFailed:
		if message.PdfID != m.PdfID || message.Page != m.Page {
			return m, nil, true
		}
		return m.warn("diagram detection failed: " + errors.StatusText(message.Err)), nil, true
	}
	return m, nil, false
}
