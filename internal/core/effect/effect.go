// Package effect defines the side effects the reducer asks for. Effects are
// plain values; the runtime performs them and feeds the outcome back as
// messages.
package effect

import (
	"time"

	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/study"
)

// Effect is implemented by every effect type in this package.
type Effect interface {
	// Kind is a stable name used for logging and metrics.
	Kind() string
}

// UploadPDF uploads a local PDF.
type UploadPDF struct {
	Path string
}

// LoadStudy loads the persisted study for a PDF.
type LoadStudy struct {
	PdfID string
}

// SaveStudy persists a study.
type SaveStudy struct {
	PdfID string
	Study study.Study
}

// RenderPage rasters a page. Any render in flight is cancelled first.
type RenderPage struct {
	PdfID string
	Page  int
}

// CancelRender cancels the render in flight, if any.
type CancelRender struct{}

// DetectDiagrams finds diagram boxes on a page.
type DetectDiagrams struct {
	PdfID string
	Page  int
}

// Recognize recognizes the placement inside a box.
type Recognize struct {
	PdfID string
	Page  int
	BBox  study.BBox
}

// ExtractMoves fetches the move text around a game's diagram.
type ExtractMoves struct {
	PdfID  string
	Page   int
	BBox   study.BBox
	GameID string
}

// StartStatusPoll starts (or restarts) the board status poll.
type StartStatusPoll struct {
	Interval time.Duration
}

// StartBoardPoll starts (or restarts) the board position poll.
type StartBoardPoll struct {
	Interval time.Duration
}

// StopBoardPoll stops the board position poll.
type StopBoardPoll struct{}

// SetBoardFen pushes a placement to the physical board.
type SetBoardFen struct {
	Placement position.Placement
	Force     bool
}

// CopyToClipboard writes text to the clipboard.
type CopyToClipboard struct {
	Text string
}

func (UploadPDF) Kind() string       { return "upload_pdf" }
func (LoadStudy) Kind() string       { return "load_study" }
func (SaveStudy) Kind() string       { return "save_study" }
func (RenderPage) Kind() string      { return "render_page" }
func (CancelRender) Kind() string    { return "cancel_render" }
func (DetectDiagrams) Kind() string  { return "detect_diagrams" }
func (Recognize) Kind() string       { return "recognize" }
func (ExtractMoves) Kind() string    { return "extract_moves" }
func (StartStatusPoll) Kind() string { return "start_status_poll" }
func (StartBoardPoll) Kind() string  { return "start_board_poll" }
func (StopBoardPoll) Kind() string   { return "stop_board_poll" }
func (SetBoardFen) Kind() string     { return "set_board_fen" }
func (CopyToClipboard) Kind() string { return "copy_to_clipboard" }
