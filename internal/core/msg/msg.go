// Package msg defines the messages the reducer consumes. UI adapters and the
// effect runtime translate raw input and collaborator responses into these
// values; nothing else reaches the reducer.
//
// Responses carry the identifiers of the request they answer (PDF, page,
// game) so the reducer can drop the ones that belong to a context the user
// has already left.
package msg

import (
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/study"
)

// Msg is implemented by every message type in this package.
type Msg interface {
	isMsg()
}

type message struct{}

func (message) isMsg() {}

// --- PDF and study lifecycle ---

// OpenPDF asks to upload and open a PDF file.
type OpenPDF struct {
	message
	Path string
}

// PDFLoaded reports a successful upload.
type PDFLoaded struct {
	message
	PdfID    string
	Pages    int
	HasStudy bool
}

// PDFFailed reports a failed upload.
type PDFFailed struct {
	message
	Path string
	Err  error
}

// StudyLoaded delivers the persisted study for a PDF. Found is false when
// nothing was stored yet.
type StudyLoaded struct {
	message
	PdfID string
	Study study.Study
	Found bool
}

// StudyLoadFailed reports a failed study load.
type StudyLoadFailed struct {
	message
	PdfID string
	Err   error
}

// StudySaveFailed reports a failed study save.
type StudySaveFailed struct {
	message
	PdfID string
	Err   error
}

// --- Pages and diagrams ---

// GoToPage navigates to a 0-based page.
type GoToPage struct {
	message
	Page int
}

// PageRendered reports a finished page raster.
type PageRendered struct {
	message
	PdfID string
	Page  int
	Image []byte
}

// PageRenderFailed reports a failed page raster. Cancellations never
// produce this message.
type PageRenderFailed struct {
	message
	PdfID string
	Page  int
	Err   error
}

// DiagramsDetected delivers the diagram boxes found on a page.
type DiagramsDetected struct {
	message
	PdfID string
	Page  int
	Boxes []study.BBox
}

// DetectFailed reports a failed detection.
type DetectFailed struct {
	message
	PdfID string
	Page  int
	Err   error
}

// DiagramSelected asks to recognize the detected diagram at Index on the
// current page.
type DiagramSelected struct {
	message
	Index int
}

// RecognitionSucceeded delivers a recognized placement.
type RecognitionSucceeded struct {
	message
	PdfID      string
	Page       int
	BBox       study.BBox
	Placement  string
	Confidence float64
}

// RecognitionFailed reports a failed recognition.
type RecognitionFailed struct {
	message
	PdfID string
	Page  int
	BBox  study.BBox
	Err   error
}

// --- Games and continuations ---

// GameSelected activates a confirmed game from the sidebar.
type GameSelected struct {
	message
	GameID string
}

// GameDeleted deletes a game and everything that depends on it.
type GameDeleted struct {
	message
	GameID string
}

// ContinuationAccepted links the active game to the offered candidate.
type ContinuationAccepted struct{ message }

// ContinuationRejected dismisses the offered candidate.
type ContinuationRejected struct{ message }

// StartAnalysisSetup starts choosing how to reach a confirmed game. An
// empty GameID means the active game.
type StartAnalysisSetup struct {
	message
	GameID string
}

// --- Pending confirmation ---

// PieceEdited sets or clears (Piece == 0) a square of the pending diagram.
type PieceEdited struct {
	message
	Square position.Square
	Piece  position.Piece
}

// TurnChosen sets the side to move of the pending diagram.
type TurnChosen struct {
	message
	Turn position.Color
}

// ConfirmPieces accepts the pending diagram.
type ConfirmPieces struct{ message }

// DiscardPending drops the pending diagram.
type DiscardPending struct{ message }

// --- Match existing ---

// MatchChoice is how a confirmed game should be reached.
type MatchChoice int

// Match choices.
const (
	// NewFromStart reaches the diagram from the initial position.
	NewFromStart MatchChoice = iota
	// FromDiagram starts analysis directly at the diagram.
	FromDiagram
	// ContinueExisting extends an existing analysis from its main line end.
	ContinueExisting
)

// MatchChosen picks how to reach the game. AnalysisID is required for
// ContinueExisting.
type MatchChosen struct {
	message
	Choice     MatchChoice
	AnalysisID string
}

// --- Moves ---

// MoveEntered is a move typed by the user.
type MoveEntered struct {
	message
	SAN string
}

// PlacementObserved is a placement produced outside the reducer, e.g. a
// piece dropped on the board widget.
type PlacementObserved struct {
	message
	Placement position.Placement
}

// RequestMoveText asks for the move text printed near the diagram.
type RequestMoveText struct{ message }

// MovesExtracted delivers move text for a game's diagram.
type MovesExtracted struct {
	message
	GameID  string
	PdfText string
	OcrText string
}

// MoveExtractionFailed reports a failed move-text extraction.
type MoveExtractionFailed struct {
	message
	GameID string
	Err    error
}

// UndoReachMove takes back the last move while reaching.
type UndoReachMove struct{ message }

// Cancel leaves the current workflow for VIEWING.
type Cancel struct{ message }

// --- Analysis ---

// Direction is a cursor movement in the tree.
type Direction int

// Directions.
const (
	Back Direction = iota
	Forward
	ToStart
	ToEnd
	NextVariation
	PrevVariation
)

// Navigate moves the analysis cursor.
type Navigate struct {
	message
	Direction Direction
}

// DeleteNode deletes the node under the cursor.
type DeleteNode struct{ message }

// PromoteNode makes the node under the cursor the main line.
type PromoteNode struct{ message }

// SetComment sets the comment of the node under the cursor.
type SetComment struct {
	message
	Text string
}

// CopyPGN copies the current analysis as PGN.
type CopyPGN struct{ message }

// ToggleHardwareSync turns physical board sync on or off.
type ToggleHardwareSync struct{ message }

// CloseAnalysis leaves ANALYSIS for VIEWING.
type CloseAnalysis struct{ message }

// --- Physical board ---

// BoardStatusReceived is the result of a board status poll.
type BoardStatusReceived struct {
	message
	Available bool
	Connected bool
}

// BoardFenReceived is the result of a board position poll.
type BoardFenReceived struct {
	message
	Position position.Position
}

// BoardError reports a failed board call.
type BoardError struct {
	message
	Err error
}
