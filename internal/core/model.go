package core

import (
	"time"

	"github.com/Iron-Ham/chessbook/internal/continuation"
	"github.com/Iron-Ham/chessbook/internal/study"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

// Level is the severity of the status line.
type Level int

// Status levels.
const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// BoardStatus is the last known state of the physical board service.
type BoardStatus struct {
	Available bool
	Connected bool
}

// Model is the complete application state. It is a value: Update returns a
// new Model and never modifies the one it was given.
type Model struct {
	PdfID     string
	PageCount int
	// Page is the 0-based page being viewed.
	Page int
	// RenderedPage is the last page whose raster arrived, -1 for none.
	RenderedPage int
	// Diagrams are the boxes detected on Page.
	Diagrams []study.BBox

	Study    study.Study
	Workflow workflow.State

	Board        BoardStatus
	HardwareSync bool

	Status      string
	StatusLevel Level
}

// NewModel returns the initial model.
func NewModel() Model {
	return Model{Workflow: workflow.NoPDF{}, RenderedPage: -1}
}

// Settings are the reducer's tunables.
type Settings struct {
	// MinConfidence is the recognition confidence below which the user is
	// warned to double check the pieces.
	MinConfidence float64
	// ContinuationBudget caps the nodes searched per tree.
	ContinuationBudget int
	// StatusPollInterval and BoardPollInterval drive the board polls.
	StatusPollInterval time.Duration
	BoardPollInterval  time.Duration
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		MinConfidence:      0.85,
		ContinuationBudget: continuation.DefaultBudget,
		StatusPollInterval: 5 * time.Second,
		BoardPollInterval:  500 * time.Millisecond,
	}
}

func (m Model) withStatus(level Level, text string) Model {
	m.Status = text
	m.StatusLevel = level
	return m
}

func (m Model) info(text string) Model { return m.withStatus(LevelInfo, text) }
func (m Model) warn(text string) Model { return m.withStatus(LevelWarn, text) }
func (m Model) fail(text string) Model { return m.withStatus(LevelError, text) }
