// Package inference works out which move was played from an observed change
// of placement, by trying every legal move the rules oracle offers and
// keeping the first whose result matches the observation.
//
// The same search drives physical-board sync (a polled placement is matched
// against the current position) and move-text resolution (untrusted tokens
// are applied toward a known target placement).
package inference

import (
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
)

// Outcome classifies an inference attempt.
type Outcome int

// Outcomes.
const (
	// NoChange means the observed placement equals the reference.
	NoChange Outcome = iota
	// Matched means exactly one move (the first in generation order)
	// explains the observation.
	Matched
	// NoMatch means no single legal move explains the observation. Callers
	// ignore it and keep polling.
	NoMatch
)

// String returns the outcome name used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case NoChange:
		return "no_change"
	case Matched:
		return "matched"
	case NoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// Result is the outcome of InferMove. Move is set only when Outcome is
// Matched.
type Result struct {
	Outcome Outcome
	Move    rules.Move
}

// InferMove finds the move that turns p0 into the observed placement. An
// unexplained observation is reported as NoMatch, not as an error; errors
// come only from the oracle.
func InferMove(o rules.Oracle, p0 position.Position, observed position.Placement) (Result, error) {
	if position.SamePlacement(p0.Placement(), observed) {
		return Result{Outcome: NoChange}, nil
	}
	moves, err := o.LegalMoves(p0)
	if err != nil {
		return Result{}, err
	}
	for _, m := range moves {
		if position.SamePlacement(m.Position.Placement(), observed) {
			return Result{Outcome: Matched, Move: m}, nil
		}
	}
	return Result{Outcome: NoMatch}, nil
}
