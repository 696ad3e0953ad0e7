// Package rules defines the chess rules oracle the rest of chessbook relies
// on for legal-move generation and SAN formatting, along with an Engine
// implementation backed by github.com/notnil/chess.
//
// Nothing outside this package implements chess rules. Move inference, reach
// sessions and analysis trees only ever ask an Oracle which moves are legal
// and what position each one produces.
package rules

import "github.com/Iron-Ham/chessbook/internal/position"

// Move is one legal move from a position.
type Move struct {
	// SAN is the move in standard algebraic notation, e.g. "Nf3" or "exd8=Q+".
	SAN string
	// UCI is the long algebraic form, e.g. "g1f3".
	UCI string
	// Position is the full position after the move.
	Position position.Position
}

// Status describes whether play can continue from a position.
type Status int

// Status values.
const (
	Ongoing Status = iota
	Checkmate
	Stalemate
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// Oracle answers rules questions about full positions. Implementations must
// return moves in a stable order for a given position.
type Oracle interface {
	LegalMoves(p position.Position) ([]Move, error)
	Status(p position.Position) (Status, error)
}
