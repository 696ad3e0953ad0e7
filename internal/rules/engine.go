package rules

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/position"
)

// Engine is the Oracle implementation used by the application.
type Engine struct{}

// NewEngine returns a ready Engine. It holds no state and is safe for
// concurrent use.
func NewEngine() *Engine {
	return &Engine{}
}

// LegalMoves returns every legal move from p in generation order.
func (e *Engine) LegalMoves(p position.Position) ([]Move, error) {
	pos, err := load(p)
	if err != nil {
		return nil, err
	}

	notation := chess.AlgebraicNotation{}
	valid := pos.ValidMoves()
	moves := make([]Move, 0, len(valid))
	for _, m := range valid {
		next := pos.Update(m)
		moves = append(moves, Move{
			SAN:      notation.Encode(pos, m),
			UCI:      m.String(),
			Position: position.Position(next.String()),
		})
	}
	return moves, nil
}

// Status reports whether p is checkmate, stalemate or still playable.
func (e *Engine) Status(p position.Position) (Status, error) {
	pos, err := load(p)
	if err != nil {
		return Ongoing, err
	}
	switch pos.Status() {
	case chess.Checkmate:
		return Checkmate, nil
	case chess.Stalemate:
		return Stalemate, nil
	default:
		return Ongoing, nil
	}
}

// load converts p to a library position after checking the parts the
// library would otherwise trust blindly.
func load(p position.Position) (*chess.Position, error) {
	parsed, err := position.ParsePosition(string(p))
	if err != nil {
		return nil, err
	}
	squares, err := position.DecomposeToSquareMap(parsed.Placement())
	if err != nil {
		return nil, err
	}
	if err := requireKings(squares); err != nil {
		return nil, err
	}

	fen := sanitizeCastling(parsed, squares)
	opt, err := chess.FEN(string(fen))
	if err != nil {
		return nil, errors.NewValidationError("rules engine rejected position").
			WithField("fen").
			WithValue(string(fen)).
			WithCause(err)
	}
	return chess.NewGame(opt).Position(), nil
}

func requireKings(squares map[position.Square]position.Piece) error {
	var white, black int
	for _, piece := range squares {
		switch piece {
		case 'K':
			white++
		case 'k':
			black++
		}
	}
	if white != 1 || black != 1 {
		return errors.NewValidationError(fmt.Sprintf("position needs one king per side, got %d white and %d black", white, black)).
			WithField("fen")
	}
	return nil
}

// castleHomes lists, per castling right, the king and rook that must still
// stand on their original squares for the right to be meaningful.
var castleHomes = []struct {
	right      byte
	king, rook position.Square
	kp, rp     position.Piece
}{
	{'K', "e1", "h1", 'K', 'R'},
	{'Q', "e1", "a1", 'K', 'R'},
	{'k', "e8", "h8", 'k', 'r'},
	{'q', "e8", "a8", 'k', 'r'},
}

// sanitizeCastling drops castling rights whose king or rook has left its
// home square. Positions built from diagrams always claim KQkq, which would
// otherwise let the library generate castling moves with a missing rook.
func sanitizeCastling(p position.Position, squares map[position.Square]position.Piece) position.Position {
	fields := strings.Fields(string(p))
	rights := ""
	for _, h := range castleHomes {
		if strings.IndexByte(fields[2], h.right) < 0 {
			continue
		}
		if squares[h.king] == h.kp && squares[h.rook] == h.rp {
			rights += string(h.right)
		}
	}
	if rights == "" {
		rights = "-"
	}
	fields[2] = rights
	return position.Position(strings.Join(fields, " "))
}
