package position

import (
	"strconv"
	"strings"
)

// Placement is the piece-placement field of a FEN, e.g.
// "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR".
type Placement string

// Position is a complete FEN string.
type Position string

// Color is the side to move.
type Color byte

// Sides.
const (
	White Color = 'w'
	Black Color = 'b'
)

// String returns "w" or "b".
func (c Color) String() string {
	return string(c)
}

// Opposite returns the other side.
func (c Color) Opposite() Color {
	if c == Black {
		return White
	}
	return Black
}

// Square is an algebraic square name such as "e4".
type Square string

// Piece is a FEN piece letter: uppercase for White, lowercase for Black.
type Piece byte

// String returns the FEN letter.
func (p Piece) String() string {
	return string(p)
}

// Color returns the owner of the piece.
func (p Piece) Color() Color {
	if p >= 'a' && p <= 'z' {
		return Black
	}
	return White
}

// Well-known placements and positions.
const (
	StartingPlacement Placement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"
	EmptyPlacement    Placement = "8/8/8/8/8/8/8/8"
	StartingPosition  Position  = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

const files = "abcdefgh"

// IsPieceLetter reports whether c is one of KQRBNP in either case.
func IsPieceLetter(c byte) bool {
	return strings.IndexByte("KQRBNPkqrbnp", c) >= 0
}

// IsSquare reports whether s names a board square.
func IsSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// SquareAt returns the square for a 0-based file (a=0) and 1-based rank.
func SquareAt(file, rank int) Square {
	return Square(string(files[file]) + strconv.Itoa(rank))
}

// ExtractPlacement returns the placement field of p. It never fails: an
// empty position yields an empty placement.
func ExtractPlacement(p Position) Placement {
	s := strings.TrimSpace(string(p))
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return Placement(s[:i])
	}
	return Placement(s)
}

// ToFullPosition builds a Position for pl with turn to move, full castling
// rights, no en passant target and counters "0 1".
func ToFullPosition(pl Placement, turn Color) Position {
	if turn != Black {
		turn = White
	}
	return Position(string(pl) + " " + turn.String() + " KQkq - 0 1")
}

// Placement returns the placement field.
func (p Position) Placement() Placement {
	return ExtractPlacement(p)
}

// field returns the i-th space-separated FEN field, or "" when absent.
func (p Position) field(i int) string {
	fields := strings.Fields(string(p))
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// Turn returns the side to move of p, defaulting to White.
func Turn(p Position) Color {
	if p.field(1) == "b" {
		return Black
	}
	return White
}

// FullMoveNumber returns the full-move counter of p, defaulting to 1.
func FullMoveNumber(p Position) int {
	n, err := strconv.Atoi(p.field(5))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Canonical re-encodes pl with maximal empty-square runs, so that "44/..."
// and "8/..." compare equal. Unparseable input is returned unchanged.
func Canonical(pl Placement) Placement {
	m, err := DecomposeToSquareMap(pl)
	if err != nil {
		return pl
	}
	return ComposeFromSquareMap(m)
}

// PlacementsEqual reports whether a and b have the same piece placement.
// Side to move, castling rights, en passant and counters are ignored.
func PlacementsEqual(a, b Position) bool {
	return SamePlacement(ExtractPlacement(a), ExtractPlacement(b))
}

// SamePlacement compares two placements after canonicalization.
func SamePlacement(a, b Placement) bool {
	if a == b {
		return true
	}
	return Canonical(a) == Canonical(b)
}

// DecomposeToSquareMap returns the occupied squares of pl.
func DecomposeToSquareMap(pl Placement) (map[Square]Piece, error) {
	if _, err := ParsePlacement(string(pl)); err != nil {
		return nil, err
	}

	out := make(map[Square]Piece, 32)
	for i, rank := range strings.Split(strings.TrimSpace(string(pl)), "/") {
		rankNum := 8 - i
		row, err := expandRank(rank, rankNum)
		if err != nil {
			return nil, err
		}
		for file, c := range row {
			if c != '.' {
				out[SquareAt(file, rankNum)] = Piece(c)
			}
		}
	}
	return out, nil
}

// ComposeFromSquareMap encodes a square map as a placement. Entries for
// invalid squares or pieces are ignored.
func ComposeFromSquareMap(m map[Square]Piece) Placement {
	var sb strings.Builder
	for rank := 8; rank >= 1; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p, ok := m[SquareAt(file, rank)]
			if !ok || !IsPieceLetter(byte(p)) {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(byte(p))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 1 {
			sb.WriteByte('/')
		}
	}
	return Placement(sb.String())
}

// WithPiece returns pl with sq set to p, or cleared when p is 0.
func WithPiece(pl Placement, sq Square, p Piece) (Placement, error) {
	m, err := DecomposeToSquareMap(pl)
	if err != nil {
		return pl, err
	}
	if p == 0 {
		delete(m, sq)
	} else {
		m[sq] = p
	}
	return ComposeFromSquareMap(m), nil
}
