package position

import (
	"fmt"

	"github.com/Iron-Ham/chessbook/internal/errors"
)

// maxPieceCounts bounds each piece type, allowing for promotions.
var maxPieceCounts = map[Piece]int{
	'K': 1, 'k': 1,
	'Q': 9, 'q': 9,
	'R': 10, 'r': 10,
	'B': 10, 'b': 10,
	'N': 10, 'n': 10,
	'P': 8, 'p': 8,
}

// ValidateForBoard checks that pl is a position a physical board can be set
// to: exactly one king per side, no more pieces of a type than promotion
// allows, and no pawns on the first or last rank.
func ValidateForBoard(pl Placement) error {
	squares, err := DecomposeToSquareMap(pl)
	if err != nil {
		return err
	}

	counts := make(map[Piece]int, 12)
	for sq, p := range squares {
		counts[p]++
		if (p == 'P' || p == 'p') && (sq[1] == '1' || sq[1] == '8') {
			return errors.NewValidationError("pawns cannot be on the 1st or 8th rank").
				WithField("placement").
				WithValue(string(sq))
		}
	}

	for _, king := range []Piece{'K', 'k'} {
		if counts[king] != 1 {
			return errors.NewValidationError(fmt.Sprintf("must have exactly 1 %s king, got %d", colorName(king), counts[king])).
				WithField("placement")
		}
	}

	for _, p := range []Piece{'Q', 'q', 'R', 'r', 'B', 'b', 'N', 'n', 'P', 'p'} {
		if counts[p] > maxPieceCounts[p] {
			return errors.NewValidationError(fmt.Sprintf("too many %c pieces: %d > %d", p, counts[p], maxPieceCounts[p])).
				WithField("placement")
		}
	}
	return nil
}

func colorName(p Piece) string {
	if p.Color() == White {
		return "white"
	}
	return "black"
}
