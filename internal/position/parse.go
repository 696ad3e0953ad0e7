package position

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Iron-Ham/chessbook/internal/errors"
)

// Code identifies the kind of placement parse failure.
type Code string

// Parse failure codes.
const (
	CodeInvalidRanks Code = "INVALID_RANKS"
	CodeInvalidRow   Code = "INVALID_ROW"
	CodeInvalidPiece Code = "INVALID_PIECE"
	CodeInvalidField Code = "INVALID_FIELD"
)

// ParseError is the tagged error returned by the parsers in this package.
type ParseError struct {
	Code Code
	// Rank is the 1-based board rank (8 is the first FEN row) for row and
	// piece failures, 0 otherwise.
	Rank   int
	Detail string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Rank > 0 {
		return fmt.Sprintf("%s (rank %d): %s", e.Code, e.Rank, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Unwrap maps the code onto the package-level sentinels so callers can use
// errors.Is without importing this package.
func (e *ParseError) Unwrap() error {
	switch e.Code {
	case CodeInvalidRanks:
		return errors.ErrInvalidRanks
	case CodeInvalidRow:
		return errors.ErrInvalidRow
	case CodeInvalidPiece:
		return errors.ErrInvalidPiece
	default:
		return errors.ErrInvalidInput
	}
}

// ParsePlacement validates s as a FEN piece-placement field.
// Surrounding whitespace is ignored; anything after the first space is
// rejected so that a full FEN is never silently accepted as a placement.
func ParsePlacement(s string) (Placement, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, " \t") {
		return "", &ParseError{Code: CodeInvalidRanks, Detail: "placement must not contain spaces"}
	}

	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return "", &ParseError{
			Code:   CodeInvalidRanks,
			Detail: fmt.Sprintf("expected 8 ranks, got %d", len(ranks)),
		}
	}

	for i, rank := range ranks {
		if _, err := expandRank(rank, 8-i); err != nil {
			return "", err
		}
	}
	return Placement(s), nil
}

// expandRank returns the 8 squares of a rank, '.' for empty.
func expandRank(rank string, rankNum int) ([8]byte, error) {
	var row [8]byte
	files := 0
	for i := 0; i < len(rank); i++ {
		c := rank[i]
		switch {
		case c >= '1' && c <= '8':
			n := int(c - '0')
			if files+n > 8 {
				return row, &ParseError{
					Code:   CodeInvalidRow,
					Rank:   rankNum,
					Detail: fmt.Sprintf("rank %q has more than 8 files", rank),
				}
			}
			for j := 0; j < n; j++ {
				row[files] = '.'
				files++
			}
		case IsPieceLetter(c):
			if files >= 8 {
				return row, &ParseError{
					Code:   CodeInvalidRow,
					Rank:   rankNum,
					Detail: fmt.Sprintf("rank %q has more than 8 files", rank),
				}
			}
			row[files] = c
			files++
		case c >= '0' && c <= '9':
			return row, &ParseError{
				Code:   CodeInvalidRow,
				Rank:   rankNum,
				Detail: fmt.Sprintf("invalid run length %q", c),
			}
		default:
			return row, &ParseError{
				Code:   CodeInvalidPiece,
				Rank:   rankNum,
				Detail: fmt.Sprintf("invalid character %q", c),
			}
		}
	}
	if files != 8 {
		return row, &ParseError{
			Code:   CodeInvalidRow,
			Rank:   rankNum,
			Detail: fmt.Sprintf("rank %q has %d files, expected 8", rank, files),
		}
	}
	return row, nil
}

// ParsePosition parses a FEN. Missing trailing fields are filled with
// "w - - 0 1" style defaults; the placement field is parsed strictly.
func ParsePosition(fen string) (Position, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return "", &ParseError{Code: CodeInvalidRanks, Detail: "empty FEN"}
	}
	if len(fields) > 6 {
		return "", &ParseError{Code: CodeInvalidField, Detail: fmt.Sprintf("expected at most 6 fields, got %d", len(fields))}
	}

	placement, err := ParsePlacement(fields[0])
	if err != nil {
		return "", err
	}

	defaults := []string{string(placement), "w", "-", "-", "0", "1"}
	copy(defaults, fields)

	if defaults[1] != "w" && defaults[1] != "b" {
		return "", &ParseError{Code: CodeInvalidField, Detail: fmt.Sprintf("side to move must be w or b, got %q", defaults[1])}
	}
	if !validCastling(defaults[2]) {
		return "", &ParseError{Code: CodeInvalidField, Detail: fmt.Sprintf("invalid castling rights %q", defaults[2])}
	}
	if defaults[3] != "-" && !IsSquare(defaults[3]) {
		return "", &ParseError{Code: CodeInvalidField, Detail: fmt.Sprintf("invalid en passant square %q", defaults[3])}
	}
	if n, err := strconv.Atoi(defaults[4]); err != nil || n < 0 {
		return "", &ParseError{Code: CodeInvalidField, Detail: fmt.Sprintf("invalid halfmove clock %q", defaults[4])}
	}
	if n, err := strconv.Atoi(defaults[5]); err != nil || n < 1 {
		return "", &ParseError{Code: CodeInvalidField, Detail: fmt.Sprintf("invalid fullmove number %q", defaults[5])}
	}

	return Position(strings.Join(defaults, " ")), nil
}

func validCastling(s string) bool {
	if s == "-" {
		return true
	}
	if s == "" || len(s) > 4 {
		return false
	}
	seen := map[rune]bool{}
	for _, r := range s {
		if !strings.ContainsRune("KQkq", r) || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}
