package position

import (
	"testing"

	"github.com/Iron-Ham/chessbook/internal/errors"
)

func TestParsePlacement(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
		wantErr  error
	}{
		{name: "starting position", input: string(StartingPlacement)},
		{name: "empty board", input: "8/8/8/8/8/8/8/8"},
		{name: "split runs", input: "4k3/8/8/8/8/8/8/4K3"},
		{name: "surrounding whitespace", input: "  8/8/8/8/8/8/8/8\n"},
		{name: "seven ranks", input: "8/8/8/8/8/8/8", wantCode: CodeInvalidRanks, wantErr: errors.ErrInvalidRanks},
		{name: "nine ranks", input: "8/8/8/8/8/8/8/8/8", wantCode: CodeInvalidRanks, wantErr: errors.ErrInvalidRanks},
		{name: "full fen", input: string(StartingPosition), wantCode: CodeInvalidRanks, wantErr: errors.ErrInvalidRanks},
		{name: "short row", input: "7/8/8/8/8/8/8/8", wantCode: CodeInvalidRow, wantErr: errors.ErrInvalidRow},
		{name: "long row", input: "8/8/8/8/8/8/8/ppppppppp", wantCode: CodeInvalidRow, wantErr: errors.ErrInvalidRow},
		{name: "run overflow", input: "44k/8/8/8/8/8/8/8", wantCode: CodeInvalidRow, wantErr: errors.ErrInvalidRow},
		{name: "zero run", input: "08/8/8/8/8/8/8/8", wantCode: CodeInvalidRow, wantErr: errors.ErrInvalidRow},
		{name: "bad piece", input: "8/8/8/3x4/8/8/8/8", wantCode: CodeInvalidPiece, wantErr: errors.ErrInvalidPiece},
		{name: "empty string", input: "", wantCode: CodeInvalidRanks, wantErr: errors.ErrInvalidRanks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlacement(tt.input)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ParsePlacement(%q) error = %v", tt.input, err)
				}
				return
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("ParsePlacement(%q) error = %v, want *ParseError", tt.input, err)
			}
			if pe.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", pe.Code, tt.wantCode)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantErr)
			}
		})
	}
}

func TestParseError_Rank(t *testing.T) {
	_, err := ParsePlacement("8/8/8/3x4/8/8/8/8")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Rank != 5 {
		t.Errorf("Rank = %d, want 5", pe.Rank)
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Position
		wantErr bool
	}{
		{name: "placement only", input: "8/8/8/8/8/8/8/8", want: "8/8/8/8/8/8/8/8 w - - 0 1"},
		{name: "placement and turn", input: "8/8/8/8/8/8/8/8 b", want: "8/8/8/8/8/8/8/8 b - - 0 1"},
		{name: "complete", input: string(StartingPosition), want: StartingPosition},
		{name: "en passant", input: "8/8/8/8/4P3/8/8/8 b - e3 0 1", want: "8/8/8/8/4P3/8/8/8 b - e3 0 1"},
		{name: "bad turn", input: "8/8/8/8/8/8/8/8 x", wantErr: true},
		{name: "bad castling", input: "8/8/8/8/8/8/8/8 w KK", wantErr: true},
		{name: "bad en passant", input: "8/8/8/8/8/8/8/8 w - z9", wantErr: true},
		{name: "negative clock", input: "8/8/8/8/8/8/8/8 w - - -1 1", wantErr: true},
		{name: "zero fullmove", input: "8/8/8/8/8/8/8/8 w - - 0 0", wantErr: true},
		{name: "too many fields", input: "8/8/8/8/8/8/8/8 w - - 0 1 x", wantErr: true},
		{name: "bad placement", input: "8/8 w - - 0 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePosition(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePosition(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePosition(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePosition(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractPlacement(t *testing.T) {
	tests := []struct {
		input Position
		want  Placement
	}{
		{StartingPosition, StartingPlacement},
		{"8/8/8/8/8/8/8/8", EmptyPlacement},
		{"  8/8/8/8/8/8/8/8 b - - 3 40", EmptyPlacement},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractPlacement(tt.input); got != tt.want {
			t.Errorf("ExtractPlacement(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestToFullPosition(t *testing.T) {
	if got := ToFullPosition(StartingPlacement, White); got != StartingPosition {
		t.Errorf("ToFullPosition(start, w) = %q", got)
	}
	want := Position("8/8/8/8/8/8/8/8 b KQkq - 0 1")
	if got := ToFullPosition(EmptyPlacement, Black); got != want {
		t.Errorf("ToFullPosition(empty, b) = %q, want %q", got, want)
	}
	if got := ToFullPosition(EmptyPlacement, Color('x')); Turn(got) != White {
		t.Errorf("unknown color should default to white, got %q", got)
	}
}

func TestPlacementsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Position
		want bool
	}{
		{"identical", StartingPosition, StartingPosition, true},
		{"castling differs", StartingPosition, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1", true},
		{"counters differ", StartingPosition, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 17 42", true},
		{"turn differs", StartingPosition, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1", true},
		{"non canonical runs", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", "4k12/8/8/8/8/8/8/4K3", true},
		{"placement differs", StartingPosition, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlacementsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("PlacementsEqual() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTurnAndFullMoveNumber(t *testing.T) {
	p := Position("8/8/8/8/8/8/8/8 b - - 0 23")
	if Turn(p) != Black {
		t.Errorf("Turn() = %v, want b", Turn(p))
	}
	if FullMoveNumber(p) != 23 {
		t.Errorf("FullMoveNumber() = %d, want 23", FullMoveNumber(p))
	}
	if Turn("8/8/8/8/8/8/8/8") != White {
		t.Error("missing turn should default to white")
	}
	if FullMoveNumber("8/8/8/8/8/8/8/8 w") != 1 {
		t.Error("missing fullmove should default to 1")
	}
}

func TestDecomposeToSquareMap(t *testing.T) {
	m, err := DecomposeToSquareMap(StartingPlacement)
	if err != nil {
		t.Fatalf("DecomposeToSquareMap() error = %v", err)
	}
	if len(m) != 32 {
		t.Errorf("len = %d, want 32", len(m))
	}
	checks := map[Square]Piece{"e1": 'K', "e8": 'k', "a1": 'R', "h8": 'r', "d2": 'P', "g8": 'n'}
	for sq, want := range checks {
		if m[sq] != want {
			t.Errorf("m[%s] = %q, want %q", sq, m[sq], want)
		}
	}
	if _, ok := m["e4"]; ok {
		t.Error("e4 should be empty")
	}

	if _, err := DecomposeToSquareMap("8/8"); !errors.Is(err, errors.ErrInvalidRanks) {
		t.Errorf("expected INVALID_RANKS, got %v", err)
	}
}

func TestComposeFromSquareMap_RoundTrip(t *testing.T) {
	placements := []Placement{
		StartingPlacement,
		EmptyPlacement,
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R",
		"8/5k2/8/8/3K4/8/8/8",
	}
	for _, pl := range placements {
		m, err := DecomposeToSquareMap(pl)
		if err != nil {
			t.Fatalf("DecomposeToSquareMap(%q) error = %v", pl, err)
		}
		if got := ComposeFromSquareMap(m); got != pl {
			t.Errorf("round trip of %q = %q", pl, got)
		}
	}
}

func TestWithPiece(t *testing.T) {
	got, err := WithPiece(EmptyPlacement, "e4", 'Q')
	if err != nil {
		t.Fatalf("WithPiece() error = %v", err)
	}
	if got != "8/8/8/8/4Q3/8/8/8" {
		t.Errorf("WithPiece() = %q", got)
	}
	cleared, err := WithPiece(got, "e4", 0)
	if err != nil {
		t.Fatalf("WithPiece() error = %v", err)
	}
	if cleared != EmptyPlacement {
		t.Errorf("clearing = %q", cleared)
	}
}

func TestValidateForBoard(t *testing.T) {
	tests := []struct {
		name    string
		input   Placement
		wantErr bool
	}{
		{"starting", StartingPlacement, false},
		{"bare kings", "4k3/8/8/8/8/8/8/4K3", false},
		{"no white king", "4k3/8/8/8/8/8/8/8", true},
		{"two black kings", "3kk3/8/8/8/8/8/8/4K3", true},
		{"pawn on eighth", "P3k3/8/8/8/8/8/8/4K3", true},
		{"pawn on first", "4k3/8/8/8/8/8/8/p3K3", true},
		{"nine pawns", "4k3/8/8/8/8/P7/PPPPPPPP/4K3", true},
		{"malformed", "8/8", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForBoard(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForBoard(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
