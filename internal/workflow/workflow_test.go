package workflow

import (
	"slices"
	"testing"

	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{NoPDF{}, "NO_PDF"},
		{Viewing{}, "VIEWING"},
		{PendingConfirm{}, "PENDING_CONFIRM"},
		{MatchExisting{}, "MATCH_EXISTING"},
		{Reaching{}, "REACHING"},
		{Analysis{}, "ANALYSIS"},
	}
	for _, tt := range tests {
		if got := tt.state.Kind().String(); got != tt.want {
			t.Errorf("Kind().String() = %q, want %q", got, tt.want)
		}
	}
	if Kind(42).String() != "UNKNOWN" {
		t.Error("unexpected name for unknown kind")
	}
}

func TestActiveGameID(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{NoPDF{}, ""},
		{Viewing{ActiveGameID: "a"}, "a"},
		{PendingConfirm{GameID: "b"}, "b"},
		{MatchExisting{GameID: "c"}, "c"},
		{Reaching{Session: ReachSession{GameID: "d"}}, "d"},
		{Analysis{GameID: "e", AnalysisID: "x"}, "e"},
	}
	for _, tt := range tests {
		if got := ActiveGameID(tt.state); got != tt.want {
			t.Errorf("ActiveGameID(%s) = %q, want %q", tt.state.Kind(), got, tt.want)
		}
	}
}

func TestReachSession_PlayAndUndo(t *testing.T) {
	e4 := rules.Move{SAN: "e4", Position: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"}
	e5 := rules.Move{SAN: "e5", Position: "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"}

	s := NewReachSession("g", e5.Position.Placement(), position.White, position.StartingPosition)
	if s.Reached() {
		t.Fatal("fresh session should not be at the target")
	}
	if s.Turn() != position.White {
		t.Errorf("Turn() = %v", s.Turn())
	}

	s1 := s.Play(e4)
	s2 := s1.Play(e5)
	if !s2.Reached() {
		t.Error("expected target reached after e4 e5")
	}
	if len(s1.Moves) != 1 {
		t.Error("Play modified an earlier session")
	}
	if !slices.Equal(s2.SAN(), []string{"e4", "e5"}) {
		t.Errorf("SAN() = %v", s2.SAN())
	}

	u, ok := s2.Undo()
	if !ok || u.Current != e4.Position || len(u.Moves) != 1 {
		t.Errorf("Undo() = %+v, %v", u, ok)
	}
	u, ok = u.Undo()
	if !ok || u.Current != position.StartingPosition {
		t.Errorf("second Undo() current = %q", u.Current)
	}
	if _, ok := u.Undo(); ok {
		t.Error("Undo on an empty session should report false")
	}
}
