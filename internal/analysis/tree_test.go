package analysis

import (
	"testing"

	"github.com/Iron-Ham/chessbook/internal/position"
)

const (
	afterE4   position.Position = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	afterD4   position.Position = "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 1"
	afterC4   position.Position = "rnbqkbnr/pppppppp/8/8/2P5/8/PP1PPPPP/RNBQKBNR b KQkq c3 0 1"
	afterE4E5 position.Position = "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"
	afterE4C5 position.Position = "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 2"
)

// sample builds 1. e4 e5 (1... c5) (1. d4) (1. c4).
func sample(t *testing.T) Tree {
	t.Helper()
	tree := New(position.StartingPosition)
	tree, cur := Insert(tree, nil, "e4", afterE4)
	tree, _ = Insert(tree, cur, "e5", afterE4E5)
	tree, _ = Insert(tree, cur, "c5", afterE4C5)
	tree, _ = Insert(tree, nil, "d4", afterD4)
	tree, _ = Insert(tree, nil, "c4", afterC4)
	return tree
}

func childMoves(t *testing.T, tree Tree, p Path) []string {
	t.Helper()
	n, ok := Resolve(tree, p)
	if !ok {
		t.Fatalf("path %v does not resolve", p)
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Move)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	tree := New(position.StartingPosition)
	if tree.Root.Move != "" {
		t.Errorf("root move = %q, want empty", tree.Root.Move)
	}
	if tree.Root.Position != position.StartingPosition {
		t.Errorf("root position = %q", tree.Root.Position)
	}
	if tree.Turn() != position.White {
		t.Errorf("Turn() = %v", tree.Turn())
	}
	if (Tree{}).IsZero() != true || tree.IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestInsert_MainlineScenario(t *testing.T) {
	tree := New(position.StartingPosition)

	tree, cur := Insert(tree, nil, "e4", afterE4)
	if !cur.Equal(Path{"e4"}) {
		t.Fatalf("cursor = %v, want [e4]", cur)
	}
	if got := childMoves(t, tree, nil); !equalStrings(got, []string{"e4"}) {
		t.Fatalf("children = %v", got)
	}

	again, cur2 := Insert(tree, nil, "e4", afterE4)
	if !Equal(again, tree) {
		t.Error("re-inserting e4 changed the tree")
	}
	if !cur2.Equal(cur) {
		t.Errorf("cursor after re-insert = %v, want %v", cur2, cur)
	}

	tree, cur = Insert(again, nil, "d4", afterD4)
	if got := childMoves(t, tree, nil); !equalStrings(got, []string{"e4", "d4"}) {
		t.Fatalf("children = %v, want [e4 d4]", got)
	}
	if main, _ := MainlineChild(tree, nil); !main.Equal(Path{"e4"}) {
		t.Errorf("mainline = %v, want [e4]", main)
	}

	tree, ok := Promote(tree, cur)
	if !ok {
		t.Fatal("Promote(d4) refused")
	}
	if got := childMoves(t, tree, nil); !equalStrings(got, []string{"d4", "e4"}) {
		t.Errorf("children after promote = %v, want [d4 e4]", got)
	}
}

func TestInsert_DoesNotMutateOriginal(t *testing.T) {
	before := New(position.StartingPosition)
	after, _ := Insert(before, nil, "e4", afterE4)
	if len(before.Root.Children) != 0 {
		t.Error("Insert mutated the original tree")
	}
	if len(after.Root.Children) != 1 {
		t.Error("Insert did not add a child")
	}

	base := sample(t)
	snapshot := Render(base)
	_, _ = Insert(base, Path{"e4", "e5"}, "Nf3", "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2")
	_, _, _ = Delete(base, Path{"d4"})
	_, _ = Promote(base, Path{"c4"})
	if Render(base) != snapshot {
		t.Error("operations on a derived tree changed the base tree")
	}
}

func TestInsert_InvalidCursor(t *testing.T) {
	tree := New(position.StartingPosition)
	out, cur := Insert(tree, Path{"Nf3"}, "e5", afterE4E5)
	if !Equal(out, tree) || !cur.Equal(Path{"Nf3"}) {
		t.Error("Insert at a missing cursor should be a no-op")
	}
}

func TestParent(t *testing.T) {
	if _, ok := Parent(nil); ok {
		t.Error("root has no parent")
	}
	p := Path{"e4", "e5"}
	got, ok := Parent(p)
	if !ok || !got.Equal(Path{"e4"}) {
		t.Errorf("Parent() = %v, %v", got, ok)
	}
	got = append(got, "c5")
	if p[1] != "e5" {
		t.Error("Parent result aliases the input")
	}
}

func TestMainlineChildAndEnd(t *testing.T) {
	tree := sample(t)
	if _, ok := MainlineChild(tree, Path{"e4", "e5"}); ok {
		t.Error("leaf should have no mainline child")
	}
	if got := MainlineEnd(tree, nil); !got.Equal(Path{"e4", "e5"}) {
		t.Errorf("MainlineEnd() = %v", got)
	}
}

func TestSiblings(t *testing.T) {
	tree := sample(t)

	tests := []struct {
		name   string
		from   Path
		next   bool
		want   Path
		wantOK bool
	}{
		{"first to second", Path{"e4"}, true, Path{"d4"}, true},
		{"second to third", Path{"d4"}, true, Path{"c4"}, true},
		{"last does not wrap", Path{"c4"}, true, nil, false},
		{"first has no previous", Path{"e4"}, false, nil, false},
		{"third to second", Path{"c4"}, false, Path{"d4"}, true},
		{"root has no siblings", nil, true, nil, false},
		{"nested", Path{"e4", "e5"}, true, Path{"e4", "c5"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Path
			var ok bool
			if tt.next {
				got, ok = NextSibling(tree, tt.from)
			} else {
				got, ok = PrevSibling(tree, tt.from)
			}
			if ok != tt.wantOK || (ok && !got.Equal(tt.want)) {
				t.Errorf("got %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		path       Path
		wantCursor Path
		wantRoot   []string
	}{
		{"mainline goes to first remaining sibling", Path{"e4"}, Path{"d4"}, []string{"d4", "c4"}},
		{"variation goes to first sibling", Path{"c4"}, Path{"e4"}, []string{"e4", "d4"}},
		{"nested mainline goes to remaining variation", Path{"e4", "e5"}, Path{"e4", "c5"}, []string{"e4", "d4", "c4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, cur, ok := Delete(sample(t), tt.path)
			if !ok {
				t.Fatal("Delete refused")
			}
			if !cur.Equal(tt.wantCursor) {
				t.Errorf("cursor = %v, want %v", cur, tt.wantCursor)
			}
			if got := childMoves(t, out, nil); !equalStrings(got, tt.wantRoot) {
				t.Errorf("root children = %v, want %v", got, tt.wantRoot)
			}
			if _, ok := Resolve(out, tt.path); ok {
				t.Error("deleted path still resolves")
			}
		})
	}
}

func TestDelete_LastChildFallsBackToParent(t *testing.T) {
	tree := New(position.StartingPosition)
	tree, cur := Insert(tree, nil, "e4", afterE4)
	tree, cur = Insert(tree, cur, "e5", afterE4E5)

	out, next, ok := Delete(tree, cur)
	if !ok {
		t.Fatal("Delete refused")
	}
	if !next.Equal(Path{"e4"}) {
		t.Errorf("cursor = %v, want [e4]", next)
	}
	if Size(out) != 2 {
		t.Errorf("Size() = %d, want 2", Size(out))
	}
}

func TestDelete_Root(t *testing.T) {
	tree := sample(t)
	out, cur, ok := Delete(tree, nil)
	if ok {
		t.Error("deleting the root must be refused")
	}
	if !Equal(out, tree) || len(cur) != 0 {
		t.Error("refused delete changed state")
	}
	if _, _, ok := Delete(tree, Path{"h4"}); ok {
		t.Error("deleting a missing path must be refused")
	}
}

func TestPromote(t *testing.T) {
	tree := sample(t)

	out, ok := Promote(tree, Path{"c4"})
	if !ok {
		t.Fatal("Promote refused")
	}
	if got := childMoves(t, out, nil); !equalStrings(got, []string{"c4", "e4", "d4"}) {
		t.Errorf("children = %v, want [c4 e4 d4]", got)
	}
	if main, _ := MainlineChild(out, nil); !main.Equal(Path{"c4"}) {
		t.Errorf("mainline = %v", main)
	}

	if _, ok := Promote(out, Path{"c4"}); ok {
		t.Error("promoting the first child must be refused")
	}
	if _, ok := Promote(out, nil); ok {
		t.Error("promoting the root must be refused")
	}
}

func TestSetComment(t *testing.T) {
	tree := sample(t)
	out, ok := SetComment(tree, Path{"e4"}, "  best by test ")
	if !ok {
		t.Fatal("SetComment refused")
	}
	n, _ := Resolve(out, Path{"e4"})
	if n.Comment != "best by test" {
		t.Errorf("Comment = %q", n.Comment)
	}
	if orig, _ := Resolve(tree, Path{"e4"}); orig.Comment != "" {
		t.Error("SetComment mutated the original")
	}
	if _, ok := SetComment(tree, Path{"a4"}, "x"); ok {
		t.Error("SetComment on a missing path should fail")
	}
}

func TestWalk_BreadthFirstWithBudget(t *testing.T) {
	tree := sample(t)

	var order []string
	Walk(tree, 0, func(p Path, n *Node) bool {
		order = append(order, p.String())
		return false
	})
	want := []string{"(root)", "e4", "d4", "c4", "e4 e5", "e4 c5"}
	if !equalStrings(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	visited := 0
	stopped := Walk(tree, 3, func(Path, *Node) bool {
		visited++
		return false
	})
	if stopped || visited != 3 {
		t.Errorf("budgeted walk visited %d, stopped %v", visited, stopped)
	}
}

func TestFindPlacement(t *testing.T) {
	tree := sample(t)
	p, ok := FindPlacement(tree, afterE4C5.Placement(), 0)
	if !ok || !p.Equal(Path{"e4", "c5"}) {
		t.Errorf("FindPlacement() = %v, %v", p, ok)
	}
	if _, ok := FindPlacement(tree, afterE4C5.Placement(), 4); ok {
		t.Error("match beyond the budget must not be found")
	}
}
