// Package analysis implements the move-variation tree built for each
// analyzed diagram.
//
// A Tree is an immutable value. Every operation that changes it returns a
// new Tree that shares all untouched nodes with the old one, so a Tree held
// by one component can never change underneath it. Nodes are addressed by
// Path, the list of SAN moves from the root, rather than by pointer: a path
// stays meaningful across versions of a tree and serializes trivially.
//
// Children order is significant. Index 0 is the main line and later indices
// are variations in creation order unless one was promoted.
package analysis

import (
	"slices"
	"strings"

	"github.com/Iron-Ham/chessbook/internal/position"
)

// Node is one position in the tree. Nodes reachable from a Tree must not be
// modified; use the package functions to derive new trees instead.
type Node struct {
	Position position.Position
	// Move is the SAN that led here; empty only at the root.
	Move     string
	Comment  string
	Children []*Node
}

// Child returns the child reached by san and its index.
func (n *Node) Child(san string) (*Node, int) {
	for i, c := range n.Children {
		if c.Move == san {
			return c, i
		}
	}
	return nil, -1
}

// clone returns a shallow copy of n with its own Children slice.
func (n *Node) clone() *Node {
	cp := *n
	cp.Children = slices.Clone(n.Children)
	return &cp
}

// Tree is an analysis rooted at a start position.
type Tree struct {
	Start position.Position
	Root  *Node
}

// New creates a tree whose root is start.
func New(start position.Position) Tree {
	return Tree{Start: start, Root: &Node{Position: start}}
}

// Turn returns the side to move at the start of the tree.
func (t Tree) Turn() position.Color {
	return position.Turn(t.Start)
}

// IsZero reports whether t was never initialized.
func (t Tree) IsZero() bool {
	return t.Root == nil
}

// Path addresses a node by the SAN moves leading to it from the root.
type Path []string

// Append returns a new path extended by san. The receiver is never aliased.
func (p Path) Append(san string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, san)
}

// Equal reports whether p and o name the same node.
func (p Path) Equal(o Path) bool {
	return slices.Equal(p, o)
}

// String renders the path as space-separated SAN, or "(root)".
func (p Path) String() string {
	if len(p) == 0 {
		return "(root)"
	}
	return strings.Join(p, " ")
}

// Resolve returns the node at p.
func Resolve(t Tree, p Path) (*Node, bool) {
	if t.Root == nil {
		return nil, false
	}
	n := t.Root
	for _, san := range p {
		child, _ := n.Child(san)
		if child == nil {
			return nil, false
		}
		n = child
	}
	return n, true
}

// rewrite copies the nodes along p and replaces the node at p with the
// result of fn. Nodes off the path are shared with t.
func rewrite(t Tree, p Path, fn func(n *Node) *Node) (Tree, bool) {
	if t.Root == nil {
		return t, false
	}
	root, ok := rewriteNode(t.Root, p, fn)
	if !ok {
		return t, false
	}
	return Tree{Start: t.Start, Root: root}, true
}

func rewriteNode(n *Node, p Path, fn func(n *Node) *Node) (*Node, bool) {
	if len(p) == 0 {
		return fn(n), true
	}
	child, idx := n.Child(p[0])
	if child == nil {
		return nil, false
	}
	replaced, ok := rewriteNode(child, p[1:], fn)
	if !ok {
		return nil, false
	}
	cp := n.clone()
	cp.Children[idx] = replaced
	return cp, true
}

// Insert plays san from the node at cursor, reaching pos. An existing child
// with the same move is reused, so inserting twice yields an equal tree.
// The returned cursor is cursor+[san]; when cursor does not resolve the tree
// and cursor are returned unchanged.
func Insert(t Tree, cursor Path, san string, pos position.Position) (Tree, Path) {
	n, ok := Resolve(t, cursor)
	if !ok || san == "" {
		return t, cursor
	}
	next := cursor.Append(san)
	if child, _ := n.Child(san); child != nil {
		return t, next
	}
	out, _ := rewrite(t, cursor, func(n *Node) *Node {
		cp := n.clone()
		cp.Children = append(cp.Children, &Node{Position: pos, Move: san})
		return cp
	})
	return out, next
}

// Parent drops the last move of p. It reports false at the root.
func Parent(p Path) (Path, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return slices.Clone(p[:len(p)-1]), true
}

// MainlineChild returns the first child of the node at p.
func MainlineChild(t Tree, p Path) (Path, bool) {
	n, ok := Resolve(t, p)
	if !ok || len(n.Children) == 0 {
		return nil, false
	}
	return p.Append(n.Children[0].Move), true
}

// MainlineEnd follows first children from p to a leaf.
func MainlineEnd(t Tree, p Path) Path {
	n, ok := Resolve(t, p)
	if !ok {
		return p
	}
	out := slices.Clone(p)
	for len(n.Children) > 0 {
		n = n.Children[0]
		out = append(out, n.Move)
	}
	return out
}

// NextSibling returns the variation after p at the same depth. It does not
// wrap around.
func NextSibling(t Tree, p Path) (Path, bool) {
	return sibling(t, p, 1)
}

// PrevSibling returns the variation before p at the same depth. It does not
// wrap around.
func PrevSibling(t Tree, p Path) (Path, bool) {
	return sibling(t, p, -1)
}

func sibling(t Tree, p Path, step int) (Path, bool) {
	parentPath, ok := Parent(p)
	if !ok {
		return nil, false
	}
	parent, ok := Resolve(t, parentPath)
	if !ok {
		return nil, false
	}
	_, idx := parent.Child(p[len(p)-1])
	if idx < 0 {
		return nil, false
	}
	j := idx + step
	if j < 0 || j >= len(parent.Children) {
		return nil, false
	}
	return parentPath.Append(parent.Children[j].Move), true
}

// Delete removes the node at p with its subtree. The new cursor is the first
// remaining sibling, or the parent when none remain. The root cannot be
// deleted.
func Delete(t Tree, p Path) (Tree, Path, bool) {
	parentPath, ok := Parent(p)
	if !ok {
		return t, p, false
	}
	if _, ok := Resolve(t, p); !ok {
		return t, p, false
	}

	san := p[len(p)-1]
	var remaining []*Node
	out, _ := rewrite(t, parentPath, func(n *Node) *Node {
		cp := n.clone()
		cp.Children = slices.DeleteFunc(cp.Children, func(c *Node) bool { return c.Move == san })
		remaining = cp.Children
		return cp
	})

	if len(remaining) > 0 {
		return out, parentPath.Append(remaining[0].Move), true
	}
	return out, parentPath, true
}

// Promote makes the node at p the main line among its siblings. The other
// siblings keep their relative order. It is refused at the root and for a
// node that is already first.
func Promote(t Tree, p Path) (Tree, bool) {
	parentPath, ok := Parent(p)
	if !ok {
		return t, false
	}
	parent, ok := Resolve(t, parentPath)
	if !ok {
		return t, false
	}
	_, idx := parent.Child(p[len(p)-1])
	if idx <= 0 {
		return t, false
	}
	return rewrite(t, parentPath, func(n *Node) *Node {
		cp := n.clone()
		promoted := cp.Children[idx]
		cp.Children = slices.Delete(cp.Children, idx, idx+1)
		cp.Children = slices.Insert(cp.Children, 0, promoted)
		return cp
	})
}

// SetComment replaces the comment on the node at p.
func SetComment(t Tree, p Path, text string) (Tree, bool) {
	text = strings.TrimSpace(text)
	n, ok := Resolve(t, p)
	if !ok || n.Comment == text {
		return t, ok
	}
	return rewrite(t, p, func(n *Node) *Node {
		cp := n.clone()
		cp.Comment = text
		return cp
	})
}

// Walk visits nodes breadth-first from the root, main line before
// variations, until fn returns true or budget nodes have been visited. A
// budget of zero or less means no limit. Walk reports whether fn stopped it.
func Walk(t Tree, budget int, fn func(p Path, n *Node) bool) bool {
	if t.Root == nil {
		return false
	}
	type item struct {
		path Path
		node *Node
	}
	queue := []item{{path: Path{}, node: t.Root}}
	visited := 0
	for len(queue) > 0 {
		if budget > 0 && visited >= budget {
			return false
		}
		it := queue[0]
		queue = queue[1:]
		visited++
		if fn(it.path, it.node) {
			return true
		}
		for _, c := range it.node.Children {
			queue = append(queue, item{path: it.path.Append(c.Move), node: c})
		}
	}
	return false
}

// FindPlacement returns the shallowest path whose position has placement pl,
// visiting at most budget nodes.
func FindPlacement(t Tree, pl position.Placement, budget int) (Path, bool) {
	var found Path
	ok := Walk(t, budget, func(p Path, n *Node) bool {
		if position.SamePlacement(n.Position.Placement(), pl) {
			found = p
			return true
		}
		return false
	})
	return found, ok
}

// Size returns the number of nodes in t.
func Size(t Tree) int {
	count := 0
	Walk(t, 0, func(Path, *Node) bool {
		count++
		return false
	})
	return count
}

// Equal reports whether a and b have the same start and structurally equal
// nodes.
func Equal(a, b Tree) bool {
	if a.Start != b.Start {
		return false
	}
	return nodesEqual(a.Root, b.Root)
}

func nodesEqual(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Position != b.Position || a.Move != b.Move || a.Comment != b.Comment {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !nodesEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
