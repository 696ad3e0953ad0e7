package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/position"
)

// treeJSON is the persisted shape of a Tree.
type treeJSON struct {
	Start string    `json:"start"`
	Root  *nodeJSON `json:"root"`
}

type nodeJSON struct {
	Position string      `json:"position"`
	Move     *string     `json:"move"`
	Comment  string      `json:"comment"`
	Children []*nodeJSON `json:"children"`
}

func toJSON(n *Node) *nodeJSON {
	out := &nodeJSON{
		Position: string(n.Position),
		Comment:  n.Comment,
		Children: make([]*nodeJSON, 0, len(n.Children)),
	}
	if n.Move != "" {
		move := n.Move
		out.Move = &move
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toJSON(c))
	}
	return out
}

func fromJSON(n *nodeJSON, root bool, path Path) (*Node, error) {
	if n == nil {
		return nil, errors.NewValidationError("missing node").WithField(path.String())
	}
	switch {
	case root && n.Move != nil:
		return nil, errors.NewValidationError("root node must not have a move").WithField("root.move")
	case !root && (n.Move == nil || *n.Move == ""):
		return nil, errors.NewValidationError("node has no move").WithField(path.String())
	}
	if _, err := position.ParsePosition(n.Position); err != nil {
		return nil, errors.NewValidationError("invalid node position").
			WithField(path.String()).
			WithValue(n.Position).
			WithCause(err)
	}

	out := &Node{Position: position.Position(n.Position), Comment: n.Comment}
	if n.Move != nil {
		out.Move = *n.Move
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, 0, len(n.Children))
	}
	for _, c := range n.Children {
		if c != nil && c.Move != nil {
			if dup, _ := out.Child(*c.Move); dup != nil {
				return nil, errors.NewValidationError(fmt.Sprintf("duplicate move %q", *c.Move)).WithField(path.String())
			}
		}
		var childPath Path
		if c != nil && c.Move != nil {
			childPath = path.Append(*c.Move)
		}
		child, err := fromJSON(c, false, childPath)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

// MarshalJSON encodes the tree as {"start": fen, "root": node}.
func (t Tree) MarshalJSON() ([]byte, error) {
	if t.Root == nil {
		return []byte("null"), nil
	}
	return json.Marshal(treeJSON{Start: string(t.Start), Root: toJSON(t.Root)})
}

// UnmarshalJSON decodes and validates a tree.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Root == nil && raw.Start == "" {
		*t = Tree{}
		return nil
	}
	if _, err := position.ParsePosition(raw.Start); err != nil {
		return errors.NewValidationError("invalid start position").WithField("start").WithValue(raw.Start).WithCause(err)
	}
	root, err := fromJSON(raw.Root, true, Path{})
	if err != nil {
		return err
	}
	*t = Tree{Start: position.Position(raw.Start), Root: root}
	return nil
}

// Marshal encodes t for persistence.
func Marshal(t Tree) ([]byte, error) {
	return json.Marshal(t)
}

// Unmarshal decodes a tree written by Marshal.
func Unmarshal(data []byte) (Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return Tree{}, errors.Wrap(err, "decode analysis tree")
	}
	return t, nil
}
