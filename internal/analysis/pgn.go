package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Iron-Ham/chessbook/internal/position"
)

// Header is one PGN tag pair.
type Header struct {
	Name  string
	Value string
}

// moveClock tracks numbering while rendering.
type moveClock struct {
	number int
	turn   position.Color
}

func (c moveClock) next() moveClock {
	if c.turn == position.Black {
		return moveClock{number: c.number + 1, turn: position.White}
	}
	return moveClock{number: c.number, turn: position.Black}
}

// label returns the move-number prefix for a move at c. Black moves only get
// one when forced, i.e. at the start of a line or after a comment or
// variation interrupted the flow.
func (c moveClock) label(forced bool) string {
	if c.turn == position.White {
		return strconv.Itoa(c.number) + "."
	}
	if forced {
		return strconv.Itoa(c.number) + "..."
	}
	return ""
}

type pgnWriter struct {
	sb strings.Builder
}

func (w *pgnWriter) token(s string) {
	if s == "" {
		return
	}
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "(") && s != ")" {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteString(s)
}

func (w *pgnWriter) comment(text string) {
	if text == "" {
		return
	}
	// Braces cannot be escaped inside a PGN comment.
	text = strings.NewReplacer("{", "(", "}", ")").Replace(text)
	w.token("{" + text + "}")
}

func (w *pgnWriter) move(n *Node, c moveClock, forced bool) {
	w.token(c.label(forced))
	w.token(n.Move)
	w.comment(n.Comment)
}

// line writes the continuation from n, whose children are to be played at c.
func (w *pgnWriter) line(n *Node, c moveClock, forced bool) {
	for len(n.Children) > 0 {
		main := n.Children[0]
		w.move(main, c, forced)
		forced = main.Comment != ""

		for _, v := range n.Children[1:] {
			w.token("(")
			w.move(v, c, true)
			w.line(v, c.next(), v.Comment != "")
			w.token(")")
			forced = true
		}

		n = main
		c = c.next()
	}
}

// Render returns the PGN movetext of t without a result token. Numbering
// starts from the full-move counter and side to move of t's start position.
func Render(t Tree) string {
	if t.Root == nil {
		return ""
	}
	w := &pgnWriter{}
	w.comment(t.Root.Comment)
	start := moveClock{number: position.FullMoveNumber(t.Start), turn: t.Turn()}
	w.line(t.Root, start, true)
	return w.sb.String()
}

// RenderGame returns a complete PGN game: the given headers, SetUp and FEN
// tags when t does not start from the initial position, and the movetext
// terminated by "*".
func RenderGame(t Tree, headers ...Header) string {
	var sb strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&sb, "[%s %q]\n", h.Name, h.Value)
	}
	if !position.PlacementsEqual(t.Start, position.StartingPosition) || position.Turn(t.Start) != position.White {
		fmt.Fprintf(&sb, "[SetUp %q]\n", "1")
		fmt.Fprintf(&sb, "[FEN %q]\n", string(t.Start))
	}
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	if movetext := Render(t); movetext != "" {
		sb.WriteString(movetext)
		sb.WriteByte(' ')
	}
	sb.WriteString("*\n")
	return sb.String()
}
