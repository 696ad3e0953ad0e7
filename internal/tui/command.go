package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/position"
)

// errQuit is returned by parseCommand for :quit.
var errQuit = fmt.Errorf("quit")

// commandHelp lists the : commands.
var commandHelp = []string{
	"open <file.pdf>",
	"goto <page>",
	"move <san>",
	"edit <square> <piece>",
	"clear <square>",
	"comment <text>",
	"analyze",
	"sync",
	"quit",
}

// parseCommand turns a : command line into a message.
func parseCommand(line string) (msg.Msg, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(name) {
	case "open", "o":
		if rest == "" {
			return nil, fmt.Errorf("usage: open <file.pdf>")
		}
		return msg.OpenPDF{Path: rest}, nil

	case "goto", "page", "p":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: goto <page>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page %q", args[0])
		}
		return msg.GoToPage{Page: n - 1}, nil

	case "move", "m":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: move <san>")
		}
		return msg.MoveEntered{SAN: args[0]}, nil

	case "edit", "e":
		if len(args) != 2 || len(args[1]) != 1 {
			return nil, fmt.Errorf("usage: edit <square> <piece>")
		}
		if !position.IsSquare(strings.ToLower(args[0])) {
			return nil, fmt.Errorf("invalid square %q", args[0])
		}
		if !position.IsPieceLetter(args[1][0]) {
			return nil, fmt.Errorf("invalid piece %q (use KQRBNP or kqrbnp)", args[1])
		}
		return msg.PieceEdited{Square: position.Square(strings.ToLower(args[0])), Piece: position.Piece(args[1][0])}, nil

	case "clear":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: clear <square>")
		}
		if !position.IsSquare(strings.ToLower(args[0])) {
			return nil, fmt.Errorf("invalid square %q", args[0])
		}
		return msg.PieceEdited{Square: position.Square(strings.ToLower(args[0]))}, nil

	case "comment":
		return msg.SetComment{Text: rest}, nil

	case "analyze":
		return msg.StartAnalysisSetup{}, nil

	case "sync":
		return msg.ToggleHardwareSync{}, nil

	case "quit", "q":
		return nil, errQuit

	case "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown command %q (try: %s)", name, strings.Join(commandHelp, ", "))
}
