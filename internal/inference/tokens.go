package inference

import (
	"regexp"
	"strings"

	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
)

var (
	moveNumber  = regexp.MustCompile(`^\d+\.+`)
	resultToken = regexp.MustCompile(`^(1-0|0-1|1/2-1/2|½-½|\*)$`)
	nagToken    = regexp.MustCompile(`^\$\d+$`)
	// Trailing check, mate and annotation marks.
	suffixMarks = "+#!?"
)

// Tokenize splits move text into candidate SAN tokens. Move numbers,
// results, comments in braces, NAGs and bare annotation glyphs are dropped.
// Tokens are not checked for legality.
func Tokenize(text string) []string {
	text = stripComments(text)
	text = strings.NewReplacer("(", " ", ")", " ", ",", " ", ";", " ").Replace(text)

	var out []string
	for _, field := range strings.Fields(text) {
		field = moveNumber.ReplaceAllString(field, "")
		if field == "" || resultToken.MatchString(field) || nagToken.MatchString(field) {
			continue
		}
		if strings.Trim(field, suffixMarks+"=-") == "" {
			continue
		}
		out = append(out, field)
	}
	return out
}

func stripComments(text string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range text {
		switch {
		case r == '{':
			depth++
		case r == '}' && depth > 0:
			depth--
			sb.WriteByte(' ')
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// normalizeSAN reduces a SAN token to a comparable form: annotation and
// check marks removed, castling spelled with O, "e.p." dropped and a missing
// promotion "=" restored.
func normalizeSAN(san string) string {
	san = strings.TrimSpace(san)
	san = strings.TrimSuffix(san, "e.p.")
	san = strings.TrimRight(san, suffixMarks)
	switch strings.ToUpper(san) {
	case "0-0", "O-O":
		return "O-O"
	case "0-0-0", "O-O-O":
		return "O-O-O"
	}
	n := len(san)
	if n >= 3 && !strings.Contains(san, "=") && strings.ContainsRune("QRBN", rune(san[n-1])) &&
		(san[n-2] == '8' || san[n-2] == '1') {
		san = san[:n-1] + "=" + san[n-1:]
	}
	return san
}

// FindMove returns the legal move from p0 matching san. SAN is compared
// after normalization; a UCI token such as "g1f3" is also accepted.
func FindMove(o rules.Oracle, p0 position.Position, san string) (rules.Move, bool, error) {
	moves, err := o.LegalMoves(p0)
	if err != nil {
		return rules.Move{}, false, err
	}
	want := normalizeSAN(san)
	if want == "" {
		return rules.Move{}, false, nil
	}
	for _, m := range moves {
		if normalizeSAN(m.SAN) == want || m.UCI == strings.ToLower(san) {
			return m, true, nil
		}
	}
	return rules.Move{}, false, nil
}

// Resolution is the outcome of ResolveTokens.
type Resolution struct {
	// Moves are the moves applied from the start, in order.
	Moves []rules.Move
	// Reached reports whether the target placement was reached.
	Reached bool
	// Skipped counts tokens that matched no legal move.
	Skipped int
}

// ResolveTokens applies tokens from start until the target placement is
// reached. Tokens that match no legal move in the current position are
// skipped, since text extracted from a page is unreliable. The target is
// checked before the first token and after every applied move, so trailing
// tokens beyond the diagram are ignored.
func ResolveTokens(o rules.Oracle, start position.Position, tokens []string, target position.Placement) (Resolution, error) {
	var res Resolution
	current := start
	if position.SamePlacement(current.Placement(), target) {
		res.Reached = true
		return res, nil
	}
	for _, tok := range tokens {
		m, ok, err := FindMove(o, current, tok)
		if err != nil {
			return res, err
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Moves = append(res.Moves, m)
		current = m.Position
		if position.SamePlacement(current.Placement(), target) {
			res.Reached = true
			return res, nil
		}
	}
	return res, nil
}
