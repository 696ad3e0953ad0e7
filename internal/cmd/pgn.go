package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/study"
	"github.com/Iron-Ham/chessbook/internal/tui/styles"
)

var pgnCmd = &cobra.Command{
	Use:   "pgn <pdf-id> [game-id]",
	Short: "Print the analysis of a study as PGN",
	Long: `Print the analysis trees of a stored study as PGN. With a game ID only
the analysis that game opens (its own tree or the one it is linked into) is
printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPGN,
}

func init() {
	rootCmd.AddCommand(pgnCmd)
}

func runPGN(cmd *cobra.Command, args []string) error {
	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	st, err := d.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	pdfID := args[0]
	s, found, err := st.Load(ctx, pdfID)
	if err != nil {
		return fmt.Errorf("failed to load study: %w", err)
	}
	if !found {
		return errors.NewNotFoundError("study", pdfID)
	}

	gameID := ""
	if len(args) > 1 {
		gameID = args[1]
	}
	games, err := pgnGames(s, pdfID, gameID, d.cfg.Analysis.ContinuationBudget)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writePGN(out, games, isTerminal(out))
	return nil
}

type pgnGame struct {
	title string
	text  string
}

// pgnGames renders the requested analyses in study order.
func pgnGames(s study.Study, pdfID, gameID string, budget int) ([]pgnGame, error) {
	if gameID != "" {
		g, ok := s.Game(gameID)
		if !ok {
			return nil, fmt.Errorf("no game %s in study %s", gameID, pdfID)
		}
		target, ok := s.AnalysisFor(gameID, budget)
		if !ok {
			return nil, fmt.Errorf("game %s has no analysis", gameID)
		}
		return []pgnGame{renderAnalysis(s, pdfID, target.AnalysisID, g)}, nil
	}

	var games []pgnGame
	for _, id := range s.GameOrder() {
		tree, ok := s.Analyses[id]
		if !ok || tree.IsZero() {
			continue
		}
		g, _ := s.Game(id)
		games = append(games, renderAnalysis(s, pdfID, id, g))
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("study %s has no analysis", pdfID)
	}
	return games, nil
}

func renderAnalysis(s study.Study, pdfID, analysisID string, g study.Game) pgnGame {
	source := fmt.Sprintf("%s, page %d", pdfID, g.Page+1)
	return pgnGame{
		title: fmt.Sprintf("analysis %s (%s)", analysisID, source),
		text: analysis.RenderGame(s.Analyses[analysisID],
			analysis.Header{Name: "Event", Value: "chessbook analysis"},
			analysis.Header{Name: "Annotator", Value: "chessbook"},
			analysis.Header{Name: "Source", Value: source},
		),
	}
}

// writePGN prints games separated by blank lines; on a terminal each game
// gets a styled title.
func writePGN(w io.Writer, games []pgnGame, styled bool) {
	for i, g := range games {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if styled {
			fmt.Fprintln(w, styles.SidebarTitle.Render(g.title))
		}
		fmt.Fprint(w, g.text)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
