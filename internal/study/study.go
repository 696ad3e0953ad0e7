// Package study holds the durable per-PDF data: the games recognized from
// diagrams, their analysis trees and the continuation links between them.
//
// Study is a value. Every With/Delete method returns a new Study and leaves
// the receiver untouched, so the reducer can hand out the previous model
// safely.
package study

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/continuation"
	"github.com/Iron-Ham/chessbook/internal/position"
)

// BBox is a diagram's bounding box in page pixels.
type BBox struct {
	X      float64 `json:"x" validate:"gte=0"`
	Y      float64 `json:"y" validate:"gte=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Game is one recognized diagram.
type Game struct {
	ID         string
	Page       int
	BBox       BBox
	Placement  position.Placement
	Turn       position.Color
	Confidence float64
	// Pending is true until the user confirms the pieces.
	Pending bool
}

// Position returns the full position of the diagram.
func (g Game) Position() position.Position {
	return position.ToFullPosition(g.Placement, g.Turn)
}

type gameJSON struct {
	ID         string             `json:"id"`
	Page       int                `json:"page"`
	BBox       BBox               `json:"bbox"`
	Placement  position.Placement `json:"placement"`
	Turn       string             `json:"turn"`
	Confidence float64            `json:"confidence"`
	Pending    bool               `json:"pending"`
}

// MarshalJSON writes the turn as "w" or "b".
func (g Game) MarshalJSON() ([]byte, error) {
	turn := position.White
	if g.Turn == position.Black {
		turn = position.Black
	}
	return json.Marshal(gameJSON{
		ID: g.ID, Page: g.Page, BBox: g.BBox, Placement: g.Placement,
		Turn: turn.String(), Confidence: g.Confidence, Pending: g.Pending,
	})
}

// UnmarshalJSON reads a game; a missing turn means White.
func (g *Game) UnmarshalJSON(data []byte) error {
	var raw gameJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	turn := position.White
	if raw.Turn == "b" {
		turn = position.Black
	}
	*g = Game{
		ID: raw.ID, Page: raw.Page, BBox: raw.BBox, Placement: raw.Placement,
		Turn: turn, Confidence: raw.Confidence, Pending: raw.Pending,
	}
	return nil
}

// Study is everything persisted for one PDF. Analyses are keyed by the ID
// of the game that started them.
type Study struct {
	Games         []Game                   `json:"games"`
	Analyses      map[string]analysis.Tree `json:"analyses"`
	Continuations continuation.Registry    `json:"continuations"`
}

// Game returns the game with id.
func (s Study) Game(id string) (Game, bool) {
	for _, g := range s.Games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// WithGame replaces the game with g.ID or appends g. An unset turn is
// stored as White.
func (s Study) WithGame(g Game) Study {
	if g.Turn != position.Black {
		g.Turn = position.White
	}
	out := s
	out.Games = slices.Clone(s.Games)
	for i := range out.Games {
		if out.Games[i].ID == g.ID {
			out.Games[i] = g
			return out
		}
	}
	out.Games = append(out.Games, g)
	return out
}

// WithAnalysis stores tree under id.
func (s Study) WithAnalysis(id string, tree analysis.Tree) Study {
	out := s
	out.Analyses = maps.Clone(s.Analyses)
	if out.Analyses == nil {
		out.Analyses = make(map[string]analysis.Tree, 1)
	}
	out.Analyses[id] = tree
	return out
}

// WithLink records a continuation link.
func (s Study) WithLink(l continuation.Link) Study {
	out := s
	out.Continuations = s.Continuations.With(l)
	return out
}

// DeleteGame removes a game together with its analysis, its own link and
// every link pointing into its analysis.
func (s Study) DeleteGame(id string) Study {
	out := s
	out.Games = slices.DeleteFunc(slices.Clone(s.Games), func(g Game) bool { return g.ID == id })
	if _, ok := s.Analyses[id]; ok {
		out.Analyses = maps.Clone(s.Analyses)
		delete(out.Analyses, id)
	}
	out.Continuations = s.Continuations.Without(id).PruneAnalysis(id)
	return out
}

// FindConfirmedByPlacement returns the first confirmed game showing pl.
func (s Study) FindConfirmedByPlacement(pl position.Placement) (Game, bool) {
	for _, g := range s.Games {
		if !g.Pending && position.SamePlacement(g.Placement, pl) {
			return g, true
		}
	}
	return Game{}, false
}

// Confirmed returns the confirmed games in study order.
func (s Study) Confirmed() []Game {
	out := make([]Game, 0, len(s.Games))
	for _, g := range s.Games {
		if !g.Pending {
			out = append(out, g)
		}
	}
	return out
}

// GameOrder returns game IDs in study order.
func (s Study) GameOrder() []string {
	ids := make([]string, 0, len(s.Games))
	for _, g := range s.Games {
		ids = append(ids, g.ID)
	}
	return ids
}

// Target is where a game's analysis lives: its own tree at the node
// matching the diagram, or the node a continuation link points at.
type Target struct {
	AnalysisID string
	Path       analysis.Path
	Linked     bool
}

// AnalysisFor locates the analysis to open for gameID. A game's own tree
// wins over a link; a broken link counts as no analysis.
func (s Study) AnalysisFor(gameID string, budget int) (Target, bool) {
	if tree, ok := s.Analyses[gameID]; ok && !tree.IsZero() {
		g, _ := s.Game(gameID)
		p, found := analysis.FindPlacement(tree, g.Placement, budget)
		if !found {
			p = analysis.Path{}
		}
		return Target{AnalysisID: gameID, Path: p}, true
	}
	if l, ok := s.Continuations.Get(gameID); ok {
		if _, p, ok := continuation.Resolve(l, s.Analyses); ok {
			return Target{AnalysisID: l.ToAnalysisID, Path: p, Linked: true}, true
		}
	}
	return Target{}, false
}

// FindContinuation searches other games' trees for the placement of
// gameID, in study order.
func (s Study) FindContinuation(gameID string, budget int) (continuation.Candidate, bool) {
	g, ok := s.Game(gameID)
	if !ok {
		return continuation.Candidate{}, false
	}
	trees := make(map[string]analysis.Tree, len(s.Analyses))
	for id, t := range s.Analyses {
		if id != gameID {
			trees[id] = t
		}
	}
	return continuation.FindCandidate(trees, s.GameOrder(), g.Placement, budget)
}

// Persistable returns the study without pending games, which only live
// until the user confirms or discards them.
func (s Study) Persistable() Study {
	out := s
	out.Games = slices.DeleteFunc(slices.Clone(s.Games), func(g Game) bool { return g.Pending })
	if out.Games == nil {
		out.Games = []Game{}
	}
	if out.Analyses == nil {
		out.Analyses = map[string]analysis.Tree{}
	}
	return out
}

// Marshal encodes s without pending games.
func Marshal(s Study) ([]byte, error) {
	return json.Marshal(s.Persistable())
}

// Unmarshal decodes a study written by Marshal.
func Unmarshal(data []byte) (Study, error) {
	var s Study
	if err := json.Unmarshal(data, &s); err != nil {
		return Study{}, err
	}
	return s, nil
}

// Equal compares two studies structurally.
func Equal(a, b Study) bool {
	if !slices.Equal(a.Games, b.Games) {
		return false
	}
	if len(a.Analyses) != len(b.Analyses) {
		return false
	}
	for id, t := range a.Analyses {
		u, ok := b.Analyses[id]
		if !ok || !analysis.Equal(t, u) {
			return false
		}
	}
	al, bl := a.Continuations.All(), b.Continuations.All()
	if len(al) != len(bl) {
		return false
	}
	for id, l := range al {
		m, ok := bl[id]
		if !ok || l.ToAnalysisID != m.ToAnalysisID || !l.NodePath.Equal(m.NodePath) {
			return false
		}
	}
	return true
}
