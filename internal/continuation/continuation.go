// Package continuation links a diagram to a point inside another diagram's
// analysis tree, so analysis built for an earlier position in a book can be
// resumed when a later diagram shows a position it already reaches.
//
// Links are cross references, not copies. A link whose tree or path no
// longer exists is treated as absent rather than as an error.
package continuation

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/Iron-Ham/chessbook/internal/analysis"
	"github.com/Iron-Ham/chessbook/internal/position"
)

// DefaultBudget is the number of nodes searched per tree.
const DefaultBudget = 1000

// Link points a game at a node inside another game's analysis.
type Link struct {
	FromGameID   string        `json:"from_game_id"`
	ToAnalysisID string        `json:"to_analysis_id"`
	NodePath     analysis.Path `json:"node_path"`
}

// Registry maps game IDs to their links. It is a value: With and Without
// return new registries and never modify the receiver.
type Registry struct {
	links map[string]Link
}

// NewRegistry builds a registry from links.
func NewRegistry(links ...Link) Registry {
	r := Registry{links: make(map[string]Link, len(links))}
	for _, l := range links {
		r.links[l.FromGameID] = l
	}
	return r
}

// Get returns the link for gameID.
func (r Registry) Get(gameID string) (Link, bool) {
	l, ok := r.links[gameID]
	return l, ok
}

// Len returns the number of links.
func (r Registry) Len() int {
	return len(r.links)
}

// All returns a copy of the links keyed by game ID.
func (r Registry) All() map[string]Link {
	return maps.Clone(r.links)
}

// With returns a registry where l replaces any link for l.FromGameID.
func (r Registry) With(l Link) Registry {
	out := Registry{links: maps.Clone(r.links)}
	if out.links == nil {
		out.links = make(map[string]Link, 1)
	}
	l.NodePath = append(analysis.Path{}, l.NodePath...)
	out.links[l.FromGameID] = l
	return out
}

// Without returns a registry without the link for gameID.
func (r Registry) Without(gameID string) Registry {
	if _, ok := r.links[gameID]; !ok {
		return r
	}
	out := Registry{links: maps.Clone(r.links)}
	delete(out.links, gameID)
	return out
}

// PruneAnalysis drops every link that points into analysisID.
func (r Registry) PruneAnalysis(analysisID string) Registry {
	out := Registry{links: make(map[string]Link, len(r.links))}
	for id, l := range r.links {
		if l.ToAnalysisID != analysisID {
			out.links[id] = l
		}
	}
	return out
}

// MarshalJSON encodes the registry as an object keyed by game ID.
func (r Registry) MarshalJSON() ([]byte, error) {
	if r.links == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.links)
}

// UnmarshalJSON decodes an object keyed by game ID. The key wins over any
// from_game_id stored in the value.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var raw map[string]Link
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.links = make(map[string]Link, len(raw))
	for id, l := range raw {
		l.FromGameID = id
		r.links[id] = l
	}
	return nil
}

// Resolve returns the tree and path a link points at. A missing tree or a
// path that no longer resolves yields false.
func Resolve(l Link, trees map[string]analysis.Tree) (analysis.Tree, analysis.Path, bool) {
	tree, ok := trees[l.ToAnalysisID]
	if !ok || tree.IsZero() {
		return analysis.Tree{}, nil, false
	}
	if _, ok := analysis.Resolve(tree, l.NodePath); !ok {
		return analysis.Tree{}, nil, false
	}
	return tree, l.NodePath, true
}

// Candidate is a proposed link found by FindCandidate. It is never applied
// without the user's acceptance.
type Candidate struct {
	AnalysisID string
	Path       analysis.Path
}

// Link returns the link that accepting c for gameID would create.
func (c Candidate) Link(gameID string) Link {
	return Link{FromGameID: gameID, ToAnalysisID: c.AnalysisID, NodePath: c.Path}
}

// FindCandidate searches trees breadth-first for a node with placement pl.
// Trees are searched in the given order, each for at most budget nodes, and
// the first hit wins. Trees missing from order are searched afterwards in
// key order so the result is deterministic.
func FindCandidate(trees map[string]analysis.Tree, order []string, pl position.Placement, budget int) (Candidate, bool) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	for _, id := range searchOrder(trees, order) {
		if p, ok := analysis.FindPlacement(trees[id], pl, budget); ok {
			return Candidate{AnalysisID: id, Path: p}, true
		}
	}
	return Candidate{}, false
}

func searchOrder(trees map[string]analysis.Tree, order []string) []string {
	seen := make(map[string]bool, len(trees))
	out := make([]string, 0, len(trees))
	for _, id := range order {
		if _, ok := trees[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	var rest []string
	for id := range trees {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
