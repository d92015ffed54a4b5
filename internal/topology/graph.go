// Package topology derives the upstream connectivity graph of a river
// network and answers upstream-trace queries on it.
package topology

import (
	"fmt"
	"sort"

	"github.com/hydrograph/watershed/pkg/types"
)

// Graph maps each reach ID to the set of its immediate upstream reach IDs.
// Downstream references are reversed during construction, so the graph always
// points upstream regardless of how the source data encodes connectivity.
type Graph struct {
	up map[int64]map[int64]struct{}
}

// Build constructs the upstream graph from the store's reaches. Both
// encodings contribute edges when present; an edge is added only when both
// of its endpoints exist in the store, so dangling references at dataset
// boundaries are ignored. Build returns ErrNoTopologyFields when the store
// carries neither downstream nor upstream references.
func Build(store *types.ReachStore) (*Graph, error) {
	if !store.HasDownstreamRefs && !store.HasUpstreamRefs {
		return nil, fmt.Errorf("topology: %w", types.ErrNoTopologyFields)
	}
	g := &Graph{up: make(map[int64]map[int64]struct{}, store.Len())}
	for _, id := range store.IDs() {
		r := store.Get(id)
		if r.DownstreamID != 0 && store.Has(r.DownstreamID) {
			g.addEdge(r.DownstreamID, r.ID)
		}
		for _, upID := range r.UpstreamIDs {
			if upID != 0 && store.Has(upID) {
				g.addEdge(r.ID, upID)
			}
		}
	}
	return g, nil
}

func (g *Graph) addEdge(down, up int64) {
	set, ok := g.up[down]
	if !ok {
		set = make(map[int64]struct{})
		g.up[down] = set
	}
	set[up] = struct{}{}
}

// Upstream returns the immediate upstream IDs of the given reach, sorted
// ascending. Headwater reaches return an empty slice.
func (g *Graph) Upstream(id int64) []int64 {
	set := g.up[id]
	out := make([]int64, 0, len(set))
	for up := range set {
		out = append(out, up)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TraceUpstream returns every reach draining through outlet, outlet
// included. The traversal is breadth-first with a visited set, so shared
// tributaries appear once and accidental cycles in the source data cannot
// loop. When the finished set exceeds maxReaches the trace fails with
// ErrNetworkTooLarge; the cap rejects oversized networks outright rather
// than truncating them.
func (g *Graph) TraceUpstream(outlet int64, maxReaches int) ([]int64, error) {
	visited := map[int64]struct{}{outlet: {}}
	queue := []int64{outlet}
	order := []int64{outlet}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for up := range g.up[cur] {
			if _, seen := visited[up]; seen {
				continue
			}
			visited[up] = struct{}{}
			queue = append(queue, up)
			order = append(order, up)
		}
	}
	if len(order) > maxReaches {
		return nil, fmt.Errorf("outlet %d: %d reaches exceeds cap %d: %w",
			outlet, len(order), maxReaches, types.ErrNetworkTooLarge)
	}
	return order, nil
}
