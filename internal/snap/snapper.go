// Package snap locates the river reach nearest to a station coordinate.
//
// Geometries are projected to Web Mercator once at index build time and all
// distances are planar distances in that projection, compared directly
// against the configured snap tolerance.
package snap

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/orb/quadtree"

	"github.com/hydrograph/watershed/pkg/types"
)

// Candidate is one reach within snapping range of a station.
type Candidate struct {
	ReachID         int64
	DistanceM       float64
	Order           int
	UpstreamAreaKm2 float64
}

// vertexItem places one projected reach vertex in the quadtree and remembers
// which reach it belongs to.
type vertexItem struct {
	pt    orb.Point
	reach int
}

func (v vertexItem) Point() orb.Point { return v.pt }

// Snapper is an immutable spatial index over a reach store. Build it once
// with NewSnapper and share it read-only across workers.
type Snapper struct {
	ids     []int64
	orders  []int
	upareas []float64
	lines   []orb.LineString

	tree *quadtree.Quadtree

	// maxSegLen bounds the length of any reach segment in the index. A
	// segment within distance r of a point has a vertex within
	// r+maxSegLen, so padding queries by this much keeps the vertex index
	// exhaustive.
	maxSegLen float64
}

// NewSnapper indexes every reach in the store. Reaches without geometry are
// skipped.
func NewSnapper(store *types.ReachStore) (*Snapper, error) {
	s := &Snapper{}
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0}}
	first := true
	var items []vertexItem
	for _, id := range store.IDs() {
		r := store.Get(id)
		if len(r.Line) < 2 {
			continue
		}
		proj := make(orb.LineString, len(r.Line))
		for i, p := range r.Line {
			proj[i] = project.WGS84.ToMercator(p)
			if first {
				bound = orb.Bound{Min: proj[i], Max: proj[i]}
				first = false
			} else {
				bound = bound.Extend(proj[i])
			}
		}
		idx := len(s.ids)
		s.ids = append(s.ids, r.ID)
		s.orders = append(s.orders, r.Order)
		s.upareas = append(s.upareas, r.UpstreamAreaKm2)
		s.lines = append(s.lines, proj)
		for i, p := range proj {
			items = append(items, vertexItem{pt: p, reach: idx})
			if i > 0 {
				if d := planar.Distance(proj[i-1], p); d > s.maxSegLen {
					s.maxSegLen = d
				}
			}
		}
	}
	if len(s.ids) == 0 {
		return nil, fmt.Errorf("snap index: %w", types.ErrEmptyDataset)
	}
	s.tree = quadtree.New(bound)
	for _, it := range items {
		if err := s.tree.Add(it); err != nil {
			return nil, fmt.Errorf("snap index: %w", err)
		}
	}
	return s, nil
}

// Candidates returns every reach within params.SnapDistanceM of the station
// coordinate, each with its exact line distance, in no particular order.
func (s *Snapper) Candidates(lon, lat float64, params types.Params) []Candidate {
	pt := project.WGS84.ToMercator(orb.Point{lon, lat})
	pad := params.SnapDistanceM + s.maxSegLen
	query := orb.Bound{
		Min: orb.Point{pt[0] - pad, pt[1] - pad},
		Max: orb.Point{pt[0] + pad, pt[1] + pad},
	}
	seen := make(map[int]struct{})
	var out []Candidate
	for _, ptr := range s.tree.InBound(nil, query) {
		it := ptr.(vertexItem)
		if _, dup := seen[it.reach]; dup {
			continue
		}
		seen[it.reach] = struct{}{}
		d := planar.DistanceFrom(s.lines[it.reach], pt)
		if d <= params.SnapDistanceM {
			out = append(out, Candidate{
				ReachID:         s.ids[it.reach],
				DistanceM:       d,
				Order:           s.orders[it.reach],
				UpstreamAreaKm2: s.upareas[it.reach],
			})
		}
	}
	return out
}

// Snap picks the best candidate reach for the station coordinate under the
// configured selection policy. Distance-first prefers the closest reach and
// breaks ties on higher stream order, then larger drained area; order-first
// prefers the highest stream order within tolerance and breaks ties on
// distance, then drained area. Remaining ties fall back to the lowest reach
// ID, so snapping is deterministic. Snap returns ErrNoReachWithinTolerance
// when no reach is in range.
func (s *Snapper) Snap(lon, lat float64, params types.Params) (Candidate, error) {
	cands := s.Candidates(lon, lat, params)
	if len(cands) == 0 {
		return Candidate{}, fmt.Errorf("no reach within %.0f m of (%g, %g): %w",
			params.SnapDistanceM, lon, lat, types.ErrNoReachWithinTolerance)
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if params.SelectionPolicy == types.PolicyOrderFirst {
			if a.Order != b.Order {
				return a.Order > b.Order
			}
			if a.DistanceM != b.DistanceM {
				return a.DistanceM < b.DistanceM
			}
		} else {
			if a.DistanceM != b.DistanceM {
				return a.DistanceM < b.DistanceM
			}
			if a.Order != b.Order {
				return a.Order > b.Order
			}
		}
		if a.UpstreamAreaKm2 != b.UpstreamAreaKm2 {
			return a.UpstreamAreaKm2 > b.UpstreamAreaKm2
		}
		return a.ReachID < b.ReachID
	})
	return cands[0], nil
}
