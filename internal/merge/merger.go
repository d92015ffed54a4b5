// Package merge dissolves a set of elementary catchment polygons into one
// watershed geometry.
//
// The heavy lifting runs through GEOS: per-polygon validity repair, pairwise
// union, and a buffer round trip that closes raster-artifact gaps between
// neighboring catchments. The final hole filter works on the decoded
// geometry directly, dropping interior rings below a configurable area
// floor.
package merge

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"

	"github.com/hydrograph/watershed/pkg/types"
)

// quadSegs is the arc approximation used for every buffer call.
const quadSegs = 8

// deg2PerKm2 converts the hole area floor from km² to squared degrees using
// the mid-latitude approximation 1 deg² ≈ 10,000 km².
const deg2PerKm2 = 1.0 / 10000.0

// Merged is the outcome of a successful merge.
type Merged struct {
	// Geometry is the dissolved watershed, an orb.Polygon or, when the
	// upstream set is genuinely disjoint, an orb.MultiPolygon.
	Geometry orb.Geometry

	// Fragments is the number of disjoint polygons in Geometry.
	Fragments int

	// Repaired counts input polygons that needed validity repair.
	Repaired int

	// HolesRemoved counts interior rings dropped by the area filter.
	HolesRemoved int
}

// Merger wraps a GEOS context. Contexts are not safe for concurrent use, so
// each worker owns its own Merger.
type Merger struct {
	ctx *geos.Context
}

// NewMerger creates a Merger with a fresh GEOS context.
func NewMerger() *Merger {
	return &Merger{ctx: geos.NewContext()}
}

// Merge dissolves the given WKB polygons into a single watershed geometry.
// It returns ErrNoMatchingCatchments for an empty input and
// ErrGeometryRepair when a polygon cannot be made valid or a GEOS operation
// fails.
func (m *Merger) Merge(wkbs [][]byte, params types.Params) (result *Merged, err error) {
	if len(wkbs) == 0 {
		return nil, fmt.Errorf("merge: %w", types.ErrNoMatchingCatchments)
	}
	// GEOS reports internal errors by panicking.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("merge: geos: %v: %w", r, types.ErrGeometryRepair)
		}
	}()

	geoms := make([]*geos.Geom, 0, len(wkbs))
	repaired := 0
	for i, data := range wkbs {
		g, gerr := m.ctx.NewGeomFromWKB(data)
		if gerr != nil {
			return nil, fmt.Errorf("merge: polygon %d: decode: %w", i, types.ErrGeometryRepair)
		}
		if !g.IsValid() {
			fixed := m.repair(g)
			if fixed == nil {
				return nil, fmt.Errorf("merge: polygon %d: %s: %w",
					i, g.IsValidReason(), types.ErrGeometryRepair)
			}
			g = fixed
			repaired++
		}
		geoms = append(geoms, g)
	}

	merged := unionAll(geoms)

	if params.MergeMode != types.MergeModeHoles {
		closed := merged.Buffer(params.GapEpsilonDeg, quadSegs).
			Buffer(-params.GapEpsilonDeg, quadSegs)
		if closed.IsEmpty() || !closed.IsValid() {
			closed = merged.Buffer(0, quadSegs)
		}
		merged = closed
	}

	decoded, derr := wkb.Unmarshal(merged.ToWKB())
	if derr != nil {
		return nil, fmt.Errorf("merge: decode result: %w", types.ErrGeometryRepair)
	}

	holesRemoved := 0
	if params.MergeMode != types.MergeModeBuffer {
		decoded, holesRemoved = filterHoles(decoded, params.MinHoleKm2*deg2PerKm2)
	}

	out := &Merged{
		Geometry:     decoded,
		Repaired:     repaired,
		HolesRemoved: holesRemoved,
	}
	switch g := decoded.(type) {
	case orb.Polygon:
		out.Fragments = 1
	case orb.MultiPolygon:
		out.Fragments = len(g)
	default:
		return nil, fmt.Errorf("merge: unexpected result type %T: %w",
			decoded, types.ErrGeometryRepair)
	}
	return out, nil
}

// repair attempts to make a geometry valid, cheapest strategy first.
func (m *Merger) repair(g *geos.Geom) *geos.Geom {
	buffered := g.Buffer(0, quadSegs)
	if buffered.IsValid() && !buffered.IsEmpty() {
		return buffered
	}
	rebuilt := g.MakeValidWithParams(geos.MakeValidLinework, geos.MakeValidDiscardCollapsed)
	if rebuilt.IsValid() && !rebuilt.IsEmpty() {
		return rebuilt
	}
	return nil
}

// unionAll folds the geometries pairwise, halving the slice each round, so
// union cost stays balanced on large upstream sets.
func unionAll(geoms []*geos.Geom) *geos.Geom {
	for len(geoms) > 1 {
		next := make([]*geos.Geom, 0, (len(geoms)+1)/2)
		for i := 0; i+1 < len(geoms); i += 2 {
			next = append(next, geoms[i].Union(geoms[i+1]))
		}
		if len(geoms)%2 == 1 {
			next = append(next, geoms[len(geoms)-1])
		}
		geoms = next
	}
	return geoms[0]
}

// filterHoles drops interior rings with planar area below minDeg2.
func filterHoles(g orb.Geometry, minDeg2 float64) (orb.Geometry, int) {
	switch geom := g.(type) {
	case orb.Polygon:
		out, n := filterPolygonHoles(geom, minDeg2)
		return out, n
	case orb.MultiPolygon:
		total := 0
		out := make(orb.MultiPolygon, 0, len(geom))
		for _, poly := range geom {
			filtered, n := filterPolygonHoles(poly, minDeg2)
			out = append(out, filtered)
			total += n
		}
		return out, total
	default:
		return g, 0
	}
}

func filterPolygonHoles(poly orb.Polygon, minDeg2 float64) (orb.Polygon, int) {
	if len(poly) <= 1 {
		return poly, 0
	}
	out := orb.Polygon{poly[0]}
	removed := 0
	for _, ring := range poly[1:] {
		if math.Abs(planar.Area(ring)) >= minDeg2 {
			out = append(out, ring)
		} else {
			removed++
		}
	}
	return out, removed
}
