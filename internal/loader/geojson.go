// Package loader reads the river network, elementary catchment, and station
// inputs from disk into the engine's in-memory stores.
package loader

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/hydrograph/watershed/pkg/types"
)

// Reach attribute names, following the MERIT-Hydro vector convention.
const (
	propID         = "COMID"
	propNextDown   = "NextDownID"
	propOrder      = "order"
	propUpArea     = "uparea"
	maxUpstreamIDs = 4
)

// upProps are the candidate upstream-reference attributes, in slot order.
var upProps = [maxUpstreamIDs]string{"up1", "up2", "up3", "up4"}

// Reaches reads a river-network GeoJSON file into a ReachStore. Every
// feature must carry a positive COMID; downstream and upstream references,
// stream order, and drained area are optional. MultiLineString geometries
// are flattened into a single line.
func Reaches(path string) (*types.ReachStore, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	reaches := make([]types.Reach, 0, len(fc.Features))
	// Topology encodings are detected by property presence, not value: a
	// dataset whose every reach is an outlet still carries the downstream
	// column, and must load with an empty graph rather than fail.
	sawDown, sawUp := false, false
	for i, f := range fc.Features {
		id, ok := propertyID(f.Properties, propID)
		if !ok {
			return nil, fmt.Errorf("%s: feature %d has no %s: %w",
				path, i, propID, types.ErrMissingIDField)
		}
		r := types.Reach{ID: id, Line: lineOf(f.Geometry)}
		if _, ok := f.Properties[propNextDown]; ok {
			sawDown = true
		}
		if down, ok := propertyID(f.Properties, propNextDown); ok {
			r.DownstreamID = down
		}
		for _, prop := range upProps {
			if _, ok := f.Properties[prop]; ok {
				sawUp = true
			}
			if up, ok := propertyID(f.Properties, prop); ok {
				r.UpstreamIDs = append(r.UpstreamIDs, up)
			}
		}
		if v, ok := propertyFloat(f.Properties, propOrder); ok {
			r.Order = int(v)
		}
		if v, ok := propertyFloat(f.Properties, propUpArea); ok {
			r.UpstreamAreaKm2 = v
		}
		reaches = append(reaches, r)
	}
	store, err := types.NewReachStore(reaches)
	if err != nil {
		return nil, err
	}
	store.HasDownstreamRefs = store.HasDownstreamRefs || sawDown
	store.HasUpstreamRefs = store.HasUpstreamRefs || sawUp
	return store, nil
}

// Catchments reads an elementary-catchment GeoJSON file into a
// CatchmentStore. Every feature must carry a positive COMID and a polygonal
// geometry.
func Catchments(path string) (*types.CatchmentStore, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	catchments := make([]types.Catchment, 0, len(fc.Features))
	for i, f := range fc.Features {
		id, ok := propertyID(f.Properties, propID)
		if !ok {
			return nil, fmt.Errorf("%s: feature %d has no %s: %w",
				path, i, propID, types.ErrMissingIDField)
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("%s: catchment %d: geometry is %T, want polygon",
				path, id, f.Geometry)
		}
		catchments = append(catchments, types.Catchment{ID: id, Polygon: f.Geometry})
	}
	return types.NewCatchmentStore(catchments)
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// propertyID coerces a GeoJSON property into a positive int64 ID. Vector
// exports store IDs variously as numbers or numeric strings; zero and
// negative values mean "no reference" and report as absent.
func propertyID(props geojson.Properties, key string) (int64, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return int64(n), true
		}
	case int:
		if n > 0 {
			return int64(n), true
		}
	case int64:
		if n > 0 {
			return n, true
		}
	case string:
		var id int64
		if _, err := fmt.Sscan(n, &id); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}

func propertyFloat(props geojson.Properties, key string) (float64, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// lineOf extracts a reach centerline, flattening multi-part geometries.
func lineOf(g orb.Geometry) orb.LineString {
	switch geom := g.(type) {
	case orb.LineString:
		return geom
	case orb.MultiLineString:
		var flat orb.LineString
		for _, part := range geom {
			flat = append(flat, part...)
		}
		return flat
	default:
		return nil
	}
}
