package types

import (
	"fmt"
	"math"
)

// Verdicts for a processed station.
const (
	// VerdictAccepted means a watershed was produced and passed, or could
	// not be checked against, the area comparison.
	VerdictAccepted = "accepted"

	// VerdictRejected means a watershed was produced but its area differs
	// from the reference by more than the tolerance.
	VerdictRejected = "rejected"

	// VerdictFailed means no watershed could be produced.
	VerdictFailed = "failed"
)

// Result records the outcome of processing one station. Every station yields
// exactly one Result; pipeline errors become VerdictFailed rather than
// aborting the batch.
type Result struct {
	StationCode string

	// Verdict is one of VerdictAccepted, VerdictRejected, VerdictFailed.
	Verdict string

	// ComputedAreaM2 is the geodesic area of the merged watershed.
	ComputedAreaM2 float64

	// ReferenceAreaM2 is the station's published area, or 0 when absent.
	ReferenceAreaM2 float64

	// RelativeError is |computed-reference|/reference, or NaN when the
	// station has no reference area.
	RelativeError float64

	// OutletID is the snapped reach, 0 on snap failure.
	OutletID int64

	// SnapDistanceM is the planar distance from the station to the snapped
	// reach.
	SnapDistanceM float64

	// UpstreamCount is the size of the traced upstream set, outlet
	// included.
	UpstreamCount int

	// Fragments is the number of disjoint polygons in the merged watershed;
	// 1 for a clean result.
	Fragments int

	// MergedGeoJSON is the merged watershed as a GeoJSON feature, or nil on
	// failure.
	MergedGeoJSON []byte

	// FailureReason describes why the station failed or was rejected;
	// empty on acceptance.
	FailureReason string
}

// ErrorPercent formats the relative error as a percentage, or "NA" when no
// reference area was available.
func (r Result) ErrorPercent() string {
	if math.IsNaN(r.RelativeError) {
		return "NA"
	}
	return fmt.Sprintf("%.1f%%", r.RelativeError*100)
}

// Delineated reports whether a watershed geometry was produced.
func (r Result) Delineated() bool {
	return r.Verdict != VerdictFailed
}
