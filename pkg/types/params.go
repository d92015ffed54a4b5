package types

import "errors"

// Snap selection policies.
const (
	PolicyDistanceFirst = "distance-first"
	PolicyOrderFirst    = "order-first"
)

// Merge modes. MergeModeBoth applies the buffer gap-closing pass and the
// hole-area filter; the other two apply only one of them and exist for
// debugging parameter choices.
const (
	MergeModeBoth   = "both"
	MergeModeBuffer = "buffer"
	MergeModeHoles  = "holes"
)

// validPolicies is the set of recognized snap selection policies.
var validPolicies = map[string]bool{
	PolicyDistanceFirst: true,
	PolicyOrderFirst:    true,
}

// validMergeModes is the set of recognized merge modes.
var validMergeModes = map[string]bool{
	MergeModeBoth:   true,
	MergeModeBuffer: true,
	MergeModeHoles:  true,
}

// Params validation errors.
var (
	ErrSnapDistanceInvalid  = errors.New("snap distance must be positive")
	ErrPolicyUnknown        = errors.New("unknown selection policy")
	ErrMaxUpstreamInvalid   = errors.New("max upstream reach count must be positive")
	ErrGapEpsilonInvalid    = errors.New("gap epsilon must be positive")
	ErrMinHoleAreaInvalid   = errors.New("minimum hole area must not be negative")
	ErrAreaToleranceInvalid = errors.New("area tolerance must be positive")
	ErrMergeModeUnknown     = errors.New("unknown merge mode")
	ErrWorkersInvalid       = errors.New("worker count must be positive")
)

// Params holds the tunable numeric parameters shared by the pipeline
// components. A Params value is built once per run and passed by value into
// each component entry point; components never read shared mutable state, so
// stations can be processed concurrently.
type Params struct {
	// SnapDistanceM is the maximum planar distance, in meters, between a
	// station and its snapped reach.
	SnapDistanceM float64

	// SelectionPolicy orders snap candidates: PolicyDistanceFirst or
	// PolicyOrderFirst.
	SelectionPolicy string

	// MaxUpstreamReaches caps the traced upstream set size. The cap is
	// checked against the finished set, never mid-traversal.
	MaxUpstreamReaches int

	// GapEpsilonDeg is the buffer distance, in the catchment geometry's
	// coordinate unit (degrees for geographic data), used to close sliver
	// gaps between adjacent elementary catchments. Interior gaps narrower
	// than twice this value vanish.
	GapEpsilonDeg float64

	// MinHoleKm2 is the smallest interior hole, in km², preserved in the
	// merged watershed. Smaller holes are treated as raster artifacts.
	MinHoleKm2 float64

	// AreaTolerance is the maximum relative error accepted when comparing
	// the computed watershed area with a station's reference area.
	AreaTolerance float64

	// MergeMode selects which of the two hole filters run.
	MergeMode string

	// Workers is the number of concurrent station workers.
	Workers int
}

// DefaultParams returns the standard parameter set. The numeric defaults are
// calibrated for 90 m raster-derived catchment data: a 0.0001° epsilon
// (≈11 m) closes typical pixel-scale gaps, and a 1 km² hole floor keeps real
// lakes.
func DefaultParams() Params {
	return Params{
		SnapDistanceM:      5000.0,
		SelectionPolicy:    PolicyDistanceFirst,
		MaxUpstreamReaches: 100000,
		GapEpsilonDeg:      0.0001,
		MinHoleKm2:         1.0,
		AreaTolerance:      0.20,
		MergeMode:          MergeModeBoth,
		Workers:            4,
	}
}

// Validate checks that the Params are well-formed. It returns a sentinel
// error from this package on failure.
func (p Params) Validate() error {
	if p.SnapDistanceM <= 0 {
		return ErrSnapDistanceInvalid
	}
	if !validPolicies[p.SelectionPolicy] {
		return ErrPolicyUnknown
	}
	if p.MaxUpstreamReaches <= 0 {
		return ErrMaxUpstreamInvalid
	}
	if p.GapEpsilonDeg <= 0 {
		return ErrGapEpsilonInvalid
	}
	if p.MinHoleKm2 < 0 {
		return ErrMinHoleAreaInvalid
	}
	if p.AreaTolerance <= 0 {
		return ErrAreaToleranceInvalid
	}
	if !validMergeModes[p.MergeMode] {
		return ErrMergeModeUnknown
	}
	if p.Workers <= 0 {
		return ErrWorkersInvalid
	}
	return nil
}
