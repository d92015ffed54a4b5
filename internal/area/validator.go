// Package area measures watershed geometries and compares them against
// published drainage areas.
package area

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/hydrograph/watershed/pkg/types"
)

// OfGeometry returns the geodesic area of a geographic geometry in m².
func OfGeometry(g orb.Geometry) float64 {
	return math.Abs(geo.Area(g))
}

// Validate compares a computed area with a station's reference area and
// returns the verdict plus the relative error. A missing reference (ref <= 0)
// accepts unconditionally with a NaN error, since there is nothing to check
// against.
func Validate(computedM2, refM2, tolerance float64) (verdict string, relErr float64) {
	if refM2 <= 0 {
		return types.VerdictAccepted, math.NaN()
	}
	relErr = math.Abs(computedM2-refM2) / refM2
	if relErr <= tolerance {
		return types.VerdictAccepted, relErr
	}
	return types.VerdictRejected, relErr
}
