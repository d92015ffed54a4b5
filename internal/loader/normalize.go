package loader

import (
	"sort"

	"github.com/hydrograph/watershed/pkg/types"
)

// km2Threshold separates km² tables from m² tables: no gauged catchment in a
// regional table reaches 10⁶ km², and none worth gauging is under 10⁶ m².
const km2Threshold = 1e6

// NormalizeAreas converts the station records into engine Stations with
// reference areas in m². Source tables state areas in km² or m² without
// declaring the unit, so the unit is inferred from the median positive
// value: a median below km2Threshold means the table is in km².
func NormalizeAreas(records []StationRecord) []types.Station {
	var positive []float64
	for _, r := range records {
		if r.Area > 0 {
			positive = append(positive, r.Area)
		}
	}
	factor := 1.0
	if len(positive) > 0 && median(positive) < km2Threshold {
		factor = 1e6
	}
	stations := make([]types.Station, len(records))
	for i, r := range records {
		stations[i] = types.Station{
			Code: r.Code,
			Lon:  r.Lon,
			Lat:  r.Lat,
		}
		if r.Area > 0 {
			stations[i].RefAreaM2 = r.Area * factor
		}
	}
	return stations
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
