package merge

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/hydrograph/watershed/pkg/types"
)

func encode(t *testing.T, g orb.Geometry) []byte {
	t.Helper()
	data, err := wkb.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestMergeEmptyInput(t *testing.T) {
	m := NewMerger()
	_, err := m.Merge(nil, types.DefaultParams())
	if !errors.Is(err, types.ErrNoMatchingCatchments) {
		t.Fatalf("got %v, want ErrNoMatchingCatchments", err)
	}
}

func TestMergeAdjacentSquares(t *testing.T) {
	m := NewMerger()
	wkbs := [][]byte{
		encode(t, square(0, 0, 1, 1)),
		encode(t, square(1, 0, 2, 1)),
	}
	got, err := m.Merge(wkbs, types.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if got.Fragments != 1 {
		t.Fatalf("got %d fragments, want 1", got.Fragments)
	}
	if got.Repaired != 0 {
		t.Fatalf("got %d repaired, want 0", got.Repaired)
	}
}

func TestMergeGapClosing(t *testing.T) {
	// Two squares separated by a 0.00005° sliver, half the default
	// epsilon. The buffer round trip must weld them; a much smaller
	// epsilon must leave them apart.
	wkbs := [][]byte{
		encode(t, square(0, 0, 1, 1)),
		encode(t, square(1.00005, 0, 2, 1)),
	}

	t.Run("epsilon closes gap", func(t *testing.T) {
		m := NewMerger()
		got, err := m.Merge(wkbs, types.DefaultParams())
		if err != nil {
			t.Fatal(err)
		}
		if got.Fragments != 1 {
			t.Fatalf("got %d fragments, want 1", got.Fragments)
		}
	})

	t.Run("tiny epsilon leaves gap", func(t *testing.T) {
		m := NewMerger()
		params := types.DefaultParams()
		params.GapEpsilonDeg = 1e-7
		got, err := m.Merge(wkbs, params)
		if err != nil {
			t.Fatal(err)
		}
		if got.Fragments != 2 {
			t.Fatalf("got %d fragments, want 2", got.Fragments)
		}
	})
}

func TestMergeHoleFilter(t *testing.T) {
	// A 1°×1° polygon with two holes: 0.0025 deg² (~25 km², kept) and
	// 2.5e-5 deg² (~0.25 km², dropped). MergeModeHoles skips the buffer
	// pass so the rings arrive untouched.
	outer := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	bigHole := orb.Ring{{0.2, 0.2}, {0.2, 0.25}, {0.25, 0.25}, {0.25, 0.2}, {0.2, 0.2}}
	tinyHole := orb.Ring{{0.7, 0.7}, {0.7, 0.705}, {0.705, 0.705}, {0.705, 0.7}, {0.7, 0.7}}
	poly := orb.Polygon{outer, bigHole, tinyHole}

	m := NewMerger()
	params := types.DefaultParams()
	params.MergeMode = types.MergeModeHoles
	got, err := m.Merge([][]byte{encode(t, poly)}, params)
	if err != nil {
		t.Fatal(err)
	}
	if got.HolesRemoved != 1 {
		t.Fatalf("got %d holes removed, want 1", got.HolesRemoved)
	}
	result, ok := got.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("got %T, want orb.Polygon", got.Geometry)
	}
	if len(result) != 2 {
		t.Fatalf("got %d rings, want outer plus one surviving hole", len(result))
	}
}

func TestMergeHoleThresholds(t *testing.T) {
	// One interior ring of 0.00005 deg², about 0.5 km² under the fixed
	// conversion. A 1 km² floor removes it; a 0.1 km² floor keeps it.
	outer := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	hole := orb.Ring{{0.5, 0.5}, {0.5, 0.51}, {0.505, 0.51}, {0.505, 0.5}, {0.5, 0.5}}
	poly := orb.Polygon{outer, hole}

	for _, tc := range []struct {
		name      string
		minKm2    float64
		wantRings int
	}{
		{"floor above hole removes it", 1.0, 1},
		{"floor below hole keeps it", 0.1, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMerger()
			params := types.DefaultParams()
			params.MergeMode = types.MergeModeHoles
			params.MinHoleKm2 = tc.minKm2
			got, err := m.Merge([][]byte{encode(t, poly)}, params)
			if err != nil {
				t.Fatal(err)
			}
			result, ok := got.Geometry.(orb.Polygon)
			if !ok {
				t.Fatalf("got %T, want orb.Polygon", got.Geometry)
			}
			if len(result) != tc.wantRings {
				t.Fatalf("got %d rings, want %d", len(result), tc.wantRings)
			}
		})
	}
}

func TestMergeRepairsBowTie(t *testing.T) {
	// Self-intersecting ring; stage one must repair it before the union.
	bowtie := orb.Polygon{{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}}
	m := NewMerger()
	got, err := m.Merge([][]byte{encode(t, bowtie)}, types.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if got.Repaired != 1 {
		t.Fatalf("got %d repaired, want 1", got.Repaired)
	}
}
