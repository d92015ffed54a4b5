package topology

import (
	"errors"
	"sort"
	"testing"

	"github.com/hydrograph/watershed/pkg/types"
)

func mustStore(t *testing.T, reaches []types.Reach) *types.ReachStore {
	t.Helper()
	s, err := types.NewReachStore(reaches)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func sorted(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildRequiresTopologyFields(t *testing.T) {
	s := mustStore(t, []types.Reach{{ID: 1}, {ID: 2}})
	_, err := Build(s)
	if !errors.Is(err, types.ErrNoTopologyFields) {
		t.Fatalf("got %v, want ErrNoTopologyFields", err)
	}
}

func TestBuildEmptyEncodingPresent(t *testing.T) {
	// The dataset carried a downstream column holding only zeros; the
	// loader records presence via the store flag and the build must yield
	// an empty graph rather than a construction error.
	s := mustStore(t, []types.Reach{{ID: 1}, {ID: 2}})
	s.HasDownstreamRefs = true
	g, err := Build(s)
	if err != nil {
		t.Fatal(err)
	}
	if ups := g.Upstream(1); len(ups) != 0 {
		t.Fatalf("Upstream(1) = %v, want empty", ups)
	}
}

func TestBuildIgnoresDanglingRefs(t *testing.T) {
	// 1 drains to 999 which is outside the store; no edge should result.
	s := mustStore(t, []types.Reach{
		{ID: 1, DownstreamID: 999},
		{ID: 2, DownstreamID: 1},
	})
	g, err := Build(s)
	if err != nil {
		t.Fatal(err)
	}
	if ups := g.Upstream(1); !equalIDs(ups, []int64{2}) {
		t.Fatalf("Upstream(1) = %v, want [2]", ups)
	}
	if ups := g.Upstream(999); len(ups) != 0 {
		t.Fatalf("Upstream(999) = %v, want empty", ups)
	}
}

// The same Y-shaped network encoded three ways must yield the same graph:
// 2 and 3 both drain into 1.
func TestBuildEncodingEquivalence(t *testing.T) {
	downstream := []types.Reach{
		{ID: 1},
		{ID: 2, DownstreamID: 1},
		{ID: 3, DownstreamID: 1},
	}
	upstream := []types.Reach{
		{ID: 1, UpstreamIDs: []int64{2, 3}},
		{ID: 2},
		{ID: 3},
	}
	both := []types.Reach{
		{ID: 1, UpstreamIDs: []int64{2, 3}},
		{ID: 2, DownstreamID: 1},
		{ID: 3, DownstreamID: 1},
	}
	for _, tc := range []struct {
		name    string
		reaches []types.Reach
	}{
		{"downstream refs", downstream},
		{"upstream refs", upstream},
		{"both refs", both},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Build(mustStore(t, tc.reaches))
			if err != nil {
				t.Fatal(err)
			}
			if ups := g.Upstream(1); !equalIDs(ups, []int64{2, 3}) {
				t.Fatalf("Upstream(1) = %v, want [2 3]", ups)
			}
			trace, err := g.TraceUpstream(1, 100)
			if err != nil {
				t.Fatal(err)
			}
			if !equalIDs(sorted(trace), []int64{1, 2, 3}) {
				t.Fatalf("trace = %v, want {1,2,3}", trace)
			}
		})
	}
}

func TestTraceUpstreamReflexive(t *testing.T) {
	// A headwater's trace is exactly itself.
	s := mustStore(t, []types.Reach{
		{ID: 1},
		{ID: 2, DownstreamID: 1},
	})
	g, err := Build(s)
	if err != nil {
		t.Fatal(err)
	}
	trace, err := g.TraceUpstream(2, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(trace, []int64{2}) {
		t.Fatalf("trace = %v, want [2]", trace)
	}
}

func TestTraceUpstreamSharedTributaryOnce(t *testing.T) {
	// Diamond: 4 feeds both 2 and 3, which feed 1.
	s := mustStore(t, []types.Reach{
		{ID: 1, UpstreamIDs: []int64{2, 3}},
		{ID: 2, UpstreamIDs: []int64{4}},
		{ID: 3, UpstreamIDs: []int64{4}},
		{ID: 4},
	})
	g, err := Build(s)
	if err != nil {
		t.Fatal(err)
	}
	trace, err := g.TraceUpstream(1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(sorted(trace), []int64{1, 2, 3, 4}) {
		t.Fatalf("trace = %v, want {1,2,3,4}", trace)
	}
}

func TestTraceUpstreamCycleTerminates(t *testing.T) {
	// Corrupt data: 1 and 2 reference each other.
	s := mustStore(t, []types.Reach{
		{ID: 1, DownstreamID: 2},
		{ID: 2, DownstreamID: 1},
	})
	g, err := Build(s)
	if err != nil {
		t.Fatal(err)
	}
	trace, err := g.TraceUpstream(1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(sorted(trace), []int64{1, 2}) {
		t.Fatalf("trace = %v, want {1,2}", trace)
	}
}

func TestTraceUpstreamCap(t *testing.T) {
	// Chain of 5 reaches; a cap of 3 must reject the whole trace.
	reaches := []types.Reach{{ID: 1}}
	for id := int64(2); id <= 5; id++ {
		reaches = append(reaches, types.Reach{ID: id, DownstreamID: id - 1})
	}
	g, err := Build(mustStore(t, reaches))
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.TraceUpstream(1, 3)
	if !errors.Is(err, types.ErrNetworkTooLarge) {
		t.Fatalf("got %v, want ErrNetworkTooLarge", err)
	}
	// At exactly the cap the trace succeeds.
	if _, err := g.TraceUpstream(1, 5); err != nil {
		t.Fatalf("trace at cap failed: %v", err)
	}
}
