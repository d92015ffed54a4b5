// Package process runs the delineation pipeline: snap, trace, merge,
// validate. One Processor handles one station at a time; the batch runner
// fans stations out over a pool of Processors.
package process

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb/geojson"

	"github.com/hydrograph/watershed/internal/area"
	"github.com/hydrograph/watershed/internal/merge"
	"github.com/hydrograph/watershed/internal/snap"
	"github.com/hydrograph/watershed/internal/topology"
	"github.com/hydrograph/watershed/pkg/types"
)

// Processor delineates watersheds against a fixed set of inputs. The stores,
// graph, and snapper are shared read-only; the merger wraps a GEOS context
// and is private to the Processor, so use one Processor per goroutine.
type Processor struct {
	Reaches    *types.ReachStore
	Catchments *types.CatchmentStore
	Graph      *topology.Graph
	Snapper    *snap.Snapper
	Params     types.Params

	merger *merge.Merger
	log    *slog.Logger
}

// NewProcessor builds a Processor with its own merge engine.
func NewProcessor(reaches *types.ReachStore, catchments *types.CatchmentStore,
	graph *topology.Graph, snapper *snap.Snapper, params types.Params,
	log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		Reaches:    reaches,
		Catchments: catchments,
		Graph:      graph,
		Snapper:    snapper,
		Params:     params,
		merger:     merge.NewMerger(),
		log:        log,
	}
}

// ProcessStation delineates one station. It always returns a Result: any
// pipeline error, including a panic out of the geometry engine, becomes a
// failed Result rather than aborting the batch.
func (p *Processor) ProcessStation(st types.Station) (res types.Result) {
	res = types.Result{
		StationCode:     st.Code,
		ReferenceAreaM2: st.RefAreaM2,
		RelativeError:   math.NaN(),
	}
	defer func() {
		if r := recover(); r != nil {
			res.Verdict = types.VerdictFailed
			res.FailureReason = fmt.Sprintf("panic: %v", r)
			p.log.Error("station panicked", "station", st.Code, "panic", r)
		}
	}()

	if err := st.Validate(); err != nil {
		return p.fail(res, err)
	}

	cand, err := p.Snapper.Snap(st.Lon, st.Lat, p.Params)
	if err != nil {
		return p.fail(res, err)
	}
	res.OutletID = cand.ReachID
	res.SnapDistanceM = cand.DistanceM

	upstream, err := p.Graph.TraceUpstream(cand.ReachID, p.Params.MaxUpstreamReaches)
	if err != nil {
		return p.fail(res, err)
	}
	res.UpstreamCount = len(upstream)

	wkbs := p.Catchments.Collect(upstream)
	if len(wkbs) == 0 {
		return p.fail(res, fmt.Errorf("outlet %d: %d upstream reaches: %w",
			cand.ReachID, len(upstream), types.ErrNoMatchingCatchments))
	}

	merged, err := p.merger.Merge(wkbs, p.Params)
	if err != nil {
		return p.fail(res, err)
	}
	res.Fragments = merged.Fragments
	if merged.Fragments > 1 {
		p.log.Warn("watershed is not contiguous",
			"station", st.Code, "fragments", merged.Fragments)
	}
	res.ComputedAreaM2 = area.OfGeometry(merged.Geometry)

	res.Verdict, res.RelativeError = area.Validate(
		res.ComputedAreaM2, st.RefAreaM2, p.Params.AreaTolerance)
	if res.Verdict == types.VerdictRejected {
		res.FailureReason = fmt.Sprintf(
			"computed area %.1f km² differs from reference %.1f km² by %s",
			res.ComputedAreaM2/1e6, st.RefAreaM2/1e6, res.ErrorPercent())
	}

	feature := geojson.NewFeature(merged.Geometry)
	feature.Properties = geojson.Properties{
		"station":       st.Code,
		"outlet_comid":  res.OutletID,
		"snap_dist_m":   res.SnapDistanceM,
		"n_upstream":    res.UpstreamCount,
		"fragments":     res.Fragments,
		"area_m2":       res.ComputedAreaM2,
		"verdict":       res.Verdict,
		"holes_removed": merged.HolesRemoved,
	}
	data, err := feature.MarshalJSON()
	if err != nil {
		return p.fail(res, fmt.Errorf("encode watershed: %w", err))
	}
	res.MergedGeoJSON = data

	p.log.Debug("station delineated",
		"station", st.Code,
		"outlet", res.OutletID,
		"upstream", res.UpstreamCount,
		"verdict", res.Verdict)
	return res
}

func (p *Processor) fail(res types.Result, err error) types.Result {
	res.Verdict = types.VerdictFailed
	res.FailureReason = err.Error()
	p.log.Warn("station failed", "station", res.StationCode, "reason", err)
	return res
}
