package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hydrograph/watershed/internal/loader"
	"github.com/hydrograph/watershed/internal/process"
	"github.com/hydrograph/watershed/internal/snap"
	"github.com/hydrograph/watershed/internal/sqlite"
	"github.com/hydrograph/watershed/internal/topology"
	"github.com/hydrograph/watershed/pkg/types"
)

// runFlags holds flag values for the run command; each overrides its
// config-file counterpart when set.
type runFlags struct {
	rivers     string
	catchments string
	stations   string
	outRoot    string
	workers    int
	resume     bool
	noProgress bool
}

func newRunCmd() *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Delineate watersheds for every station in the batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, rf)
		},
	}
	cmd.Flags().StringVar(&rf.rivers, "rivers", "", "river network GeoJSON (overrides config)")
	cmd.Flags().StringVar(&rf.catchments, "catchments", "", "elementary catchment GeoJSON (overrides config)")
	cmd.Flags().StringVar(&rf.stations, "stations", "", "station CSV (overrides config)")
	cmd.Flags().StringVar(&rf.outRoot, "out", "", "output directory (overrides config)")
	cmd.Flags().IntVar(&rf.workers, "workers", 0, "concurrent station workers (overrides config)")
	cmd.Flags().BoolVar(&rf.resume, "resume", false, "skip stations accepted in earlier runs")
	cmd.Flags().BoolVar(&rf.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

func runBatch(cmd *cobra.Command, rf runFlags) error {
	v, err := loadConfig(resolveConfigDir())
	if err != nil {
		return err
	}
	params, err := paramsFromConfig(v)
	if err != nil {
		return err
	}
	if rf.workers > 0 {
		params.Workers = rf.workers
	}
	riversPath := pick(rf.rivers, v, cfgKeyReaches)
	catchmentsPath := pick(rf.catchments, v, cfgKeyCatchments)
	stationsPath := pick(rf.stations, v, cfgKeyStations)
	outRoot := pick(rf.outRoot, v, cfgKeyOutRoot)

	log, closeLog, err := newLogger(outRoot)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info("loading datasets",
		"rivers", riversPath, "catchments", catchmentsPath, "stations", stationsPath)
	reaches, err := loader.Reaches(riversPath)
	if err != nil {
		return err
	}
	catchments, err := loader.Catchments(catchmentsPath)
	if err != nil {
		return err
	}
	records, err := loader.Stations(stationsPath)
	if err != nil {
		return err
	}
	stations := loader.NormalizeAreas(records)
	log.Info("datasets loaded",
		"reaches", reaches.Len(), "catchments", catchments.Len(), "stations", len(stations))

	graph, err := topology.Build(reaches)
	if err != nil {
		return err
	}
	snapper, err := snap.NewSnapper(reaches)
	if err != nil {
		return err
	}

	store := &sqlite.Store{}
	if err := store.Open(filepath.Join(outRoot, "runs.db")); err != nil {
		return err
	}
	defer store.Close()

	opts := process.BatchOptions{Progress: !rf.noProgress}
	if rf.resume {
		done, err := store.CompletedStations()
		if err != nil {
			return err
		}
		opts.Skip = done
		log.Info("resuming", "completed", len(done))
	}

	runID, err := store.BeginRun(len(stations))
	if err != nil {
		return err
	}

	build := func() *process.Processor {
		return process.NewProcessor(reaches, catchments, graph, snapper, params, log)
	}
	results := process.RunBatch(stations, build, params.Workers, opts)

	accepted, rejected, failed := 0, 0, 0
	for _, res := range results {
		switch res.Verdict {
		case types.VerdictAccepted:
			accepted++
		case types.VerdictRejected:
			rejected++
		default:
			failed++
		}
		if err := store.SaveResult(runID, res); err != nil {
			return err
		}
		if err := writeStationOutput(outRoot, res); err != nil {
			return err
		}
	}
	if err := writeSummary(outRoot, results); err != nil {
		return err
	}
	if err := store.FinishRun(runID, accepted, rejected, failed); err != nil {
		return err
	}

	log.Info("batch finished",
		"run", runID, "accepted", accepted, "rejected", rejected, "failed", failed,
		"skipped", len(stations)-len(results))
	fmt.Fprintf(cmd.OutOrStdout(), "%d accepted, %d rejected, %d failed (%d skipped)\n",
		accepted, rejected, failed, len(stations)-len(results))
	return nil
}

// pick returns the flag value when set, otherwise the config value.
func pick(flag string, v *viper.Viper, key string) string {
	if flag != "" {
		return flag
	}
	return v.GetString(key)
}

// writeStationOutput saves the merged watershed under
// <out>/sites/<code>/watershed.geojson. Failed stations have no geometry
// and produce no file.
func writeStationOutput(outRoot string, res types.Result) error {
	if res.MergedGeoJSON == nil {
		return nil
	}
	dir := filepath.Join(outRoot, "sites", res.StationCode)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure site dir: %w", err)
	}
	path := filepath.Join(dir, "watershed.geojson")
	if err := os.WriteFile(path, res.MergedGeoJSON, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeSummary saves one CSV row per processed station.
func writeSummary(outRoot string, results []types.Result) error {
	path := filepath.Join(outRoot, "summary.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"station", "verdict", "outlet_comid", "snap_dist_m", "n_upstream",
		"fragments", "area_km2", "ref_area_km2", "rel_err_pct", "reason",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, res := range results {
		row := []string{
			res.StationCode,
			res.Verdict,
			strconv.FormatInt(res.OutletID, 10),
			strconv.FormatFloat(res.SnapDistanceM, 'f', 1, 64),
			strconv.Itoa(res.UpstreamCount),
			strconv.Itoa(res.Fragments),
			strconv.FormatFloat(res.ComputedAreaM2/1e6, 'f', 2, 64),
			strconv.FormatFloat(res.ReferenceAreaM2/1e6, 'f', 2, 64),
			res.ErrorPercent(),
			res.FailureReason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
