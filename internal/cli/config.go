// Config loading for the watershed CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/hydrograph/watershed/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyReaches    = "riv_geojson"
	cfgKeyCatchments = "cat_geojson"
	cfgKeyStations   = "stations_csv"
	cfgKeyOutRoot    = "out_root"
	cfgKeySnapDist   = "snap_dist_m"
	cfgKeyPolicy     = "selection_policy"
	cfgKeyMaxUp      = "max_up_reach"
	cfgKeyAreaTol    = "area_tol"
	cfgKeyGapEpsilon = "gap_epsilon_deg"
	cfgKeyMinHole    = "min_hole_km2"
	cfgKeyMergeMode  = "merge_mode"
	cfgKeyWorkers    = "workers"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Watershed delineation configuration

# Input datasets
riv_geojson: riv.geojson
cat_geojson: cat.geojson
stations_csv: stations.csv

# Output directory
out_root: out

# Snapping
snap_dist_m: 5000
selection_policy: distance-first

# Tracing
max_up_reach: 100000

# Merging
gap_epsilon_deg: 0.0001
min_hole_km2: 1.0
merge_mode: both

# Validation
area_tol: 0.20

# Concurrency
workers: 4
`

// loadConfig reads config.yaml from the config directory using Viper. It
// creates the directory and a default config.yaml on first run; a missing
// file after that is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	defaults := types.DefaultParams()
	v.SetDefault(cfgKeyReaches, "riv.geojson")
	v.SetDefault(cfgKeyCatchments, "cat.geojson")
	v.SetDefault(cfgKeyStations, "stations.csv")
	v.SetDefault(cfgKeyOutRoot, "out")
	v.SetDefault(cfgKeySnapDist, defaults.SnapDistanceM)
	v.SetDefault(cfgKeyPolicy, defaults.SelectionPolicy)
	v.SetDefault(cfgKeyMaxUp, defaults.MaxUpstreamReaches)
	v.SetDefault(cfgKeyAreaTol, defaults.AreaTolerance)
	v.SetDefault(cfgKeyGapEpsilon, defaults.GapEpsilonDeg)
	v.SetDefault(cfgKeyMinHole, defaults.MinHoleKm2)
	v.SetDefault(cfgKeyMergeMode, defaults.MergeMode)
	v.SetDefault(cfgKeyWorkers, defaults.Workers)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// paramsFromConfig assembles and validates engine parameters from the
// loaded configuration.
func paramsFromConfig(v *viper.Viper) (types.Params, error) {
	p := types.Params{
		SnapDistanceM:      v.GetFloat64(cfgKeySnapDist),
		SelectionPolicy:    v.GetString(cfgKeyPolicy),
		MaxUpstreamReaches: v.GetInt(cfgKeyMaxUp),
		GapEpsilonDeg:      v.GetFloat64(cfgKeyGapEpsilon),
		MinHoleKm2:         v.GetFloat64(cfgKeyMinHole),
		AreaTolerance:      v.GetFloat64(cfgKeyAreaTol),
		MergeMode:          v.GetString(cfgKeyMergeMode),
		Workers:            v.GetInt(cfgKeyWorkers),
	}
	if err := p.Validate(); err != nil {
		return types.Params{}, fmt.Errorf("config: %w", err)
	}
	return p, nil
}
