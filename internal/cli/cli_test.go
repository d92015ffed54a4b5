package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hydrograph/watershed/pkg/types"
)

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "watershed v")
	require.Contains(t, out.String(), modulePath)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, exitSysError, exitCode(fmt.Errorf("topology: %w", types.ErrNoTopologyFields)))
	require.Equal(t, exitSysError, exitCode(fmt.Errorf("riv.geojson: %w", types.ErrMissingIDField)))
	require.Equal(t, exitUserError, exitCode(errors.New("unknown flag: --bogus")))
	require.Equal(t, exitUserError, exitCode(fmt.Errorf("config: %w", types.ErrPolicyUnknown)))
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".watershed")
	v, err := loadConfig(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, configFileExt))
	require.NoError(t, err, "default config.yaml should exist after first load")

	params, err := paramsFromConfig(v)
	require.NoError(t, err)
	require.Equal(t, types.DefaultParams(), params)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg := "snap_dist_m: 2500\nselection_policy: order-first\nworkers: 8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(cfg), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	params, err := paramsFromConfig(v)
	require.NoError(t, err)
	require.Equal(t, 2500.0, params.SnapDistanceM)
	require.Equal(t, types.PolicyOrderFirst, params.SelectionPolicy)
	require.Equal(t, 8, params.Workers)
}

func TestParamsFromConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cfg := "merge_mode: sideways\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(cfg), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	_, err = paramsFromConfig(v)
	require.ErrorIs(t, err, types.ErrMergeModeUnknown)
}
