// Package cli implements the watershed command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hydrograph/watershed/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "watershed" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "watershed",
		Short: "Delineate upstream watersheds for gauging stations",
		Long: "Watershed snaps gauging stations onto a river network, traces the\n" +
			"upstream reach set, and dissolves the matching elementary catchments\n" +
			"into one watershed polygon per station.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .watershed)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newStationCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps an error to the process exit code: dataset-level errors that
// abort the whole run exit with exitSysError, everything else (bad flags,
// bad config, missing files) with exitUserError.
func exitCode(err error) int {
	for _, sys := range []error{
		types.ErrNoTopologyFields,
		types.ErrMissingIDField,
		types.ErrDuplicateReachID,
		types.ErrEmptyDataset,
	} {
		if errors.Is(err, sys) {
			return exitSysError
		}
	}
	return exitUserError
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() string {
	if flags.configDir != "" {
		return flags.configDir
	}
	if v := os.Getenv("WATERSHED_CONFIG_DIR"); v != "" {
		return v
	}
	return ".watershed"
}

// newLogger builds the run logger: console plus, when outRoot is set, a
// run.log file under it.
func newLogger(outRoot string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	w := io.Writer(os.Stderr)
	cleanup := func() {}
	if outRoot != "" {
		if err := os.MkdirAll(outRoot, 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure output dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(outRoot, "run.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open run log: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		cleanup = func() { f.Close() }
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return log, cleanup, nil
}
