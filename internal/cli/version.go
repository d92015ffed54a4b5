package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/hydrograph/watershed"

// Version is the tool version, overridable at link time.
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the watershed version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "watershed v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
