package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/doceo/internal/api"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "doceo %s (lesson API %s)\n", version, api.APIVersion)
	},
}
