package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fmuoria/cv-auditor/internal/api"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
	},
}

func init() {
	api.Version = version
	rootCmd.AddCommand(versionCmd)
}
