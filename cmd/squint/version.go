package main

import (
	"github.com/spf13/cobra"

	"squint/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printResponse(&VersionResponseCLI{Fields: version.Fields()})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
