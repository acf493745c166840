package main

import (
	"github.com/spf13/cobra"

	"squint/internal/version"
)

var (
	// verbosity is the count of -v flags
	verbosity int
	quiet     bool
	// formatFlag is the output format of every command
	formatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "squint",
	Short: "squint - architecture inference for indexed codebases",
	Long: `squint infers the architecture of a codebase from its symbol graph.

It ingests a SCIP index, groups symbols into cohesive modules with Louvain
community detection, classifies which modules share a process, derives
module interactions and deduplicates flow candidates.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("squint version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, human)")
}
