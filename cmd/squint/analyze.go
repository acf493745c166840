package main

import (
	"github.com/spf13/cobra"
)

var analyzeForce bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full inference pipeline",
	Long: `Run module detection, process-group classification, interaction
derivation and flow deduplication in one pass, and record the run.

The run is skipped when the store and options are unchanged since the last
analysis, unless --force is given.

Examples:
  squint analyze
  squint analyze --force --format=json`,
	Args: cobra.NoArgs,
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "Rerun even when the inputs are unchanged")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	opts := s.mustOptions()
	if cmd.Flags().Changed("force") {
		opts.Force = analyzeForce
	}

	result, err := s.engine().Analyze(newContext(), opts)
	if err != nil {
		s.Close()
		exitWithError("Error analyzing architecture", err)
	}
	printResponse(result)
}
