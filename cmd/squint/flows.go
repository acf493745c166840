package main

import (
	"github.com/spf13/cobra"

	"squint/internal/errors"
	"squint/internal/flows"
	"squint/internal/paths"
	"squint/internal/storage"
)

var flowsImportFile string

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Import, deduplicate and inspect flow candidates",
	Long: `Flows are higher-level behaviours expressed as sets of interactions. Flow
candidates are produced upstream and imported from TOML, YAML or JSON files;
dedup removes true duplicates and then flows whose interaction sets overlap a
preferred flow of the same tier.

Examples:
  squint flows import --file flows.toml
  squint flows dedup
  squint flows list`,
}

var flowsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import flow candidates from a file",
	Args:  cobra.NoArgs,
	Run:   runFlowsImport,
}

var flowsDedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Deduplicate stored flow candidates",
	Args:  cobra.NoArgs,
	Run:   runFlowsDedup,
}

var flowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored flows",
	Args:  cobra.NoArgs,
	Run:   runFlowsList,
}

func init() {
	flowsImportCmd.Flags().StringVar(&flowsImportFile, "file", "", "Flow candidate file (.toml, .yaml, .yml or .json)")
	_ = flowsImportCmd.MarkFlagRequired("file")

	flowsCmd.AddCommand(flowsImportCmd)
	flowsCmd.AddCommand(flowsDedupCmd)
	flowsCmd.AddCommand(flowsListCmd)
	rootCmd.AddCommand(flowsCmd)
}

func runFlowsImport(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	file := paths.ResolveRepoPath(s.repoRoot, flowsImportFile)
	candidates, err := flows.LoadFile(file)
	if err != nil {
		s.Close()
		exitWithError("Error reading flow candidates", errors.New(errors.InvalidParameter, "Failed to load flow candidates", err))
	}
	imported, err := storage.NewFlowRepository(s.db).Insert(newContext(), candidates)
	if err != nil {
		s.Close()
		exitWithError("Error importing flow candidates", errors.New(errors.StoreUnavailable, "Failed to store flow candidates", err))
	}
	s.logger.Info("Flow candidates imported", "file", file, "count", len(imported))
	printResponse(&FlowImportResponseCLI{File: file, Imported: imported})
}

func runFlowsDedup(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	opts := s.mustOptions()
	result, err := s.engine().DedupFlows(newContext(), opts)
	if err != nil {
		s.Close()
		exitWithError("Error deduplicating flows", err)
	}

	dropped := append(append([]flows.Drop{}, result.Identical...), result.Overlapping...)
	printResponse(&FlowsResponseCLI{Flows: result.Kept, Dropped: dropped})
}

func runFlowsList(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	list, err := storage.NewFlowRepository(s.db).List(newContext())
	if err != nil {
		s.Close()
		exitWithError("Error listing flows", errors.New(errors.StoreUnavailable, "Failed to load flows", err))
	}
	if list == nil {
		list = []flows.Flow{}
	}
	printResponse(&FlowsResponseCLI{Flows: list})
}
