package main

import (
	"time"

	"github.com/spf13/cobra"

	"squint/internal/backends/scip"
)

var (
	ingestIndexPath string
	ingestForce     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a SCIP index into the store",
	Long: `Load files, symbols, call edges and file imports from a SCIP index.

The index is produced by an external indexer (scip-go, scip-typescript, ...).
Ingesting replaces all previously stored index data and clears modules and
interactions, which the next analysis rebuilds. An index identical to the
last ingested one is skipped unless --force is given.

Documents matching ingest.exclude from config or a pattern in
.squintignore at the repository root are left out.

Examples:
  squint ingest
  squint ingest --index build/index.scip
  squint ingest --force --format=json`,
	Args: cobra.NoArgs,
	Run:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestIndexPath, "index", "", "Path to the SCIP index (default: ingest.indexPath from config)")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "Ingest even when the index is unchanged")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	start := time.Now()
	s := mustOpenSession()
	defer s.Close()

	opts, err := s.ingestOptions(ingestForce)
	if err != nil {
		s.Close()
		exitWithError("Error reading exclude patterns", err)
	}

	result, err := scip.NewIngester(s.db, s.logger).Ingest(newContext(), s.indexPath(ingestIndexPath), opts)
	if err != nil {
		s.Close()
		exitWithError("Error ingesting index", err)
	}
	printResponse(result)

	s.logger.Debug("Ingest command completed", "duration", time.Since(start).Milliseconds())
}
