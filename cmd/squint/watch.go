package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"squint/internal/backends/scip"
	"squint/internal/watcher"
)

var (
	watchIndexPath string
	watchDebounce  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-ingest and re-analyze when the SCIP index changes",
	Long: `Watch the SCIP index and run ingest followed by analyze whenever it
changes. Writes are debounced so an indexer rewriting the file in several
steps triggers a single run. The pipeline also runs once at startup.

Stop with Ctrl-C.

Examples:
  squint watch
  squint watch --index build/index.scip --debounce 2s`,
	Args: cobra.NoArgs,
	Run:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchIndexPath, "index", "", "Path to the SCIP index (default: ingest.indexPath from config)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a run (default: ingest.watchDebounceMs from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	delay := time.Duration(s.cfg.Ingest.WatchDebounceMs) * time.Millisecond
	if watchDebounce > 0 {
		delay = watchDebounce
	}
	indexPath := s.indexPath(watchIndexPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(indexPath); err == nil {
		s.refresh(ctx, indexPath)
	}

	w, err := watcher.New(indexPath, delay, s.logger, func(ctx context.Context) {
		s.refresh(ctx, indexPath)
	})
	if err != nil {
		s.Close()
		exitWithError("Error starting watcher", err)
	}
	if err := w.Run(ctx); err != nil {
		s.Close()
		exitWithError("Error watching index", err)
	}
	s.logger.Info("Watch stopped", "runs", w.Changes())
}

// refresh ingests the index and reruns the pipeline. Failures are logged so
// the watch keeps going.
func (s *session) refresh(ctx context.Context, indexPath string) {
	ingestOpts, err := s.ingestOptions(false)
	if err != nil {
		s.logger.Error("Failed to read exclude patterns", "error", err.Error())
		return
	}
	ingested, err := scip.NewIngester(s.db, s.logger).Ingest(ctx, indexPath, ingestOpts)
	if err != nil {
		s.logger.Error("Ingest failed", "error", err.Error())
		return
	}

	opts, err := s.options()
	if err != nil {
		s.logger.Error("Failed to load layer overrides", "error", err.Error())
		return
	}
	result, err := s.engine().Analyze(ctx, opts)
	if err != nil {
		s.logger.Error("Analysis failed", "error", err.Error())
		return
	}
	if ingested.Skipped && result.Skipped {
		return
	}
	printResponse(result)
}
