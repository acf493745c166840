package main

import (
	"context"

	"github.com/spf13/cobra"

	"squint/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the store holds",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	resp, err := collectStatus(newContext(), s.repoRoot, s.db)
	if err != nil {
		s.Close()
		exitWithError("Error reading status", err)
	}
	printResponse(resp)
}

// collectStatus counts every table the pipeline writes.
func collectStatus(ctx context.Context, repoRoot string, db *storage.DB) (*StatusResponseCLI, error) {
	resp := &StatusResponseCLI{RepoRoot: repoRoot, Database: db.Path()}

	var err error
	if resp.Files, resp.Symbols, err = storage.NewSymbolRepository(db).Counts(ctx); err != nil {
		return nil, err
	}
	if resp.CallEdges, resp.Imports, err = storage.NewEdgeRepository(db).Counts(ctx); err != nil {
		return nil, err
	}
	if resp.Modules, err = storage.NewModuleRepository(db).Count(ctx); err != nil {
		return nil, err
	}
	if resp.Interactions, err = storage.NewInteractionRepository(db).Count(ctx); err != nil {
		return nil, err
	}
	if resp.Flows, err = storage.NewFlowRepository(db).Count(ctx); err != nil {
		return nil, err
	}

	runs := storage.NewRunRepository(db)
	if resp.LastIngest, err = runs.Latest(ctx, storage.RunKindIngest); err != nil {
		return nil, err
	}
	if resp.LastAnalyze, err = runs.Latest(ctx, storage.RunKindAnalyze); err != nil {
		return nil, err
	}
	return resp, nil
}
