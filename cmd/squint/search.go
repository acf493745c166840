package main

import (
	"strings"

	"github.com/spf13/cobra"

	"squint/internal/errors"
	"squint/internal/storage"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search symbols by name",
	Long: `Search symbols by name and show the module each belongs to. Exact name
matches rank first, then prefix matches, then substring matches.

Examples:
  squint search Repository
  squint search handle --limit=50`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	query := strings.Join(args, " ")
	hits, err := storage.NewSymbolRepository(s.db).Search(newContext(), query, searchLimit)
	if err != nil {
		s.Close()
		exitWithError("Error searching symbols", errors.New(errors.StoreUnavailable, "Failed to search symbols", err))
	}
	if hits == nil {
		hits = []storage.SymbolHit{}
	}
	printResponse(&SearchResponseCLI{Query: query, Hits: hits})
}
