package main

import (
	"context"

	"github.com/spf13/cobra"

	"squint/internal/errors"
	"squint/internal/interactions"
	"squint/internal/process"
	"squint/internal/storage"
)

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Derive and inspect module interactions",
	Long: `Interactions are module-to-module dependencies. Call interactions are
summed from symbol calls; inferred ones are recorded by hand or by upstream
tools and are dropped when they cross process groups.

Examples:
  squint interactions derive
  squint interactions list
  squint interactions add api storage`,
}

var interactionsDeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive interactions from calls and gate inferred ones",
	Args:  cobra.NoArgs,
	Run:   runInteractionsDerive,
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored interactions",
	Args:  cobra.NoArgs,
	Run:   runInteractionsList,
}

var interactionsAddCmd = &cobra.Command{
	Use:   "add <from-module> <to-module>",
	Short: "Record an inferred interaction",
	Args:  cobra.ExactArgs(2),
	Run:   runInteractionsAdd,
}

func init() {
	interactionsCmd.AddCommand(interactionsDeriveCmd)
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsAddCmd)
	rootCmd.AddCommand(interactionsCmd)
}

func runInteractionsDerive(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()
	ctx := newContext()

	opts := s.mustOptions()
	result, err := s.engine().DeriveInteractions(ctx, opts)
	if err != nil {
		s.Close()
		exitWithError("Error deriving interactions", err)
	}

	paths, err := modulePaths(ctx, s.db)
	if err != nil {
		s.Close()
		exitWithError("Error listing interactions", err)
	}
	printResponse(&InteractionsResponseCLI{
		Interactions: interactionsCLI(result.Kept, paths),
		Dropped:      interactionsCLI(result.Dropped, paths),
	})
}

func runInteractionsList(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()
	ctx := newContext()

	list, err := storage.NewInteractionRepository(s.db).List(ctx)
	if err != nil {
		s.Close()
		exitWithError("Error listing interactions", errors.New(errors.StoreUnavailable, "Failed to load interactions", err))
	}
	paths, err := modulePaths(ctx, s.db)
	if err != nil {
		s.Close()
		exitWithError("Error listing interactions", err)
	}
	printResponse(&InteractionsResponseCLI{Interactions: interactionsCLI(list, paths)})
}

func runInteractionsAdd(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()
	ctx := newContext()

	id, from, to, err := addInferred(ctx, s.db, args[0], args[1])
	if err != nil {
		s.Close()
		exitWithError("Error adding interaction", err)
	}
	s.logger.Info("Inferred interaction recorded", "id", id, "from", from, "to", to)
	printResponse(&InteractionAddResponseCLI{ID: id, From: from, To: to})
}

// addInferred resolves both modules and records an inferred interaction.
func addInferred(ctx context.Context, db *storage.DB, fromArg, toArg string) (int64, string, string, error) {
	repo := storage.NewModuleRepository(db)
	from, err := resolveModule(ctx, repo, fromArg)
	if err != nil {
		return 0, "", "", err
	}
	to, err := resolveModule(ctx, repo, toArg)
	if err != nil {
		return 0, "", "", err
	}
	if from.ID == to.ID {
		return 0, "", "", errors.Newf(errors.InvalidParameter, "an interaction needs two different modules, got %s twice", from.FullPath)
	}
	id, err := storage.NewInteractionRepository(db).AddInferred(ctx, from.ID, to.ID)
	if err != nil {
		return 0, "", "", errors.New(errors.StoreUnavailable, "Failed to record interaction", err)
	}
	return id, from.FullPath, to.FullPath, nil
}

func interactionsCLI(list []interactions.Interaction, paths map[process.ModuleID]string) []InteractionCLI {
	out := make([]InteractionCLI, 0, len(list))
	for _, i := range list {
		out = append(out, InteractionCLI{Interaction: i, FromPath: paths[i.From], ToPath: paths[i.To]})
	}
	return out
}
