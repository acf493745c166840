package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"squint/internal/errors"
	"squint/internal/process"
	"squint/internal/storage"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Classify and inspect process groups",
	Long: `A process group is a set of modules connected by runtime (non type-only)
imports. Modules in different groups cannot call each other in-process.

Examples:
  squint groups classify
  squint groups list
  squint groups check api storage`,
}

var groupsClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify modules into process groups",
	Args:  cobra.NoArgs,
	Run:   runGroupsClassify,
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored process groups",
	Args:  cobra.NoArgs,
	Run:   runGroupsList,
}

var groupsCheckCmd = &cobra.Command{
	Use:   "check <module-a> <module-b>",
	Short: "Check whether two modules share a process",
	Long: `Check whether two modules share a process. Modules are given by id, by
full path ("project.api") or by name below the root ("api"). A module without
a group counts as same-process with everything.`,
	Args: cobra.ExactArgs(2),
	Run:  runGroupsCheck,
}

func init() {
	groupsCmd.AddCommand(groupsClassifyCmd)
	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsCheckCmd)
	rootCmd.AddCommand(groupsCmd)
}

func runGroupsClassify(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()
	ctx := newContext()

	opts := s.mustOptions()
	groups, err := s.engine().ClassifyGroups(ctx, opts)
	if err != nil {
		s.Close()
		exitWithError("Error classifying process groups", err)
	}

	resp, err := groupsResponse(ctx, s.db, groups)
	if err != nil {
		s.Close()
		exitWithError("Error listing process groups", err)
	}
	printResponse(resp)
}

func runGroupsList(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()
	ctx := newContext()

	groups, err := storage.NewModuleRepository(s.db).ProcessGroups(ctx)
	if err != nil {
		s.Close()
		exitWithError("Error loading process groups", errors.New(errors.StoreUnavailable, "Failed to load process groups", err))
	}
	resp, err := groupsResponse(ctx, s.db, groups)
	if err != nil {
		s.Close()
		exitWithError("Error listing process groups", err)
	}
	printResponse(resp)
}

func runGroupsCheck(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()
	ctx := newContext()

	repo := storage.NewModuleRepository(s.db)
	a, err := resolveModule(ctx, repo, args[0])
	if err != nil {
		s.Close()
		exitWithError("Error resolving module", err)
	}
	b, err := resolveModule(ctx, repo, args[1])
	if err != nil {
		s.Close()
		exitWithError("Error resolving module", err)
	}
	groups, err := repo.ProcessGroups(ctx)
	if err != nil {
		s.Close()
		exitWithError("Error loading process groups", errors.New(errors.StoreUnavailable, "Failed to load process groups", err))
	}

	printResponse(&GroupCheckResponseCLI{
		A:           a.FullPath,
		B:           b.FullPath,
		GroupA:      a.ProcessGroup,
		GroupB:      b.ProcessGroup,
		SameProcess: process.AreSameProcess(a.ID, b.ID, groups),
	})
}

// groupsResponse resolves the module paths of every group.
func groupsResponse(ctx context.Context, db *storage.DB, groups *process.Groups) (*GroupsResponseCLI, error) {
	resp := &GroupsResponseCLI{Groups: []GroupCLI{}}
	if groups == nil {
		return resp, nil
	}
	paths, err := modulePaths(ctx, db)
	if err != nil {
		return nil, err
	}

	ids := make([]process.GroupID, 0, len(groups.GroupToModules))
	for id := range groups.GroupToModules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		g := GroupCLI{ID: id, Modules: []string{}}
		for _, m := range groups.Members(id) {
			g.Modules = append(g.Modules, paths[m])
		}
		resp.Groups = append(resp.Groups, g)
	}
	resp.GroupCount = groups.GroupCount
	resp.CrossGroupPairs = len(process.CrossGroupPairs(groups))
	return resp, nil
}

func groupLabel(g *process.GroupID) string {
	if g == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *g)
}
