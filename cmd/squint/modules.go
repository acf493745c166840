package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"squint/internal/architecture"
	"squint/internal/errors"
	"squint/internal/graph"
	"squint/internal/process"
	"squint/internal/storage"
)

var (
	modulesResolution float64
	modulesMinSize    int
	modulesMembers    bool
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Detect and inspect modules",
	Long: `Modules are cohesive groups of symbols found by Louvain community detection
over the call graph.

Examples:
  squint modules detect
  squint modules detect --resolution=1.5 --min-size=4
  squint modules list --members`,
}

var modulesDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect modules from the call graph",
	Args:  cobra.NoArgs,
	Run:   runModulesDetect,
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored modules with their key symbols",
	Args:  cobra.NoArgs,
	Run:   runModulesList,
}

func init() {
	modulesDetectCmd.Flags().Float64Var(&modulesResolution, "resolution", 0, "Modularity resolution (default: community.resolution from config)")
	modulesDetectCmd.Flags().IntVar(&modulesMinSize, "min-size", 0, "Smallest community emitted as a module (default: community.minCommunitySize from config)")
	modulesListCmd.Flags().BoolVar(&modulesMembers, "members", false, "List every member symbol")

	modulesCmd.AddCommand(modulesDetectCmd)
	modulesCmd.AddCommand(modulesListCmd)
	rootCmd.AddCommand(modulesCmd)
}

func runModulesDetect(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()

	opts := s.mustOptions()
	if cmd.Flags().Changed("resolution") {
		opts.Community.Resolution = modulesResolution
	}
	if cmd.Flags().Changed("min-size") {
		opts.Community.MinCommunitySize = modulesMinSize
	}

	result, err := s.engine().DetectModules(newContext(), opts)
	if err != nil {
		s.Close()
		exitWithError("Error detecting modules", err)
	}
	printResponse(result)
}

func runModulesList(cmd *cobra.Command, args []string) {
	s := mustOpenSession()
	defer s.Close()
	ctx := newContext()

	resp, err := listModules(ctx, s.db, modulesMembers)
	if err != nil {
		s.Close()
		exitWithError("Error listing modules", err)
	}
	printResponse(resp)
}

// listModules loads modules below the root with symbol names resolved.
func listModules(ctx context.Context, db *storage.DB, members bool) (*ModulesResponseCLI, error) {
	modules, err := storage.NewModuleRepository(db).List(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "Failed to load modules", err)
	}
	symbols, err := storage.NewSymbolRepository(db).All(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "Failed to load symbols", err)
	}
	names := make(map[graph.SymbolID]string, len(symbols))
	for _, sym := range symbols {
		names[sym.ID] = sym.Name
	}

	resp := &ModulesResponseCLI{Modules: []ModuleCLI{}}
	for _, m := range modules {
		if m.Depth == 0 {
			continue
		}
		out := ModuleCLI{
			ID:           m.ID,
			FullPath:     m.FullPath,
			Layer:        m.Layer,
			ProcessGroup: m.ProcessGroup,
			MemberCount:  len(m.Members),
		}
		for _, k := range m.KeySymbols {
			out.KeySymbols = append(out.KeySymbols, names[k.SymbolID])
		}
		if members {
			for _, mem := range m.Members {
				out.Members = append(out.Members, names[mem.SymbolID])
			}
		}
		resp.Modules = append(resp.Modules, out)
	}
	return resp, nil
}

// resolveModule finds a module by id, full path, or path below the root
// ("api" for "project.api").
func resolveModule(ctx context.Context, repo *storage.ModuleRepository, arg string) (*storage.Module, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		modules, err := repo.List(ctx)
		if err != nil {
			return nil, errors.New(errors.StoreUnavailable, "Failed to load modules", err)
		}
		for i := range modules {
			if modules[i].ID == process.ModuleID(id) {
				return &modules[i], nil
			}
		}
		return nil, errors.Newf(errors.InvalidParameter, "no module with id %d", id)
	}

	candidates := []string{arg}
	if !strings.HasPrefix(arg, architecture.RootPath+".") && arg != architecture.RootPath {
		candidates = append(candidates, architecture.RootPath+"."+arg)
	}
	for _, path := range candidates {
		m, err := repo.FindByPath(ctx, path)
		if err != nil {
			return nil, errors.New(errors.StoreUnavailable, "Failed to look up module", err)
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, errors.Newf(errors.InvalidParameter, "no module named %q", arg)
}

// modulePaths maps module ids to full paths.
func modulePaths(ctx context.Context, db *storage.DB) (map[process.ModuleID]string, error) {
	modules, err := storage.NewModuleRepository(db).List(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "Failed to load modules", err)
	}
	out := make(map[process.ModuleID]string, len(modules))
	for _, m := range modules {
		out[m.ID] = m.FullPath
	}
	return out, nil
}
