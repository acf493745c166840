package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"squint/internal/architecture"
	"squint/internal/backends/scip"
	"squint/internal/config"
	"squint/internal/errors"
	"squint/internal/paths"
	"squint/internal/slogutil"
	"squint/internal/storage"
)

// session is the state shared by one command invocation.
type session struct {
	repoRoot string
	cfg      *config.Config
	logger   *slog.Logger
	db       *storage.DB

	logCloser io.Closer
}

// openSession finds the repo root, loads config, sets up logging and opens
// the store.
func openSession() (*session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	repoRoot := paths.FindRepoRoot(wd)

	cfg, cfgErr := config.LoadConfig(repoRoot)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	logger, closer := slogutil.NewCLILogger(cfg, slogutil.CLIOptions{
		RepoRoot:  repoRoot,
		Verbosity: verbosity,
		Quiet:     quiet,
	})
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", cfgErr.Error())
	}

	db, err := storage.Open(repoRoot, logger)
	if err != nil {
		closer.Close()
		return nil, errors.New(errors.StoreUnavailable, "Failed to open database", err)
	}

	return &session{
		repoRoot:  repoRoot,
		cfg:       cfg,
		logger:    logger,
		db:        db,
		logCloser: closer,
	}, nil
}

// mustOpenSession returns a session or exits.
func mustOpenSession() *session {
	s, err := openSession()
	if err != nil {
		exitWithError("Error initializing squint", err)
	}
	return s
}

// Close releases the store and the log file.
func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close database", "error", err.Error())
	}
	s.logCloser.Close()
}

// engine returns an architecture engine over the session's store.
func (s *session) engine() *architecture.Engine {
	return architecture.NewEngine(architecture.NewSQLStore(s.db), s.logger)
}

// options builds pipeline options from config and the LAYERS.toml
// overrides, if any.
func (s *session) options() (architecture.Options, error) {
	layersPath := s.cfg.Analysis.LayersPath
	if layersPath == "" {
		layersPath = paths.GetLayersPath(s.repoRoot)
	} else {
		layersPath = paths.ResolveRepoPath(s.repoRoot, layersPath)
	}
	layers, err := architecture.LoadLayerOverrides(layersPath)
	if err != nil {
		return architecture.Options{}, err
	}
	return architecture.OptionsFromConfig(s.cfg, layers), nil
}

// indexPath resolves the SCIP index location, preferring override.
func (s *session) indexPath(override string) string {
	indexPath := s.cfg.Ingest.IndexPath
	if override != "" {
		indexPath = override
	}
	return scip.GetIndexPath(s.repoRoot, indexPath)
}

// ingestOptions builds ingest options from the configured exclude patterns
// and .squintignore.
func (s *session) ingestOptions(force bool) (scip.IngestOptions, error) {
	filter, err := scip.NewPathFilter(s.cfg.Ingest.Exclude, paths.GetIgnorePath(s.repoRoot))
	if err != nil {
		return scip.IngestOptions{}, err
	}
	return scip.IngestOptions{Force: force, Filter: filter}, nil
}

// mustOptions returns pipeline options or exits.
func (s *session) mustOptions() architecture.Options {
	opts, err := s.options()
	if err != nil {
		s.Close()
		exitWithError("Error loading layer overrides", err)
	}
	return opts
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// exitWithError prints err with any suggested fixes and exits.
func exitWithError(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	if se, ok := errors.AsSquintError(err); ok {
		for _, fix := range se.SuggestedFixes {
			if fix.Command != "" {
				fmt.Fprintf(os.Stderr, "  try: %s  (%s)\n", fix.Command, fix.Description)
			} else if fix.Description != "" {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", fix.Description)
			}
		}
	}
	os.Exit(1)
}

// printResponse formats resp in the --format output format and prints it.
func printResponse(resp interface{}) {
	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		exitWithError("Error formatting output", err)
	}
	fmt.Println(output)
}
