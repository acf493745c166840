package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"squint/internal/errors"
	"squint/internal/export"
	"squint/internal/paths"
)

var (
	exportFormat   string
	exportCompress bool
	exportOutput   string
	exportMembers  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the inferred architecture",
	Long: `Export modules, process groups, interactions, cross-module bridges and
flows as a snapshot.

Formats: json, yaml, toml, or text (a readable module map). With --compress
the snapshot is zstd-compressed; write it to a file with --output.

Examples:
  squint export
  squint export --format=yaml --members
  squint export --format=text
  squint export --compress --output=architecture.json.zst`,
	Args: cobra.NoArgs,
	Run:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Snapshot format: json, yaml, toml, text (default: export.format from config)")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "zstd-compress the snapshot (default: export.compress from config)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportMembers, "members", false, "Include every member symbol of each module")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	start := time.Now()
	s := mustOpenSession()
	defer s.Close()

	opts := export.Options{
		Format:         s.cfg.Export.Format,
		Compress:       s.cfg.Export.Compress,
		IncludeMembers: exportMembers,
	}
	if exportFormat != "" {
		opts.Format = exportFormat
	}
	if cmd.Flags().Changed("compress") {
		opts.Compress = exportCompress
	}

	exporter := export.NewExporter(s.db, s.repoRoot, s.logger)
	snap, err := exporter.Build(newContext(), opts)
	if err != nil {
		s.Close()
		exitWithError("Error exporting", err)
	}

	var w io.Writer = os.Stdout
	if exportOutput != "" {
		target := paths.ResolveRepoPath(s.repoRoot, exportOutput)
		f, err := os.Create(target)
		if err != nil {
			s.Close()
			exitWithError("Error exporting", errors.New(errors.ExportFailed, "Failed to create output file", err))
		}
		defer f.Close()
		w = f
	} else if opts.Compress && stdoutIsTerminal() {
		s.Close()
		exitWithError("Error exporting", errors.New(errors.InvalidParameter,
			"Refusing to write a compressed snapshot to a terminal; use --output or redirect stdout", nil))
	}

	if err := exporter.Write(w, snap, opts); err != nil {
		s.Close()
		exitWithError("Error exporting", err)
	}

	s.logger.Info("Export completed",
		"format", opts.Format,
		"compressed", opts.Compress,
		"modules", snap.Metadata.ModuleCount,
		"symbols", snap.Metadata.SymbolCount,
		"files", snap.Metadata.FileCount,
		"duration", time.Since(start).Milliseconds(),
	)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
