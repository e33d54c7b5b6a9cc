package app

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/diskscope/internal/cache"
	"github.com/blackwell-systems/diskscope/internal/config"
	"github.com/blackwell-systems/diskscope/internal/output"
	"github.com/blackwell-systems/diskscope/internal/platform"
	"github.com/blackwell-systems/diskscope/internal/scanner"
)

var (
	exportFormat  string
	exportOutput  string
	exportNoCache bool

	exportCmd = &cobra.Command{
		Use:   "export [path]",
		Short: "Export a snapshot as JSON or CSV",
		Long: heredoc.Doc(`
			Write the snapshot for a root in a machine-readable form. JSON
			carries the whole snapshot; CSV flattens the top directories, top
			files and extension totals into section rows, plus one row per file
			when the snapshot kept its file listing.

			Serves the cached snapshot when one exists, scanning otherwise.
		`),
		Example: heredoc.Doc(`
			  # Snapshot of the current directory as JSON on stdout
			  diskscope export

			  # CSV into a file
			  diskscope export /data --format csv -o data.csv
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportNoCache, "no-cache", false, "walk the tree even when a cached snapshot exists")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "json" && exportFormat != "csv" {
		return fmt.Errorf("invalid format %q: must be json or csv", exportFormat)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(verbose || cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	snapCache, err := cache.New(db, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot cache: %w", err)
	}

	opts := scanner.Options{TopK: cfg.TopK, RetainFiles: cfg.RetainFileList}
	useCache := cfg.UseCache && !exportNoCache
	// The meter shares stdout with the export, so it only runs when the
	// export goes to a file.
	showProgress := cfg.Progress && exportOutput != ""

	snap, _, err := obtainSnapshot(cmd.Context(), snapCache, logger, platform.New(), rootArg(args), opts, useCache, showProgress)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}

	if exportFormat == "csv" {
		err = output.WriteCSV(w, snap)
	} else {
		err = output.WriteJSON(w, snap)
	}
	if err != nil {
		return err
	}

	if exportOutput != "" {
		fmt.Printf("Wrote %s export to %s\n", exportFormat, exportOutput)
	}
	return nil
}
