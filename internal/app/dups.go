package app

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/diskscope/internal/cache"
	"github.com/blackwell-systems/diskscope/internal/config"
	"github.com/blackwell-systems/diskscope/internal/dupes"
	"github.com/blackwell-systems/diskscope/internal/output"
	"github.com/blackwell-systems/diskscope/internal/platform"
	"github.com/blackwell-systems/diskscope/internal/scanner"
)

var (
	dupsMinSize string
	dupsTop     int
	dupsNoCache bool
	dupsFormat  string

	dupsCmd = &cobra.Command{
		Use:   "dups [path]",
		Short: "Find duplicate files by content",
		Long: heredoc.Doc(`
			Group files with identical content and report how much space the
			extra copies waste. Candidates are narrowed before any bytes are
			read: files below the size floor are ignored, hard links to the
			same content count as one file, and only files of exactly equal
			size are compared. Survivors are confirmed by a streaming sha256
			digest.

			The detector needs a per-file listing, so a cached snapshot is only
			reused when it kept one; otherwise the tree is walked again and the
			listing is cached for next time.
		`),
		Example: heredoc.Doc(`
			  # Duplicates under the current directory, 1 MiB floor
			  diskscope dups

			  # Consider smaller files too
			  diskscope dups /data --min-size "64 KiB"

			  # Five largest groups as JSON
			  diskscope dups /data --top 5 --format json
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runDups,
	}
)

func init() {
	dupsCmd.Flags().StringVar(&dupsMinSize, "min-size", "1 MiB", "smallest file size considered (accepts humanized sizes)")
	dupsCmd.Flags().IntVarP(&dupsTop, "top", "n", 0, "show only the n largest groups (0 shows all)")
	dupsCmd.Flags().BoolVar(&dupsNoCache, "no-cache", false, "walk the tree even when a cached file listing exists")
	dupsCmd.Flags().StringVar(&dupsFormat, "format", "table", "output format: table or json")
}

func runDups(cmd *cobra.Command, args []string) error {
	if dupsFormat != "table" && dupsFormat != "json" {
		return fmt.Errorf("invalid format %q: must be table or json", dupsFormat)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	minSize, err := cfg.MinDuplicateBytes()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("min-size") {
		n, err := humanize.ParseBytes(dupsMinSize)
		if err != nil {
			return fmt.Errorf("invalid min-size %q: %w", dupsMinSize, err)
		}
		minSize = int64(n)
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

	opts := scanner.Options{TopK: cfg.TopK, RetainFiles: true}
	useCache := cfg.UseCache && !dupsNoCache
	// The meter shares stdout with the report, so JSON output stays clean.
	showProgress := cfg.Progress && dupsFormat == "table"

	pol := platform.New()
	snap, _, err := obtainSnapshot(cmd.Context(), snapCache, logger, pol, rootArg(args), opts, useCache, showProgress)
	if err != nil {
		return err
	}

	detector := dupes.New(pol, logger)
	groups, err := detector.FindDuplicates(cmd.Context(), snap.Files, minSize)
	if err != nil {
		return fmt.Errorf("failed to detect duplicates: %w", err)
	}

	if dupsTop > 0 && len(groups) > dupsTop {
		groups = groups[:dupsTop]
	}

	if dupsFormat == "json" {
		return output.WriteDuplicatesJSON(os.Stdout, groups)
	}

	fmt.Print(output.RenderDuplicateTable(groups))
	return nil
}
