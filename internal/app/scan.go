package app

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/diskscope/internal/cache"
	"github.com/blackwell-systems/diskscope/internal/config"
	"github.com/blackwell-systems/diskscope/internal/output"
	"github.com/blackwell-systems/diskscope/internal/platform"
	"github.com/blackwell-systems/diskscope/internal/scanner"
)

var (
	scanTop        int
	scanNoCache    bool
	scanKeepFiles  bool
	scanNoProgress bool

	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Inventory a directory tree",
		Long: heredoc.Doc(`
			Walk a directory tree and report where the space went: total size,
			file and directory counts, the largest directories and files, and a
			breakdown by extension.

			Results are cached per root. A later scan of the same root is served
			from the cache until it is cleared or --no-cache forces a fresh
			walk. Entries that cannot be read are skipped and counted as access
			failures; only an unreadable root aborts the scan.
		`),
		Example: heredoc.Doc(`
			  # Inventory the current directory
			  diskscope scan

			  # Twenty largest directories and files under /data
			  diskscope scan /data --top 20

			  # Force a fresh walk and keep the per-file listing
			  diskscope scan /data --no-cache --keep-files
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().IntVarP(&scanTop, "top", "n", scanner.DefaultTopK, "entries kept in the largest-directory and largest-file lists")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "walk the tree even when a cached snapshot exists")
	scanCmd.Flags().BoolVar(&scanKeepFiles, "keep-files", false, "keep the per-file listing with the cached snapshot")
	scanCmd.Flags().BoolVar(&scanNoProgress, "no-progress", false, "disable the live progress meter")
}

func runScan(cmd *cobra.Command, args []string) error {
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

	// The flag wins when given explicitly; otherwise the configured value.
	topK := scanTop
	if !cmd.Flags().Changed("top") && cfg.TopK > 0 {
		topK = cfg.TopK
	}

	opts := scanner.Options{
		TopK:        topK,
		RetainFiles: scanKeepFiles || cfg.RetainFileList,
	}
	useCache := cfg.UseCache && !scanNoCache
	showProgress := cfg.Progress && !scanNoProgress

	snap, fromCache, err := obtainSnapshot(cmd.Context(), snapCache, logger, platform.New(), rootArg(args), opts, useCache, showProgress)
	if err != nil {
		return err
	}

	if fromCache {
		fmt.Printf("Using cached snapshot from %s. Run with --no-cache to rescan.\n\n", humanize.Time(snap.ScannedAt))
	}

	fmt.Print(output.RenderScanReport(snap))
	return nil
}
