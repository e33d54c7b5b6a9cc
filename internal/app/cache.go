package app

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/diskscope/internal/cache"
	"github.com/blackwell-systems/diskscope/internal/config"
	"github.com/blackwell-systems/diskscope/internal/output"
	"github.com/blackwell-systems/diskscope/internal/store"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached snapshots",
		Long: heredoc.Doc(`
			Snapshots are cached per scan root and reused until cleared. The
			cache never refreshes itself: a cached result can describe a tree
			that has since changed, and stays until a rescan replaces it or
			'cache clear' drops it.
		`),
	}

	cacheListCmd = &cobra.Command{
		Use:   "list",
		Short: "List cached snapshots",
		Example: heredoc.Doc(`
			  # Show every cached root
			  diskscope cache list
		`),
		Args: cobra.NoArgs,
		RunE: runCacheList,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear [path]",
		Short: "Drop cached snapshots",
		Long: heredoc.Doc(`
			Drop the cached snapshot for one root, or every cached snapshot
			when no path is given. The next scan of a cleared root walks the
			tree again.
		`),
		Example: heredoc.Doc(`
			  # Forget one root
			  diskscope cache clear /data

			  # Forget everything
			  diskscope cache clear
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runCacheClear,
	}
)

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
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

	entries, err := snapCache.Entries()
	if err != nil {
		return fmt.Errorf("failed to list cached snapshots: %w", err)
	}

	fmt.Print(output.RenderCacheTable(entries))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
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

	if len(args) == 1 {
		if err := snapCache.Invalidate(args[0]); err != nil {
			if errors.Is(err, store.ErrSnapshotNotFound) {
				return fmt.Errorf("no cached snapshot for %s", args[0])
			}
			return fmt.Errorf("failed to clear cached snapshot: %w", err)
		}
		fmt.Printf("Cleared cached snapshot for %s\n", args[0])
		return nil
	}

	n, err := snapCache.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear snapshot cache: %w", err)
	}
	if n == 1 {
		fmt.Println("Cleared 1 cached snapshot")
	} else {
		fmt.Printf("Cleared %d cached snapshots\n", n)
	}
	return nil
}
