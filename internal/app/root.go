package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/diskscope/internal/config"
)

var (
	dbPath  string
	verbose bool

	// RootCmd is the root command for diskscope
	RootCmd = &cobra.Command{
		Use:   "diskscope",
		Short: "Disk usage inventory and duplicate file detection",
		Long: heredoc.Doc(`
			diskscope inventories a directory tree and reports where the space
			went: total size, the largest directories and files, and a breakdown
			by extension. Snapshots are cached per root, so asking again about
			an unchanged tree is instant.

			It can also group duplicate files by content. Candidates are
			narrowed by size and hard-link identity first, so the expensive
			hashing step only touches files that could actually be duplicates.

			Quick Start:
			  1. diskscope scan ~/projects
			  2. diskscope dups ~/projects
			  3. diskscope cache list

			Examples:
			  # Inventory the current directory
			  diskscope scan

			  # Largest duplicate groups under /data, 512 KiB floor
			  diskscope dups /data --min-size "512 KiB"

			  # Ignore the cache and rescan
			  diskscope scan /data --no-cache

			  # Export a snapshot for other tooling
			  diskscope export /data --format csv -o data.csv
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := getDBPath(nil)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Println("diskscope: disk usage inventory and duplicate file detection")
				fmt.Println()
				fmt.Println("Run 'diskscope scan' to inventory the current directory.")
				fmt.Println("Run 'diskscope --help' for the full reference.")
			} else {
				fmt.Println("diskscope: disk usage inventory and duplicate file detection")
				fmt.Println()
				fmt.Println("Tip: Run 'diskscope cache list' to see cached scans.")
				fmt.Println("     Run 'diskscope dups' to look for duplicate files.")
				fmt.Println("     Run 'diskscope --help' for all commands.")
			}
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "snapshot database path (default: ~/.diskscope/diskscope.db)")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(dupsCmd)
	RootCmd.AddCommand(cacheCmd)
	RootCmd.AddCommand(exportCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// ExecuteContext runs the root command with ctx flowing into every
// subcommand, so a signal can cancel an in-flight scan.
func ExecuteContext(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// getDBPath returns the snapshot database path: the --db flag, then the
// configured path, then ~/.diskscope/diskscope.db.
func getDBPath(cfg *config.Config) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	// Create .diskscope directory if it doesn't exist
	diskscopeDir := filepath.Join(home, ".diskscope")
	if err := os.MkdirAll(diskscopeDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create diskscope directory: %w", err)
	}

	return filepath.Join(diskscopeDir, "diskscope.db"), nil
}
