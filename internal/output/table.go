// Package output provides terminal output utilities for diskscope.
//
// This package includes:
//   - Report rendering for scan snapshots, duplicate groups, and cache entries
//   - A live progress meter for long-running scans
//   - JSON and CSV export writers
//
// All rendering uses ASCII characters and ANSI color codes for terminal output.
// The progress meter is thread-safe and TTY-gated.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/diskscope/internal/dupes"
	"github.com/blackwell-systems/diskscope/internal/inventory"
	"github.com/blackwell-systems/diskscope/internal/store"
)

// ANSI color codes for report display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// barWidth is the cell count of usage bars in the report.
const barWidth = 20

// extensionRows caps the extension histogram section of the report.
const extensionRows = 10

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderScanReport renders the full terminal report for one snapshot:
// overview counters, the largest directories and files, and the extension
// histogram. Paths are shown relative to the scanned root.
func RenderScanReport(snap *inventory.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Scan of %s\n", snap.Root))
	sb.WriteString(fmt.Sprintf("Scanned %s\n", formatWhen(snap.ScannedAt)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("%-17s %s\n", "Total size:", humanize.IBytes(uint64(snap.TotalSize))))
	sb.WriteString(fmt.Sprintf("%-17s %s\n", "Files:", humanize.Comma(snap.TotalFiles)))
	sb.WriteString(fmt.Sprintf("%-17s %s\n", "Directories:", humanize.Comma(snap.TotalDirs)))
	if snap.AccessFailures > 0 {
		sb.WriteString(fmt.Sprintf("%-17s %s\n", "Access failures:",
			colorize(colorYellow, humanize.Comma(snap.AccessFailures))))
	}

	sb.WriteString("\nLargest directories\n")
	if len(snap.TopDirectories) == 0 {
		sb.WriteString("  (none)\n")
	}
	for i, entry := range snap.TopDirectories {
		sb.WriteString(renderRankedBar(i+1, entry.Size, snap.TotalSize, relativeTo(snap.Root, entry.Path)))
	}

	sb.WriteString("\nLargest files\n")
	if len(snap.TopFiles) == 0 {
		sb.WriteString("  (none)\n")
	}
	for i, entry := range snap.TopFiles {
		sb.WriteString(fmt.Sprintf("%3d  %9s  %s\n",
			i+1,
			humanize.IBytes(uint64(entry.Size)),
			relativeTo(snap.Root, entry.Path)))
	}

	sb.WriteString("\nExtensions\n")
	exts := orderedExtensions(snap.Extensions)
	if len(exts) == 0 {
		sb.WriteString("  (none)\n")
	}
	for i, ext := range exts {
		if i == extensionRows {
			break
		}
		label := ext.name
		if label == inventory.NoExtension {
			label = colorize(colorGray, label)
		}
		sb.WriteString(renderRankedBar(i+1, ext.size, snap.TotalSize, label))
	}

	return sb.String()
}

// RenderDuplicateTable renders duplicate groups with their members and a
// footer carrying the total reclaimable size.
func RenderDuplicateTable(groups []dupes.Group) string {
	if len(groups) == 0 {
		return "No duplicates found.\n"
	}

	var total int64
	for _, g := range groups {
		total += g.ReclaimableBytes
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %s\n", formatGroupCount(len(groups))))

	for _, g := range groups {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%d copies · %s each · %s reclaimable · sha256:%s\n",
			len(g.Members),
			humanize.IBytes(uint64(g.Size)),
			humanize.IBytes(uint64(g.ReclaimableBytes)),
			shortHash(g.ContentHash)))
		for _, member := range g.Members {
			sb.WriteString("  " + member + "\n")
		}
	}

	sb.WriteString("\nReclaimable in total: ")
	sb.WriteString(colorize(colorGreen, humanize.IBytes(uint64(total))))
	sb.WriteString("\n")

	return sb.String()
}

// RenderCacheTable renders a table of cached snapshot summaries.
func RenderCacheTable(entries []*store.CacheEntry) string {
	if len(entries) == 0 {
		return "No cached snapshots.\n"
	}

	// Sort by root for consistent output
	sorted := make([]*store.CacheEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Root < sorted[j].Root
	})

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-36s %-9s %-10s %-15s %s\n",
		"Root", "Size", "Files", "Scanned", "Detail"))
	sb.WriteString(strings.Repeat("─", 84))
	sb.WriteString("\n")

	// Rows
	for _, entry := range sorted {
		detail := ""
		if entry.HasFiles {
			detail = "file list"
		}
		sb.WriteString(fmt.Sprintf("%-36s %-9s %-10s %-15s %s\n",
			truncate(entry.Root, 36),
			humanize.IBytes(uint64(entry.TotalSize)),
			humanize.Comma(entry.TotalFiles),
			formatWhen(entry.ScannedAt),
			detail))
	}

	return sb.String()
}

// renderRankedBar draws one report row: rank, usage bar, percent of the
// total, size, and label.
func renderRankedBar(rank int, size, total int64, label string) string {
	var ratio float64
	if total > 0 {
		ratio = float64(size) / float64(total)
	}
	filled := int(ratio*barWidth + 0.5)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return fmt.Sprintf("%3d  %s %5.1f%%  %9s  %s\n",
		rank, bar, ratio*100, humanize.IBytes(uint64(size)), label)
}

// relativeTo rewrites path relative to root for display. The root itself
// renders as "." and anything outside the root is left absolute.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

type extensionTotal struct {
	name string
	size int64
}

// orderedExtensions flattens the histogram, largest first with lexical
// tie-breaks so equal sizes render in a stable order.
func orderedExtensions(exts map[string]int64) []extensionTotal {
	ordered := make([]extensionTotal, 0, len(exts))
	for name, size := range exts {
		ordered = append(ordered, extensionTotal{name: name, size: size})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].size != ordered[j].size {
			return ordered[i].size > ordered[j].size
		}
		return ordered[i].name < ordered[j].name
	})
	return ordered
}

// formatGroupCount formats a duplicate group count for display.
func formatGroupCount(n int) string {
	if n == 1 {
		return "1 duplicate group"
	}
	return fmt.Sprintf("%d duplicate groups", n)
}

// formatWhen converts a timestamp to relative time (e.g. "2 days ago").
func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// shortHash trims a content digest to a display-friendly prefix.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
