// Package inventory defines the data model produced by a filesystem scan.
package inventory

import (
	"path/filepath"
	"strings"
	"time"
)

// NoExtension is the histogram key for files that have no extension.
const NoExtension = "(no extension)"

// LinkIdentity identifies the physical content behind a path. All hard
// links to the same content carry the same identity.
type LinkIdentity struct {
	Device uint64 `json:"device"`
	Inode  uint64 `json:"inode"`
}

// FileRecord is one filesystem entry counted during a scan. Records are
// created once per visited entry and never mutated afterwards.
type FileRecord struct {
	Path          string        `json:"path"`
	Size          int64         `json:"size"`
	ModifiedAt    time.Time     `json:"modified_at"`
	IsSymlink     bool          `json:"is_symlink,omitempty"`
	SymlinkTarget string        `json:"symlink_target,omitempty"`
	Links         *LinkIdentity `json:"links,omitempty"` // nil when the platform has none
}

// DirectoryAggregate is the cumulative size of one directory including all
// of its descendants. An aggregate is finalized only after every child has
// been finalized: TotalSize equals the sum of the immediate subdirectory
// totals plus the sizes of the directory's own files.
type DirectoryAggregate struct {
	Path            string `json:"path"`
	TotalSize       int64  `json:"total_size"`
	DirectFileCount int    `json:"direct_file_count"`
	TotalFileCount  int    `json:"total_file_count"`
	AccessFailures  int    `json:"access_failures,omitempty"`
}

// Entry is one element of a bounded top list.
type Entry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Snapshot is the complete result of one scan. A snapshot is produced
// atomically by a fully completed scan and is read-only afterwards.
type Snapshot struct {
	ID             string           `json:"id"`
	Root           string           `json:"root"`
	ScannedAt      time.Time        `json:"scanned_at"`
	TotalSize      int64            `json:"total_size"`
	TotalFiles     int64            `json:"total_files"`
	TotalDirs      int64            `json:"total_dirs"`
	AccessFailures int64            `json:"access_failures"`
	TopDirectories []Entry          `json:"top_directories"`
	TopFiles       []Entry          `json:"top_files"`
	Extensions     map[string]int64 `json:"extensions"`

	// Files is the flat list of every counted entry. It is retained only
	// when duplicate detection or export needs it; otherwise it is dropped
	// after aggregation to bound memory.
	Files []FileRecord `json:"files,omitempty"`
}

// HasFileList reports whether the snapshot kept its flat file list.
func (s *Snapshot) HasFileList() bool {
	return len(s.Files) > 0
}

// NormalizeExtension returns the histogram key for a path: the final
// extension lower-cased with its leading dot, or NoExtension. Dotfiles and
// names ending in a dot count as extensionless.
func NormalizeExtension(path string) string {
	name := filepath.Base(path)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return NoExtension
	}
	return strings.ToLower(name[i:])
}
