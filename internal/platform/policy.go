// Package platform decides which paths a scan may visit and extracts
// normalized metadata for the ones it does. One Policy variant exists per
// operating system family; the variant is selected once per process and
// shared read-only afterwards.
package platform

import (
	"os"
	"runtime"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// Policy abstracts operating-system differences during a scan.
//
// ShouldSkip is consulted for a directory before descending into it; a true
// result prunes the entire subtree. It is also consulted for non-directory
// entries so device files never get stat'd. Decisions are deterministic and
// side-effect-free for a given path and variant.
//
// Stat returns the entry's own metadata (symlinks are not followed). It
// fails silently: a permission error or a vanished path yields ok=false,
// which the caller counts as an access failure and moves past.
type Policy interface {
	ShouldSkip(path string) bool
	Stat(path string) (rec inventory.FileRecord, ok bool)
	SupportsLinkIdentity() bool
	OS() string
}

// New selects the Policy variant for the current operating system. Unknown
// systems get the linux variant, which suits most Unix-likes.
func New() Policy {
	switch runtime.GOOS {
	case "windows":
		return newWindowsPolicy()
	case "darwin":
		return newDarwinPolicy()
	default:
		return newLinuxPolicy()
	}
}

// statPath is the shared Stat implementation: Lstat so a symlink reports
// its own size, plus the link target when one can be read.
func statPath(path string) (inventory.FileRecord, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return inventory.FileRecord{}, false
	}

	rec := inventory.FileRecord{
		Path:       path,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		IsSymlink:  info.Mode()&os.ModeSymlink != 0,
		Links:      linkIdentity(info),
	}

	if rec.IsSymlink {
		if target, err := os.Readlink(path); err == nil {
			rec.SymlinkTarget = target
		}
	}

	return rec, true
}
