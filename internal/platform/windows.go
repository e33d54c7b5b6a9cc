package platform

import (
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// windowsSkipNames are reserved directory names matched anywhere in a tree.
var windowsSkipNames = map[string]struct{}{
	"$RECYCLE.BIN":              {},
	"System Volume Information": {},
	"Config.Msi":                {},
	"Windows":                   {},
}

// windowsPolicy skips reserved system directories and hidden entries by
// the dot-prefix convention. NTFS exposes no usable inode identity through
// Lstat, so link identity is unsupported.
type windowsPolicy struct{}

func newWindowsPolicy() *windowsPolicy {
	return &windowsPolicy{}
}

func (p *windowsPolicy) ShouldSkip(path string) bool {
	name := filepath.Base(path)

	if _, ok := windowsSkipNames[name]; ok {
		return true
	}

	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}

	return false
}

func (p *windowsPolicy) Stat(path string) (inventory.FileRecord, bool) {
	return statPath(path)
}

func (p *windowsPolicy) SupportsLinkIdentity() bool {
	return linkIdentitySupported
}

func (p *windowsPolicy) OS() string {
	return "windows"
}
