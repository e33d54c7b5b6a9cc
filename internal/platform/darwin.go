package platform

import "github.com/blackwell-systems/diskscope/internal/inventory"

// darwinSkipPaths are macOS-specific locations on top of the usual Unix
// virtual filesystems: mounted volumes, Spotlight indexes, fsevents logs
// and per-volume trash directories.
var darwinSkipPaths = map[string]struct{}{
	"/Volumes":         {},
	"/.Spotlight-V100": {},
	"/.fseventsd":      {},
	"/.Trashes":        {},
	"/private/var/vm":  {},
}

// darwinPolicy extends the linux variant by composition: macOS paths are
// checked first, everything else is delegated.
type darwinPolicy struct {
	unix *linuxPolicy
}

func newDarwinPolicy() *darwinPolicy {
	return &darwinPolicy{unix: newLinuxPolicy()}
}

func (p *darwinPolicy) ShouldSkip(path string) bool {
	if _, ok := darwinSkipPaths[path]; ok {
		return true
	}
	return p.unix.ShouldSkip(path)
}

func (p *darwinPolicy) Stat(path string) (inventory.FileRecord, bool) {
	return statPath(path)
}

func (p *darwinPolicy) SupportsLinkIdentity() bool {
	return linkIdentitySupported
}

func (p *darwinPolicy) OS() string {
	return "darwin"
}
