package platform

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// staticSkipPaths are mount points that are never worth scanning regardless
// of what the mount table says.
var staticSkipPaths = map[string]struct{}{
	"/proc":    {},
	"/sys":     {},
	"/dev":     {},
	"/run":     {},
	"/tmp":     {},
	"/var/tmp": {},
	"/var/run": {},
	"/proc/sys/fs/binfmt_misc": {},
}

// skipDevices are device files that block or produce endless data when read.
var skipDevices = map[string]struct{}{
	"/dev/null":    {},
	"/dev/zero":    {},
	"/dev/full":    {},
	"/dev/random":  {},
	"/dev/urandom": {},
}

// virtualFSTypes are mount table filesystem types that hold no real data.
var virtualFSTypes = map[string]struct{}{
	"proc":       {},
	"sysfs":      {},
	"devtmpfs":   {},
	"tmpfs":      {},
	"debugfs":    {},
	"tracefs":    {},
	"cgroup":     {},
	"cgroup2":    {},
	"configfs":   {},
	"fusectl":    {},
	"securityfs": {},
	"pstore":     {},
	"bpf":        {},
	"mqueue":     {},
	"hugetlbfs":  {},
}

// linuxPolicy skips virtual and pseudo filesystems. Beyond the static skip
// set it consults the mount table for virtual mounts; detection runs once,
// lazily, on the first skip decision and is cached for the life of the
// policy.
type linuxPolicy struct {
	mountsPath string

	detectOnce sync.Once
	mounts     map[string]struct{}
}

func newLinuxPolicy() *linuxPolicy {
	return &linuxPolicy{mountsPath: "/proc/mounts"}
}

func (p *linuxPolicy) ShouldSkip(path string) bool {
	if _, ok := staticSkipPaths[path]; ok {
		return true
	}
	if _, ok := skipDevices[path]; ok {
		return true
	}

	p.detectOnce.Do(p.detectVirtualMounts)

	for mount := range p.mounts {
		if path == mount || strings.HasPrefix(path, mount+"/") {
			return true
		}
	}

	return false
}

// detectVirtualMounts reads the mount table and records every mount point
// whose filesystem type is virtual. If the table cannot be read the static
// skip set doubles as the detected set.
func (p *linuxPolicy) detectVirtualMounts() {
	p.mounts = make(map[string]struct{})

	f, err := os.Open(p.mountsPath)
	if err != nil {
		for path := range staticSkipPaths {
			p.mounts[path] = struct{}{}
		}
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		// Format: device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if _, ok := virtualFSTypes[fields[2]]; ok {
			p.mounts[fields[1]] = struct{}{}
		}
	}
}

func (p *linuxPolicy) Stat(path string) (inventory.FileRecord, bool) {
	return statPath(path)
}

func (p *linuxPolicy) SupportsLinkIdentity() bool {
	return linkIdentitySupported
}

func (p *linuxPolicy) OS() string {
	return "linux"
}
