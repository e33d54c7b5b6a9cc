//go:build unix

package platform

import (
	"os"
	"syscall"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// linkIdentitySupported reports whether Lstat exposes device and inode
// numbers on this build.
const linkIdentitySupported = true

// linkIdentity extracts the (device, inode) pair that is shared by every
// hard link to the same content.
func linkIdentity(info os.FileInfo) *inventory.LinkIdentity {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	return &inventory.LinkIdentity{
		Device: uint64(st.Dev),
		Inode:  uint64(st.Ino),
	}
}
