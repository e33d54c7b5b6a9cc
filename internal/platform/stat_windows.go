//go:build windows

package platform

import (
	"os"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

const linkIdentitySupported = false

func linkIdentity(_ os.FileInfo) *inventory.LinkIdentity {
	return nil
}
