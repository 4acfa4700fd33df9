package tailer

import (
	"os"
	"syscall"
)

// fileIdentity is the inode-or-equivalent identity the rotation
// detector compares across polls. On the platforms this ships for,
// the inode number plus device id is stable across renames but
// changes across a truncate-and-recreate rotation.
type fileIdentity struct {
	dev uint64
	ino uint64
}

func identityOf(info os.FileInfo) (fileIdentity, bool) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileIdentity{}, false
	}
	return fileIdentity{dev: uint64(sys.Dev), ino: sys.Ino}, true
}
