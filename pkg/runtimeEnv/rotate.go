package runtimeEnv

import (
	"fmt"
	"os"
	"sync"

	"github.com/lootwatch/lootwatchd/internal/util"
)

// DefaultRotateBytes and DefaultRotateKeep give the daemon's log file
// rotation policy: 5 MiB per file, 3 gzip-compressed generations kept
// alongside the active one.
const (
	DefaultRotateBytes = 5 << 20
	DefaultRotateKeep  = 3
)

// RotatingFile is a size-bounded rotating file writer. Once the active
// file exceeds maxBytes, it is gzip-compressed to path.1.gz (evicting
// path.keep.gz in the process) and a fresh file is opened at path.
type RotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	keep     int
	f        *os.File
	size     int64
}

// NewRotatingFile opens (or creates) path for appending and prepares it
// for size-based rotation.
func NewRotatingFile(path string, maxBytes int64, keep int) (*RotatingFile, error) {
	r := &RotatingFile{path: path, maxBytes: maxBytes, keep: keep}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RotatingFile) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	r.f = f
	r.size = info.Size()
	return nil
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := r.f.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *RotatingFile) rotate() error {
	r.f.Close()
	for i := r.keep - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d.gz", r.path, i), fmt.Sprintf("%s.%d.gz", r.path, i+1))
	}
	if err := util.CompressFile(r.path, r.path+".1.gz"); err != nil {
		return err
	}
	return r.open()
}

// Close flushes and closes the underlying file.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
