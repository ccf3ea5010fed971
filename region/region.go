// Package region supplies the contiguous byte range a heap.Allocator
// operates over: either a memory-mapped file, so the heap built on top
// of it survives a process restart, or a plain anonymous buffer for
// tests and purely in-process use.
package region

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var (
	// ErrClosed is returned by Sync on a Region after Close.
	ErrClosed = errors.New("region: already closed")
	// ErrSizeMismatch is returned by Open when an existing file's size
	// does not match the size the caller asked to open it at.
	ErrSizeMismatch = errors.New("region: file size does not match requested size")
)

// Region owns a byte slice backing a heap.Allocator and, for
// file-backed regions, the open file descriptor and mapping beneath
// it. The zero value is not usable.
type Region struct {
	buf    []byte
	file   *os.File
	closed bool
}

// Create opens (creating if necessary) the file at path, grows it to
// size if it is smaller, and mmaps it MAP_SHARED so writes are visible
// to any other process mapping the same file and persist across
// restarts once synced.
func Create(path string, size int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return mapFile(f, size)
}

// Open mmaps an existing file at path. It fails if the file's current
// size does not exactly match size, since a mismatched mapping would
// silently truncate or underrun the region a prior Create laid out.
func Open(path string, size int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() != int64(size) {
		f.Close()
		return nil, ErrSizeMismatch
	}
	return mapFile(f, size)
}

func mapFile(f *os.File, size int) (*Region, error) {
	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	Info("mapped %d bytes from %s", size, f.Name())
	return &Region{buf: buf, file: f}, nil
}

// NewAnonymous returns a Region backed by a plain heap-allocated
// buffer: no file, no mmap, no persistence. Useful for tests and for
// callers that only need the allocator's in-process behavior.
func NewAnonymous(size int) *Region {
	return &Region{buf: make([]byte, size)}
}

// Bytes returns the region's backing slice. Valid until Close.
func (r *Region) Bytes() []byte { return r.buf }

// FirstUse reports whether this region's first 8 bytes are all zero,
// the convention heap.Init/heap.IsInitialized use to tell a fresh
// region from one that already carries allocator state.
func (r *Region) FirstUse() bool {
	for _, b := range r.buf[:8] {
		if b != 0 {
			return false
		}
	}
	return true
}

// Sync flushes a file-backed region's dirty pages to disk. It is a
// no-op for anonymous regions.
func (r *Region) Sync() error {
	if r.closed {
		return ErrClosed
	}
	if r.file == nil {
		return nil
	}
	if err := unix.Msync(r.buf, unix.MS_SYNC); err != nil {
		Error("msync %s: %v", r.file.Name(), err)
		return err
	}
	return nil
}

// Close unmaps a file-backed region and closes its file descriptor.
// It is a no-op for anonymous regions. Close is idempotent.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.file == nil {
		return nil
	}
	if err := unix.Munmap(r.buf); err != nil {
		return err
	}
	return r.file.Close()
}
