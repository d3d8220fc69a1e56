// Copyright 2024 The 1brc Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmapfile maps a whole file read-only into memory.
package mmapfile

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// File is a read-only memory mapping of a file's contents.
type File struct {
	data     []byte
	isClosed atomic.Bool
}

// Open maps the file at path.  Empty files produce an empty (nil) view
// without an actual mapping, since mmap(2) rejects zero-length mappings.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	// the mapping stays valid after the descriptor is closed
	defer func() {
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()
	if size == 0 {
		return &File{}, nil
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("file %s too large to map: %d bytes", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("unix.Mmap(%s): %w", path, err)
	}
	// we read the whole file front to back, once
	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &File{data: data}, nil
}

// Data returns the mapped bytes.  They must not be written to, and must not
// be used after Close.
func (f *File) Data() []byte {
	return f.data
}

// Len returns the size of the mapping in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Close unmaps the file.  It is safe to call more than once.
func (f *File) Close() error {
	if f.isClosed.Swap(true) || f.data == nil {
		return nil
	}
	data := f.data
	f.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	return nil
}
