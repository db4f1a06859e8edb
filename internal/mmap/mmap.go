// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build unix

// Package mmap provides read-only memory-mapped views of files.
package mmap

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ReaderAt is a read-only view of a memory-mapped file.  It is safe to
// read from concurrently; Close must not race with readers.
type ReaderAt struct {
	data []byte

	closeOnce sync.Once
	closeErr  error
}

// Open maps the file at path.  An empty file yields a ReaderAt with no
// data and nothing mapped.
func Open(path string) (*ReaderAt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// the mapping outlives the descriptor
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		return &ReaderAt{}, nil
	}
	if size < 0 || size > math.MaxInt {
		return nil, fmt.Errorf("mmap: file %s has unsupported size %d", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("unix.Mmap: %w", err)
	}
	return &ReaderAt{data: data}, nil
}

// Len returns the length of the mapping.
func (r *ReaderAt) Len() int {
	return len(r.data)
}

// Data returns the mapped bytes.  They must not be written to, and must
// not be used after Close.
func (r *ReaderAt) Data() []byte {
	return r.data
}

// Advise passes an madvise(2) hint (unix.MADV_*) for the whole mapping.
func (r *ReaderAt) Advise(advice int) error {
	if len(r.data) == 0 {
		return nil
	}
	if err := unix.Madvise(r.data, advice); err != nil {
		return fmt.Errorf("unix.Madvise: %w", err)
	}
	return nil
}

// ReadAt implements io.ReaderAt.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if r.data == nil && len(p) > 0 {
		return 0, io.EOF
	}
	if off < 0 || off > int64(len(r.data)) {
		return 0, fmt.Errorf("mmap: invalid ReadAt offset %d", off)
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file.  It is safe to call more than once; the mapping
// is released exactly once.
func (r *ReaderAt) Close() error {
	r.closeOnce.Do(func() {
		if r.data != nil {
			r.closeErr = unix.Munmap(r.data)
		}
		r.data = nil
	})
	return r.closeErr
}
