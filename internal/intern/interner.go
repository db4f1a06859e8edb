// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package intern deduplicates byte strings by content and hands out
// stable, insertion-ordered handles for them.
package intern

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/yamlblob/internal/growable"
)

// Handle identifies an interned string.  Handles are dense and assigned in
// first-insertion order.
type Handle uint32

var ErrFinalized = errors.New("interner already finalized")

// Interner stores each distinct byte string once.  Strings are appended
// to a single buffer in handle order, so flattening the interner is just
// handing that buffer over.
type Interner struct {
	buf       []byte
	offsets   *growable.Table[uint64]
	lens      []uint64
	buckets   map[uint64][]Handle
	finalized bool
}

// New returns an empty Interner holding at most maxStrings strings
// (<= 0 means no limit beyond the handle space).
func New(maxStrings int) *Interner {
	return &Interner{
		offsets: growable.New[uint64](maxStrings),
		buckets: make(map[uint64][]Handle),
	}
}

func (in *Interner) bytesOf(h Handle) []byte {
	off := in.offsets.At(uint32(h))
	return in.buf[off : off+in.lens[h]]
}

// Intern returns the handle for s, adding a copy of s if this content
// hasn't been seen before.
func (in *Interner) Intern(s []byte) (Handle, error) {
	if in.finalized {
		return 0, ErrFinalized
	}
	hash := farm.Hash64(s)
	for _, h := range in.buckets[hash] {
		if bytes.Equal(in.bytesOf(h), s) {
			return h, nil
		}
	}

	off := uint64(len(in.buf))
	n, err := in.offsets.Push(off)
	if err != nil {
		return 0, fmt.Errorf("intern: %w", err)
	}
	in.buf = append(in.buf, s...)
	in.lens = append(in.lens, uint64(len(s)))

	h := Handle(n)
	in.buckets[hash] = append(in.buckets[hash], h)
	return h, nil
}

// Len returns the number of distinct strings.
func (in *Interner) Len() int {
	return in.offsets.Len()
}

// Size returns the total byte length of all distinct strings.
func (in *Interner) Size() int {
	return len(in.buf)
}

// Lookup returns the bytes for h.  The result must not be modified.
func (in *Interner) Lookup(h Handle) ([]byte, bool) {
	if int(h) >= in.Len() {
		return nil, false
	}
	return in.bytesOf(h), true
}

// Finalize returns all strings concatenated in handle order along with
// each handle's byte offset into that buffer.  It may only be called
// once; the interner can't be used afterwards.
func (in *Interner) Finalize() (buf []byte, offsets []uint64, err error) {
	if in.finalized {
		return nil, nil, ErrFinalized
	}
	in.finalized = true
	in.buckets = nil
	return in.buf, in.offsets.Slice(), nil
}
