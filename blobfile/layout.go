// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package blobfile

import (
	"fmt"
	"math"
	"math/bits"
)

// Counts are the element counts of each section of a blob to be laid out.
type Counts struct {
	Nodes       uint64
	Pairs       uint64
	Indices     uint64
	HashEntries uint64
	StringBytes uint64

	// HashIndex is false for blobs built without a hash index; their
	// hash section is recorded as (0, 0).
	HashIndex bool
}

// DefaultMaxSize is the largest blob a single Go byte slice can hold.
const DefaultMaxSize = uint64(math.MaxInt)

type sizer struct {
	off      uint64
	overflow bool
}

// add reserves count entries of entrySize bytes and returns where they
// start.
func (s *sizer) add(count, entrySize uint64) uint64 {
	start := s.off
	hi, size := bits.Mul64(count, entrySize)
	if hi != 0 {
		s.overflow = true
	}
	var carry uint64
	s.off, carry = bits.Add64(s.off, size, 0)
	if carry != 0 {
		s.overflow = true
	}
	return start
}

// Layout computes the header for a blob with the given section counts,
// along with the blob's total size.  It fails with ErrLayoutOverflow when
// any offset overflows 64 bits or the total exceeds maxSize (0 means
// DefaultMaxSize); nothing needs to be allocated to find that out.
func Layout(c Counts, maxSize uint64) (Header, uint64, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	if !c.HashIndex && c.HashEntries != 0 {
		return Header{}, 0, fmt.Errorf("%d hash entries without a hash index", c.HashEntries)
	}

	h := NewHeader()
	s := sizer{off: HeaderSize}
	h.Nodes = Section{Offset: s.add(c.Nodes, NodeEntrySize), Count: c.Nodes}
	h.Pairs = Section{Offset: s.add(c.Pairs, PairEntrySize), Count: c.Pairs}
	h.Indices = Section{Offset: s.add(c.Indices, IndexEntrySize), Count: c.Indices}
	hashOff := s.add(c.HashEntries, HashEntrySize)
	if c.HashIndex {
		h.HashIndex = Section{Offset: hashOff, Count: c.HashEntries}
	}
	stringsOff := s.off
	h.Strings = Section{Offset: stringsOff, Count: c.StringBytes}

	if s.overflow || stringsOff > maxSize || c.StringBytes > maxSize-stringsOff {
		return Header{}, 0, fmt.Errorf("%w: string table at %d + %d bytes (limit %d)", ErrLayoutOverflow, stringsOff, c.StringBytes, maxSize)
	}
	return h, stringsOff + c.StringBytes, nil
}

// end returns where a section of entrySize-byte entries ends, and false
// if that isn't representable.
func (s Section) end(entrySize uint64) (uint64, bool) {
	hi, size := bits.Mul64(s.Count, entrySize)
	if hi != 0 {
		return 0, false
	}
	end, carry := bits.Add64(s.Offset, size, 0)
	return end, carry == 0
}
