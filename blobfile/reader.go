// Copyright 2024 The yamlblob Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package blobfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// Reader provides random access to the sections of a blob.  It never
// copies: every []byte it returns aliases the underlying buffer and must
// not be modified.  A Reader is safe for concurrent use.
type Reader struct {
	h   Header
	buf []byte

	nodes   []byte
	pairs   []byte
	indices []byte
	hashes  []byte
	strings []byte
}

// NewReader validates buf's header and that every section lies inside
// buf.  Individual entries are checked lazily as they are accessed.
func NewReader(buf []byte) (*Reader, error) {
	var h Header
	if err := h.UnmarshalBytes(buf); err != nil {
		return nil, fmt.Errorf("header.UnmarshalBytes: %w", err)
	}

	r := &Reader{h: h, buf: buf}
	var err error
	if r.nodes, err = r.section("node", h.Nodes, NodeEntrySize); err != nil {
		return nil, err
	}
	if r.pairs, err = r.section("pair", h.Pairs, PairEntrySize); err != nil {
		return nil, err
	}
	if r.indices, err = r.section("index", h.Indices, IndexEntrySize); err != nil {
		return nil, err
	}
	if r.hashes, err = r.section("hash index", h.HashIndex, HashEntrySize); err != nil {
		return nil, err
	}
	if r.strings, err = r.section("string", h.Strings, 1); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) section(name string, s Section, entrySize uint64) ([]byte, error) {
	end, ok := s.end(entrySize)
	if !ok || end > uint64(len(r.buf)) || (s.Count > 0 && s.Offset < HeaderSize) {
		return nil, fmt.Errorf("%w: %s table [%d, +%d*%d) outside %d byte blob", ErrTruncated, name, s.Offset, s.Count, entrySize, len(r.buf))
	}
	if s.Count == 0 {
		return nil, nil
	}
	return r.buf[s.Offset:end], nil
}

// Header returns the decoded blob header.
func (r *Reader) Header() Header { return r.h }

// Size is the blob's length in bytes.
func (r *Reader) Size() int { return len(r.buf) }

func (r *Reader) NodeCount() uint64   { return r.h.Nodes.Count }
func (r *Reader) PairCount() uint64   { return r.h.Pairs.Count }
func (r *Reader) IndexCount() uint64  { return r.h.Indices.Count }
func (r *Reader) HashCount() uint64   { return r.h.HashIndex.Count }
func (r *Reader) StringTable() []byte { return r.strings }

// HasHashIndex reports whether the blob was built with a hash index.
func (r *Reader) HasHashIndex() bool { return r.h.HashIndex.Offset != 0 }

func (r *Reader) outOfRange(what string, i, n uint64) error {
	return fmt.Errorf("%w: %s %d of %d", ErrOutOfRange, what, i, n)
}

func (r *Reader) Node(i uint32) (NodeEntry, error) {
	var e NodeEntry
	if uint64(i) >= r.h.Nodes.Count {
		return e, r.outOfRange("node", uint64(i), r.h.Nodes.Count)
	}
	off := uint64(i) * NodeEntrySize
	e.UnmarshalBytes(r.nodes[off : off+NodeEntrySize])
	return e, nil
}

func (r *Reader) Pair(i uint32) (PairEntry, error) {
	var e PairEntry
	if uint64(i) >= r.h.Pairs.Count {
		return e, r.outOfRange("pair", uint64(i), r.h.Pairs.Count)
	}
	off := uint64(i) * PairEntrySize
	e.UnmarshalBytes(r.pairs[off : off+PairEntrySize])
	return e, nil
}

// Element returns the node index stored in a raw index table slot.
func (r *Reader) Element(slot uint64) (uint32, error) {
	if slot >= r.h.Indices.Count {
		return 0, r.outOfRange("index slot", slot, r.h.Indices.Count)
	}
	off := slot * IndexEntrySize
	return binary.LittleEndian.Uint32(r.indices[off : off+IndexEntrySize]), nil
}

func (r *Reader) HashEntry(i uint64) (HashEntry, error) {
	var e HashEntry
	if i >= r.h.HashIndex.Count {
		return e, r.outOfRange("hash entry", i, r.h.HashIndex.Count)
	}
	off := i * HashEntrySize
	e.UnmarshalBytes(r.hashes[off : off+HashEntrySize])
	return e, nil
}

// Bytes returns n bytes of the string table starting at off.
func (r *Reader) Bytes(off, n uint64) ([]byte, error) {
	size := uint64(len(r.strings))
	if off > size || n > size-off {
		return nil, fmt.Errorf("%w: string bytes [%d, +%d) of %d", ErrOutOfRange, off, n, size)
	}
	return r.strings[off : off+n], nil
}

// ScalarBytes returns the content of scalar node i.
func (r *Reader) ScalarBytes(i uint32) ([]byte, error) {
	e, err := r.Node(i)
	if err != nil {
		return nil, err
	}
	if e.Kind != KindScalar {
		return nil, fmt.Errorf("%w: node %d is a %s", ErrNotScalar, i, e.Kind)
	}
	return r.Bytes(e.A, e.B)
}

// Root returns the node the document wraps.  The document is the last
// node of the blob; ok is false if there is none, or it has no root.
func (r *Reader) Root() (root uint32, ok bool) {
	n := r.h.Nodes.Count
	if n == 0 || n-1 > uint64(^uint32(0)) {
		return 0, false
	}
	doc := uint32(n - 1)
	e, err := r.Node(doc)
	if err != nil || e.Kind != KindDocument || e.A == uint64(doc) || e.A >= n {
		return 0, false
	}
	return uint32(e.A), true
}

// KeyHash returns the hash-index hash of scalar node i.
func (r *Reader) KeyHash(i uint32) (uint64, error) {
	return ResolveKeyHash(r.nodes, r.h.Nodes.Count, i, r.strings)
}

// Lookup returns, in ascending order, the indices of every pair whose key
// is a scalar equal to key.  Blobs without a hash index are scanned.
func (r *Reader) Lookup(key []byte) []uint32 {
	var found []uint32
	r.LookupFunc(key, func(pair uint32) bool {
		found = append(found, pair)
		return true
	})
	return found
}

// LookupFunc calls fn with each pair index Lookup would return, in the
// same order, until fn returns false.  It doesn't allocate.
func (r *Reader) LookupFunc(key []byte, fn func(pair uint32) bool) {
	if !r.HasHashIndex() {
		for i := uint64(0); i < r.h.Pairs.Count; i++ {
			if r.pairKeyEquals(uint32(i), key) && !fn(uint32(i)) {
				return
			}
		}
		return
	}

	hash := Hash(key)
	n := int(r.h.HashIndex.Count)
	start := sort.Search(n, func(i int) bool {
		e, _ := r.HashEntry(uint64(i))
		return e.Hash >= hash
	})
	for i := start; i < n; i++ {
		e, _ := r.HashEntry(uint64(i))
		if e.Hash != hash {
			break
		}
		// different keys can share a hash
		if r.pairKeyEquals(e.Pair, key) && !fn(e.Pair) {
			return
		}
	}
}

func (r *Reader) pairKeyEquals(pair uint32, key []byte) bool {
	p, err := r.Pair(pair)
	if err != nil {
		return false
	}
	b, err := r.ScalarBytes(p.Key)
	if err != nil {
		return false
	}
	return bytes.Equal(b, key)
}

// ResolveKeyHash computes the hash-index hash of scalar node nodeIndex
// directly from a node table holding nodeCount entries and the string
// table.  It lets callers holding only those two sections recompute a
// lookup key without going through the hash index.
func ResolveKeyHash(nodeTable []byte, nodeCount uint64, nodeIndex uint32, stringTable []byte) (uint64, error) {
	if uint64(nodeIndex) >= nodeCount {
		return 0, fmt.Errorf("%w: node %d of %d", ErrOutOfRange, nodeIndex, nodeCount)
	}
	off := uint64(nodeIndex) * NodeEntrySize
	if off+NodeEntrySize > uint64(len(nodeTable)) {
		return 0, fmt.Errorf("%w: node %d past end of %d byte node table", ErrTruncated, nodeIndex, len(nodeTable))
	}
	var e NodeEntry
	e.UnmarshalBytes(nodeTable[off : off+NodeEntrySize])
	if e.Kind != KindScalar {
		return 0, fmt.Errorf("%w: node %d is a %s", ErrNotScalar, nodeIndex, e.Kind)
	}
	size := uint64(len(stringTable))
	if e.A > size || e.B > size-e.A {
		return 0, fmt.Errorf("%w: scalar %d bytes [%d, +%d) of %d", ErrOutOfRange, nodeIndex, e.A, e.B, size)
	}
	return Hash(stringTable[e.A : e.A+e.B]), nil
}
